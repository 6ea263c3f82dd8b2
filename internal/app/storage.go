package app

import (
	"context"
	"fmt"

	"github.com/Dmitrij-bot/vinabook/config"
	"github.com/Dmitrij-bot/vinabook/internal/repository"
	"github.com/Dmitrij-bot/vinabook/pkg/lyfecycle"
	"github.com/Dmitrij-bot/vinabook/pkg/postgres"
	"github.com/Dmitrij-bot/vinabook/pkg/redis"
	"github.com/Dmitrij-bot/vinabook/pkg/sqlite"
)

// storage is the selected repository backend. outbox is nil for backends
// that cannot queue events.
type storage struct {
	repo   repository.Interface
	outbox repository.Outbox
	conn   lyfecycle.Lyfecycle
	sql    *repository.SQLRepository
}

func newStorage(cfg config.Storage) (*storage, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		repo := repository.NewMemoryRepository()
		return &storage{repo: repo, outbox: repo}, nil

	case config.DriverSQLite:
		db, err := sqlite.NewDB(cfg.SQLite)
		if err != nil {
			return nil, err
		}
		repo := repository.NewSQLRepository(db.DB)
		return &storage{repo: repo, outbox: repo, conn: db, sql: repo}, nil

	case config.DriverPostgres:
		db, err := postgres.NewDB(cfg.Postgres)
		if err != nil {
			return nil, err
		}
		repo := repository.NewSQLRepository(db.DB)
		return &storage{repo: repo, outbox: repo, conn: db, sql: repo}, nil

	case config.DriverRedis:
		db := redis.NewRedisDB(cfg.Redis)
		return &storage{repo: repository.NewRedisRepository(db), conn: db}, nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

func (s *storage) Start(ctx context.Context) error {
	if s.conn == nil {
		return nil
	}
	if err := s.conn.Start(ctx); err != nil {
		return err
	}
	if s.sql != nil {
		return s.sql.Migrate(ctx)
	}
	return nil
}

func (s *storage) Stop(ctx context.Context) error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Stop(ctx)
}
