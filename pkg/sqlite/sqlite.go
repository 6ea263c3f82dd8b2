package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

type Config struct {
	Path string `json:"path" yaml:"path" env:"VINABOOK_SQLITE_PATH"`
}

type DB struct {
	*sqlx.DB
	cfg Config
}

// NewDB opens (and creates if needed) the database file. SQLite allows a
// single writer, so the pool is pinned to one connection.
func NewDB(config Config) (*DB, error) {
	if config.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(config.Path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite3", config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &DB{
		cfg: config,
		DB:  db,
	}, nil
}

func (d *DB) Start(ctx context.Context) error {
	if err := d.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to open %s: %w", d.cfg.Path, err)
	}

	if _, err := d.DB.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		return fmt.Errorf("failed to apply pragmas: %w", err)
	}

	return nil
}

func (d *DB) Stop(ctx context.Context) error {
	return d.DB.Close()
}
