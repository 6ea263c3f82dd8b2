package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	trmsqlx "github.com/avito-tech/go-transaction-manager/sqlx"
	"github.com/avito-tech/go-transaction-manager/trm/manager"
	"github.com/jmoiron/sqlx"
)

// SQLRepository keeps the local state in postgres or sqlite through sqlx.
type SQLRepository struct {
	db        *sqlx.DB
	getter    *trmsqlx.CtxGetter
	trManager *manager.Manager
}

func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{
		db:        db,
		getter:    trmsqlx.DefaultCtxGetter,
		trManager: manager.Must(trmsqlx.NewDefaultFactory(db)),
	}
}

// Migrate creates the key/value and outbox tables when missing.
func (r *SQLRepository) Migrate(ctx context.Context) error {
	outbox := createOutboxTableSQLiteSQL
	if r.db.DriverName() == "postgres" {
		outbox = createOutboxTablePostgresSQL
	}

	for _, stmt := range []string{createKVTableSQL, outbox} {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return nil
}

func (r *SQLRepository) Get(ctx context.Context, key string) (value string, found bool, err error) {
	err = r.getter.DefaultTrOrDB(ctx, r.db).
		QueryRowxContext(ctx, r.db.Rebind(GetValueSQL), key).
		Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %q: %w", key, err)
	}

	return value, true, nil
}

func (r *SQLRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, r.db.Rebind(UpsertValueSQL), key, value)
	if err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}

	return nil
}

func (r *SQLRepository) SetMany(ctx context.Context, values map[string]string) error {
	return r.trManager.Do(ctx, func(ctx context.Context) error {
		for k, v := range values {
			if err := r.Set(ctx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLRepository) Delete(ctx context.Context, keys ...string) error {
	return r.trManager.Do(ctx, func(ctx context.Context) error {
		for _, k := range keys {
			_, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, r.db.Rebind(DeleteValueSQL), k)
			if err != nil {
				return fmt.Errorf("failed to delete %q: %w", k, err)
			}
		}
		return nil
	})
}

func (r *SQLRepository) AddEvent(ctx context.Context, event Event) error {
	_, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, r.db.Rebind(AddEventSQL), event.Key, event.Message)
	if err != nil {
		return fmt.Errorf("failed to add event: %w", err)
	}

	return nil
}

func (r *SQLRepository) GetKafkaMessage(ctx context.Context) (event Event, err error) {
	err = r.getter.DefaultTrOrDB(ctx, r.db).
		QueryRowxContext(ctx, GetPendingEventSQL).
		Scan(&event.ID, &event.Key, &event.Message)
	if errors.Is(err, sql.ErrNoRows) {
		return Event{}, nil
	}
	if err != nil {
		return Event{}, fmt.Errorf("failed to get pending event: %w", err)
	}

	return event, nil
}

func (r *SQLRepository) SetDone(ctx context.Context, id int64) error {
	_, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, r.db.Rebind(SetEventDoneSQL), id)
	if err != nil {
		return fmt.Errorf("failed to mark event %d done: %w", id, err)
	}

	return nil
}
