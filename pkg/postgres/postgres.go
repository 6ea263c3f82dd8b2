// postgres/postgres.go
package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Config struct {
	DBHost     string `json:"host" yaml:"host" env:"VINABOOK_PG_HOST"`
	DBPort     string `json:"port" yaml:"port" env:"VINABOOK_PG_PORT"`
	DBUser     string `json:"user" yaml:"user" env:"VINABOOK_PG_USER"`
	DBPassword string `json:"password" yaml:"password" env:"VINABOOK_PG_PASSWORD"`
	DBName     string `json:"dbname" yaml:"dbname" env:"VINABOOK_PG_DBNAME"`
	SSLMode    string `json:"sslmode" yaml:"sslmode" env:"VINABOOK_PG_SSLMODE"`
}

func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost,
		c.DBPort,
		c.DBUser,
		c.DBPassword,
		c.DBName,
		c.SSLMode,
	)
}

type DB struct {
	*sqlx.DB
	cfg Config
}

// NewDB prepares the pool; no connection is made until Start.
func NewDB(config Config) (*DB, error) {
	db, err := sqlx.Open("postgres", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	return &DB{
		cfg: config,
		DB:  db,
	}, nil
}

func (d *DB) Start(ctx context.Context) error {
	if err := d.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping postgres at %s:%s: %w", d.cfg.DBHost, d.cfg.DBPort, err)
	}

	return nil
}

func (d *DB) Stop(ctx context.Context) error {
	return d.DB.Close()
}
