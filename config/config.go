package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Dmitrij-bot/vinabook/internal/client"
	"github.com/Dmitrij-bot/vinabook/internal/grpc"
	"github.com/Dmitrij-bot/vinabook/pkg/kafkaSender"
	"github.com/Dmitrij-bot/vinabook/pkg/logger"
	"github.com/Dmitrij-bot/vinabook/pkg/postgres"
	"github.com/Dmitrij-bot/vinabook/pkg/redis"
	"github.com/Dmitrij-bot/vinabook/pkg/sqlite"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type Config struct {
	API      client.Config      `json:"api" yaml:"api"`
	Storage  Storage            `json:"storage" yaml:"storage"`
	Kafka    kafkaSender.Config `json:"kafka" yaml:"kafka"`
	GRPC     grpc.Config        `json:"grpc" yaml:"grpc"`
	Metrics  Metrics            `json:"metrics" yaml:"metrics"`
	Sync     Sync               `json:"sync" yaml:"sync"`
	Log      logger.Config      `json:"log" yaml:"log"`
}

// Storage selects where the token and user record are kept.
type Storage struct {
	Driver   string          `json:"driver" yaml:"driver" env:"VINABOOK_STORAGE_DRIVER"`
	SQLite   sqlite.Config   `json:"sqlite" yaml:"sqlite"`
	Postgres postgres.Config `json:"postgres" yaml:"postgres"`
	Redis    redis.Config    `json:"redis" yaml:"redis"`
}

type Metrics struct {
	Addr string `json:"addr" yaml:"addr" env:"VINABOOK_METRICS_ADDR"`
}

type Sync struct {
	Schedule string `json:"schedule" yaml:"schedule" env:"VINABOOK_SYNC_SCHEDULE"`
}

func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	return Config{
		API: client.Config{
			BaseURL: client.DefaultBaseURL,
			Timeout: 30 * time.Second,
			Burst:   1,
		},
		Storage: Storage{
			Driver: DriverSQLite,
			SQLite: sqlite.Config{Path: filepath.Join(home, ".vinabook", "session.db")},
			Postgres: postgres.Config{
				DBHost:  "localhost",
				DBPort:  "5432",
				DBUser:  "postgres",
				DBName:  "vinabook",
				SSLMode: "disable",
			},
			Redis: redis.Config{Host: "localhost", Port: "6379"},
		},
		Kafka: kafkaSender.Config{
			Topic:  "vinabook.orders",
			Period: 5 * time.Second,
		},
		GRPC:    grpc.Config{Host: ":50051"},
		Metrics: Metrics{Addr: ":9090"},
		Sync:    Sync{Schedule: "@every 1m"},
		Log: logger.Config{
			Service: "vinabook",
			Env:     "dev",
			Level:   "info",
			Format:  "json",
		},
	}
}

// Load starts from Default, applies the file at path when given, then a
// .env file in the working directory if present, then VINABOOK_* variables.
// JSON files are read by the YAML decoder, so durations may be written as
// "30s" in either format.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to decode config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return cfg, fmt.Errorf("failed to decode environment: %w", err)
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverSQLite, DriverPostgres, DriverRedis:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.API.BaseURL == "" {
		return errors.New("api base url is required")
	}

	return nil
}
