package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/api/v1", cfg.API.BaseURL)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "@every 1m", cfg.Sync.Schedule)
	assert.Equal(t, ":50051", cfg.GRPC.Host)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "vinabook.yaml", `
api:
  base_url: https://shop.example.vn/api/v1
  timeout: 5s
storage:
  driver: postgres
  postgres:
    host: db
    dbname: shop
kafka:
  brokers: [kafka-1:9092, kafka-2:9092]
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example.vn/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "db", cfg.Storage.Postgres.DBHost)
	assert.Equal(t, "5432", cfg.Storage.Postgres.DBPort, "default kept")
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format, "default kept")
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "vinabook.json", `{
  "grpc": {"host": ":6000"},
  "storage": {"driver": "memory"},
  "kafka": {"period": "10s"}
}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":6000", cfg.GRPC.Host)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 10*time.Second, cfg.Kafka.Period)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "vinabook.yaml", "api:\n  base_url: http://from-file/api/v1\n")
	t.Setenv("VINABOOK_API_URL", "http://from-env/api/v1")
	t.Setenv("VINABOOK_STORAGE_DRIVER", "redis")
	t.Setenv("VINABOOK_REDIS_DB", "3")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://from-env/api/v1", cfg.API.BaseURL)
	assert.Equal(t, DriverRedis, cfg.Storage.Driver)
	assert.Equal(t, 3, cfg.Storage.Redis.DB)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "storage:\n  driver: mongodb\n"))
	assert.ErrorContains(t, err, "unknown storage driver")

	_, err = Load(writeFile(t, "broken.yaml", "api: [\n"))
	assert.ErrorContains(t, err, "failed to decode config")
}
