package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
database:
  host: db.internal
  port: 5433
  user: lifecycle
  password: secret
  database: rides
rabbitmq:
  user: guest
  password: guest
redis:
  host: cache.internal
service:
  port: 4000
  max_concurrent: 32
jwt:
  secret_key: test-secret
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "rides", cfg.Database.Name)
	assert.Equal(t, "localhost", cfg.RabbitMQ.Host, "default applied")
	assert.Equal(t, 5672, cfg.RabbitMQ.Port, "default applied")
	assert.Equal(t, "cache.internal:6379", cfg.RedisAddr())
	assert.Equal(t, 4000, cfg.Service.Port)
	assert.Equal(t, 32, cfg.Service.MaxConcurrent)
	assert.Equal(t, "test-secret", cfg.JWT.SecretKey)
}

func TestLoadFromFileDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
database:
  user: lifecycle
  password: secret
  database: rides
rabbitmq:
  user: guest
  password: guest
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 3000, cfg.Service.Port)
	assert.Equal(t, 100, cfg.Service.MaxConcurrent)
	assert.NotEmpty(t, cfg.JWT.SecretKey, "secret is generated when absent")
}

func TestLoadFromFileMissingRequired(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
database:
  user: lifecycle
`)

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.password is required")
	assert.Contains(t, err.Error(), "rabbitmq.user is required")
}

func TestLoadFromFileBadYAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "database: [not: a: mapping")
	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadFromFileMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
