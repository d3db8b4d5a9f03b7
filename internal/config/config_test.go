package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DB_PASSWORD", "test-password")

	path := writeConfigFile(t, `
app:
  name: user-registry
  port: "9090"
postgres:
  host: db.internal
  port: "5433"
  user: svc
  dbname: users
  sslmode: require
jwt:
  ttl: 1h
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "user-registry", cfg.App.Name)
	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, "db.internal", cfg.Postgres.Host)
	assert.Equal(t, "test-password", cfg.Postgres.Password)
	assert.Equal(t, "require", cfg.Postgres.SSLMode)
	assert.Equal(t, "test-secret", cfg.JWT.Secret)
	assert.Equal(t, time.Hour, cfg.JWT.TTL)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	path := writeConfigFile(t, `
postgres:
  host: localhost
  user: postgres
  dbname: users
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL, "token TTL defaults to 24h")
	assert.Equal(t, "disable", cfg.Postgres.SSLMode)
	assert.EqualValues(t, 10, cfg.Postgres.MaxConns)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	path := writeConfigFile(t, "app:\n  port: \"8080\"\n")

	_, err := Load(path)
	require.Error(t, err, "the signing secret must come from the environment")
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	path := writeConfigFile(t, "app: [not: valid")

	_, err := Load(path)
	require.Error(t, err)
}
