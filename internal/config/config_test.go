package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err, "a missing file falls back to defaults")

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "unifed", cfg.Postgres.DBName)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, []string{"http://localhost:9200"}, cfg.Elastic.Addresses)
	assert.Equal(t, 600, cfg.Generator.Students)
	assert.Equal(t, 0.6, cfg.Generator.PresenceProbability)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: "9090"
postgres:
  dbname: campus
generator:
  students: 25
  presence_probability: 0.3
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "campus", cfg.Postgres.DBName)
	assert.Equal(t, 25, cfg.Generator.Students)
	assert.Equal(t, 0.3, cfg.Generator.PresenceProbability)
	// Untouched sections keep their defaults.
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("ELASTIC_ADDRESSES", "http://es1:9200, http://es2:9200")
	t.Setenv("GENERATOR_PRESENCE_PROBABILITY", "0.9")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Postgres.Host)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, []string{"http://es1:9200", "http://es2:9200"}, cfg.Elastic.Addresses)
	assert.Equal(t, 0.9, cfg.Generator.PresenceProbability)
}

func TestLoadConfigRejectsBadProbability(t *testing.T) {
	t.Setenv("GENERATOR_PRESENCE_PROBABILITY", "1.5")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "presence probability")
}

func TestGetPostgresConnectionString(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	cfg.Postgres.User = "app"
	cfg.Postgres.Password = "secret"
	cfg.Postgres.Host = "db"
	cfg.Postgres.Port = "5433"
	cfg.Postgres.DBName = "campus"

	assert.Equal(t, "postgres://app:secret@db:5433/campus?sslmode=disable", cfg.GetPostgresConnectionString())
}
