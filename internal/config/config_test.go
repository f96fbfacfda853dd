package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg := Load()
	assert.Equal(t, StorageMemory, cfg.StorageBackend)
	assert.Equal(t, "kv_entries", cfg.KVTable)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.JWT.PrivPath)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "Postgres")
	t.Setenv("POSTGRES_DSN", "postgres://u:p@db/squadhub")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("JWT_TTL", "90m")
	t.Setenv("PAYMENT_BUSINESS", "billing@squadhub.io")

	cfg := Load()
	assert.Equal(t, StoragePostgres, cfg.StorageBackend)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 90*time.Minute, cfg.JWT.TTL)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cfg := AppConfig{StorageBackend: StoragePostgres, PaymentBusiness: "b@x.io"}
	assert.Error(t, cfg.Validate())

	cfg.StorageBackend = "etcd"
	assert.Error(t, cfg.Validate())

	cfg = AppConfig{StorageBackend: StorageMemory}
	assert.Error(t, cfg.Validate())

	cfg.PaymentBusiness = "b@x.io"
	assert.NoError(t, cfg.Validate())
}
