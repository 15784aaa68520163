package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "DB_DRIVER", "DB_DSN", "REDIS_ADDR", "REDIS_DB", "ADMIN_USERNAME", "ADMIN_PASSWORD", "RESET_DB"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "data/estoque.db", cfg.DBDSN)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, "admin", cfg.AdminUsername)
	assert.Equal(t, "123", cfg.AdminPassword)
	assert.False(t, cfg.ResetDB)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("RESET_DB", "true")

	cfg := Load()

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.True(t, cfg.ResetDB)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("RESET_DB", "maybe")

	cfg := Load()

	assert.Equal(t, 0, cfg.RedisDB)
	assert.False(t, cfg.ResetDB)
}
