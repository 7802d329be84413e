package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	cfg := GetConfig()
	assert.Equal(t, "beaconly", cfg.AppName)
	assert.Equal(t, "3000", cfg.AppPort)
	assert.Equal(t, Development, cfg.Environment)
	assert.Equal(t, 8*time.Second, cfg.GetQueryTimeout())
	assert.Equal(t, 7*24*time.Hour, cfg.GetLoginSessionTimeout())
}

func TestEnvironmentOverrides(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	t.Setenv("BEACONLY_ENV", "test")
	t.Setenv("BEACONLY_APP_PORT", "8081")
	t.Setenv("BEACONLY_QUERY_TIMEOUT_SECONDS", "2")

	cfg := GetConfig()
	assert.Equal(t, "8081", cfg.AppPort)
	assert.True(t, cfg.IsTest())
	assert.Equal(t, 2*time.Second, cfg.GetQueryTimeout())

	// test environment pins the pool to a single connection
	assert.Equal(t, 1, cfg.GetMaxOpenConns())
	assert.Equal(t, 1, cfg.GetMaxIdleConns())
}

func TestDatabasePathDerivation(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	cfg := GetConfig()
	assert.Equal(t, "storage/beaconly-development.db", cfg.GetDatabasePath())
}
