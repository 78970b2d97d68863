package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_MODE", "dev")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsDev())
	assert.Equal(t, "http://localhost:8080/api", cfg.API.BaseURL)
	assert.Equal(t, SessionStoreMemory, cfg.Session.Store)
	assert.Equal(t, PolicyLogout, cfg.Unauthorized)
	assert.Equal(t, time.Minute, cfg.Query.TTL)
	assert.Equal(t, "fsid", cfg.Cookie.Name)
	assert.False(t, cfg.CSRFEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_MODE", "prod")
	t.Setenv("API_BASE_URL", "https://api.finspark.io/api/")
	t.Setenv("SESSION_STORE", "Redis")
	t.Setenv("UNAUTHORIZED_POLICY", "manual")
	t.Setenv("QUERY_TTL", "30s")
	t.Setenv("PROD_DB_NAME", "sessions")
	t.Setenv("PROD_COOKIE_SECURE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProd())
	assert.Equal(t, "https://api.finspark.io/api", cfg.API.BaseURL)
	assert.Equal(t, SessionStoreRedis, cfg.Session.Store)
	assert.Equal(t, PolicyManual, cfg.Unauthorized)
	assert.Equal(t, 30*time.Second, cfg.Query.TTL)
	assert.Equal(t, "sessions", cfg.Database.DBName)
	assert.True(t, cfg.Cookie.Secure)
	assert.True(t, cfg.CSRFEnabled, "csrf defaults on in prod")
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("mode", func(t *testing.T) {
		t.Setenv("APP_MODE", "staging")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("session store", func(t *testing.T) {
		t.Setenv("APP_MODE", "dev")
		t.Setenv("SESSION_STORE", "postgres")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("policy", func(t *testing.T) {
		t.Setenv("APP_MODE", "dev")
		t.Setenv("UNAUTHORIZED_POLICY", "ignore")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestGetDuration_BadInputFallsBack(t *testing.T) {
	t.Setenv("QUERY_TTL", "soon")
	assert.Equal(t, time.Minute, getDuration("QUERY_TTL", time.Minute))
}

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN(DatabaseConfig{Host: "db", Port: "3306", User: "u", Password: "p", DBName: "s"})
	assert.Equal(t, "u:p@tcp(db:3306)/s?charset=utf8mb4&parseTime=True&loc=Local", dsn)
}
