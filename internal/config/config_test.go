package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "dispersion-updates", cfg.KafkaTopic)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "dispersion.db", cfg.DatabasePath)
	assert.Equal(t, 30*time.Second, cfg.UpdateInterval)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 5*time.Second, cfg.WeatherTimeout)
	assert.Equal(t, 5*time.Second, cfg.ChemicalTimeout)
	assert.Equal(t, 24*time.Hour, cfg.ChemicalCacheTTL)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "custom-updates")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("DATABASE_PATH", "/var/lib/dispersion/state.db")
	t.Setenv("UPDATE_INTERVAL", "1m")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("WEATHER_BASE_URL", "http://localhost:8001/v1")
	t.Setenv("WEATHER_TIMEOUT", "10s")
	t.Setenv("CHEMICAL_CACHE_TTL", "1h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-updates", cfg.KafkaTopic)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "/var/lib/dispersion/state.db", cfg.DatabasePath)
	assert.Equal(t, time.Minute, cfg.UpdateInterval)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "http://localhost:8001/v1", cfg.WeatherBaseURL)
	assert.Equal(t, 10*time.Second, cfg.WeatherTimeout)
	assert.Equal(t, time.Hour, cfg.ChemicalCacheTTL)
}

func TestLoad_InvalidInterval(t *testing.T) {
	t.Setenv("UPDATE_INTERVAL", "0s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UPDATE_INTERVAL")
}
