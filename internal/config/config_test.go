package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "appraise.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 24, cfg.Valuation.CacheTTLHours)
	assert.Equal(t, 15, cfg.Valuation.FetchTimeoutSecs)
	assert.Equal(t, "https://www.pricecharting.com/api", cfg.PriceCharting.BaseURL)
	assert.Equal(t, "https://api.ebay.com/buy/browse/v1", cfg.Ebay.BaseURL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APPRAISE_STORE_DRIVER", "postgres")
	t.Setenv("APPRAISE_STORE_DATABASE_URL", "postgres://localhost/appraise")
	t.Setenv("APPRAISE_VALUATION_CACHE_TTL_HOURS", "6")
	t.Setenv("APPRAISE_PRICECHARTING_TOKEN", "tok123")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/appraise", cfg.Store.DatabaseURL)
	assert.Equal(t, 6, cfg.Valuation.CacheTTLHours)
	assert.Equal(t, "tok123", cfg.PriceCharting.Token)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))

	err := InitLogger(LogConfig{Level: "not-a-level"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}
