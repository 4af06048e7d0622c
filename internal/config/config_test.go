package config

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")
	t.Setenv("DASHBOARD_DATA_DIR", dataDir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 1000.0, cfg.StartingBalance)
	assert.Equal(t, "predictions-dashboard", cfg.StorageNamespace)
	assert.Equal(t, StorageSQLite, cfg.StorageBackend)
	assert.Equal(t, 600*time.Millisecond, cfg.OrderPlacementDelay)
	assert.Equal(t, DefaultEventsQuery, cfg.EventsQuery)
	assert.Equal(t, "@every 30s", cfg.PriceRefreshSchedule)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.Backup.Enabled)
	assert.DirExists(t, dataDir)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DASHBOARD_DATA_DIR", t.TempDir())
	t.Setenv("GO_PORT", "9090")
	t.Setenv("STARTING_BALANCE", "250.5")
	t.Setenv("ORDER_PLACEMENT_DELAY", "0s")
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://dash.example, http://localhost:5173")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 250.5, cfg.StartingBalance)
	assert.Equal(t, time.Duration(0), cfg.OrderPlacementDelay)
	assert.Equal(t, StorageMemory, cfg.StorageBackend)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, []string{"https://dash.example", "http://localhost:5173"}, cfg.CORSAllowedOrigins)
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("DASHBOARD_DATA_DIR", t.TempDir())
	t.Setenv("GO_PORT", "not-a-port")
	t.Setenv("ORDER_PLACEMENT_DELAY", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 600*time.Millisecond, cfg.OrderPlacementDelay)
}

func TestLoad_RejectsNonFiniteStartingBalance(t *testing.T) {
	for _, value := range []string{"NaN", "+Inf"} {
		t.Run(value, func(t *testing.T) {
			t.Setenv("DASHBOARD_DATA_DIR", t.TempDir())
			t.Setenv("STARTING_BALANCE", value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "starting balance")
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:             8080,
			StartingBalance:  1000,
			StorageBackend:   StorageSQLite,
			StorageNamespace: "predictions-dashboard",
			Backup:           &BackupConfig{},
		}
	}

	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"zero balance", func(c *Config) { c.StartingBalance = 0 }, "starting balance"},
		{"NaN balance", func(c *Config) { c.StartingBalance = math.NaN() }, "starting balance"},
		{"infinite balance", func(c *Config) { c.StartingBalance = math.Inf(1) }, "starting balance"},
		{"bad port", func(c *Config) { c.Port = 70000 }, "invalid port"},
		{"unknown backend", func(c *Config) { c.StorageBackend = "redis" }, "unknown storage backend"},
		{"postgres without url", func(c *Config) { c.StorageBackend = StoragePostgres }, "POSTGRES_URL"},
		{"negative delay", func(c *Config) { c.OrderPlacementDelay = -time.Second }, "negative"},
		{"backup without bucket", func(c *Config) { c.Backup.Enabled = true }, "BACKUP_BUCKET"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
