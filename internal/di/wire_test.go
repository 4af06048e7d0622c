package di

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aristath/predictions-dashboard/internal/config"
	"github.com/aristath/predictions-dashboard/internal/kvstore"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataDir:              t.TempDir(),
		Port:                 8080,
		StartingBalance:      1000,
		StorageNamespace:     "predictions-dashboard",
		StorageBackend:       config.StorageSQLite,
		SessionIdleTimeout:   time.Hour,
		GammaBaseURL:         "http://127.0.0.1:1",
		EventsQuery:          config.DefaultEventsQuery,
		PriceRefreshSchedule: "@every 30s",
		Backup:               &config.BackupConfig{},
	}
}

func TestInitializeDatabases(t *testing.T) {
	cfg := testConfig(t)

	container, err := InitializeDatabases(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	assert.NotNil(t, container.PortfolioDB)
	assert.NotNil(t, container.ClientDataDB)
	assert.FileExists(t, filepath.Join(cfg.DataDir, "portfolio.db"))
	assert.FileExists(t, filepath.Join(cfg.DataDir, "client_data.db"))
}

func TestInitializeDatabases_InvalidPath(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(cfg.DataDir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	cfg.DataDir = blocker

	_, err := InitializeDatabases(cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestWire(t *testing.T) {
	cfg := testConfig(t)

	container, jobs, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	assert.IsType(t, &kvstore.SQLiteStore{}, container.KVStore)
	assert.NotNil(t, container.Board)
	assert.NotNil(t, container.Sessions)
	assert.NotNil(t, container.EventManager)
	assert.Nil(t, container.BackupService)

	assert.NotNil(t, jobs.PriceRefresh)
	assert.NotNil(t, jobs.SessionSweep)
	assert.Nil(t, jobs.Backup)
	assert.Equal(t, []string{"client_data_cleanup", "database_maintenance", "price_refresh", "session_sweep"}, container.Scheduler.Jobs())
}

func TestWire_MemoryBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.StorageBackend = config.StorageMemory

	container, _, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	assert.IsType(t, &kvstore.MemoryStore{}, container.KVStore)
}

func TestWire_BackupsSkippedForMemoryBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.StorageBackend = config.StorageMemory
	cfg.Backup = &config.BackupConfig{Enabled: true, Bucket: "b", Schedule: "@daily"}

	container, jobs, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	assert.Nil(t, container.BackupService)
	assert.Nil(t, jobs.Backup)
}

func TestWire_BadSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.PriceRefreshSchedule = "whenever"

	_, _, err := Wire(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestContainerCloseNil(t *testing.T) {
	var container *Container
	assert.NotPanics(t, container.Close)
	assert.NotPanics(t, (&Container{}).Close)
}
