package di

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/aristath/predictions-dashboard/internal/clientdata"
	"github.com/aristath/predictions-dashboard/internal/clients/gamma"
	"github.com/aristath/predictions-dashboard/internal/config"
	"github.com/aristath/predictions-dashboard/internal/database"
	"github.com/aristath/predictions-dashboard/internal/events"
	"github.com/aristath/predictions-dashboard/internal/kvstore"
	"github.com/aristath/predictions-dashboard/internal/modules/markets"
	"github.com/aristath/predictions-dashboard/internal/modules/portfolio"
	"github.com/aristath/predictions-dashboard/internal/reliability"
	"github.com/rs/zerolog"
)

// InitializeServices creates storage, clients and services on top of the databases
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	if err := initializeStorage(ctx, container, cfg, log); err != nil {
		return err
	}

	container.EventBus = events.NewBus()
	container.EventManager = events.NewManager(container.EventBus, log)

	container.ClientDataRepo = clientdata.NewRepository(container.ClientDataDB.Conn())
	container.GammaClient = gamma.NewClient(cfg.GammaBaseURL, container.ClientDataRepo, log)
	container.Board = markets.NewBoard(container.GammaClient, cfg.EventsQuery, log)

	container.PortfolioStore = portfolio.NewStore(container.KVStore, cfg.StorageNamespace, cfg.StartingBalance, log)
	container.Accounts = portfolio.NewAccounts(container.PortfolioStore, container.EventManager, log)
	container.Sessions = portfolio.NewSessions(container.Accounts, container.EventManager, cfg.OrderPlacementDelay, log)

	if err := initializeBackups(ctx, container, cfg, log); err != nil {
		return err
	}

	log.Info().Str("storage_backend", cfg.StorageBackend).Msg("Services initialized")
	return nil
}

func initializeStorage(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	switch cfg.StorageBackend {
	case config.StorageMemory:
		container.KVStore = kvstore.NewMemoryStore()
	case config.StoragePostgres:
		store, err := kvstore.ConnectPostgres(ctx, cfg.PostgresURL, log)
		if err != nil {
			return fmt.Errorf("failed to connect portfolio storage: %w", err)
		}
		container.PostgresStore = store
		container.KVStore = store
	default:
		container.KVStore = kvstore.NewSQLiteStore(container.PortfolioDB, log)
	}
	return nil
}

func initializeBackups(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	if cfg.Backup == nil || !cfg.Backup.Enabled {
		return nil
	}
	if cfg.StorageBackend != config.StorageSQLite {
		log.Warn().
			Str("storage_backend", cfg.StorageBackend).
			Msg("Backups only cover the sqlite backend, skipping")
		return nil
	}

	client, err := reliability.NewS3Client(ctx, reliability.S3Config{
		Bucket:          cfg.Backup.Bucket,
		Endpoint:        cfg.Backup.Endpoint,
		Region:          cfg.Backup.Region,
		AccessKeyID:     cfg.Backup.AccessKeyID,
		SecretAccessKey: cfg.Backup.SecretAccessKey,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create backup client: %w", err)
	}

	container.S3Client = client
	container.BackupService = reliability.NewBackupService(
		client,
		[]*database.DB{container.PortfolioDB},
		filepath.Join(cfg.DataDir, "backup-staging"),
		log,
	)
	return nil
}
