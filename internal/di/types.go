// Package di provides dependency injection type definitions.
package di

import (
	"github.com/aristath/predictions-dashboard/internal/clientdata"
	"github.com/aristath/predictions-dashboard/internal/clients/gamma"
	"github.com/aristath/predictions-dashboard/internal/database"
	"github.com/aristath/predictions-dashboard/internal/domain"
	"github.com/aristath/predictions-dashboard/internal/events"
	"github.com/aristath/predictions-dashboard/internal/kvstore"
	"github.com/aristath/predictions-dashboard/internal/modules/markets"
	"github.com/aristath/predictions-dashboard/internal/modules/portfolio"
	"github.com/aristath/predictions-dashboard/internal/reliability"
	"github.com/aristath/predictions-dashboard/internal/scheduler"
)

// Container holds all dependencies for the application.
// It is created by Wire() and passed to the server for access to services.
type Container struct {
	// Databases
	PortfolioDB  *database.DB // Portfolio documents when the sqlite backend is selected
	ClientDataDB *database.DB // Cached upstream responses

	// Storage
	KVStore       domain.KeyValueStore   // Backend selected by STORAGE_BACKEND
	PostgresStore *kvstore.PostgresStore // Set only for the postgres backend

	// Clients
	ClientDataRepo *clientdata.Repository
	GammaClient    *gamma.Client

	// Events
	EventBus     *events.Bus
	EventManager *events.Manager

	// Market data
	Board *markets.Board

	// Portfolios and sessions
	PortfolioStore *portfolio.Store
	Accounts       *portfolio.Accounts
	Sessions       *portfolio.Sessions

	// Backups (optional)
	S3Client      *reliability.S3Client
	BackupService *reliability.BackupService

	Scheduler *scheduler.Scheduler
}

// JobInstances holds the registered jobs for manual triggering
type JobInstances struct {
	PriceRefresh      scheduler.Job
	ClientDataCleanup scheduler.Job
	SessionSweep      scheduler.Job
	Maintenance       scheduler.Job
	Backup            scheduler.Job // nil when backups are disabled
}

// Close releases every connection held by the container
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.PostgresStore != nil {
		c.PostgresStore.Close()
	}
	if c.PortfolioDB != nil {
		c.PortfolioDB.Close()
	}
	if c.ClientDataDB != nil {
		c.ClientDataDB.Close()
	}
}
