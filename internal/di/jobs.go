package di

import (
	"fmt"
	"time"

	"github.com/aristath/predictions-dashboard/internal/clientdata"
	"github.com/aristath/predictions-dashboard/internal/config"
	"github.com/aristath/predictions-dashboard/internal/database"
	"github.com/aristath/predictions-dashboard/internal/modules/markets"
	"github.com/aristath/predictions-dashboard/internal/modules/portfolio"
	"github.com/aristath/predictions-dashboard/internal/reliability"
	"github.com/aristath/predictions-dashboard/internal/scheduler"
	"github.com/rs/zerolog"
)

// Fixed schedules of the maintenance jobs
const (
	cleanupSchedule     = "@hourly"
	sweepSchedule       = "@every 10m"
	maintenanceSchedule = "0 30 3 * * *"
)

type registration struct {
	schedule string
	job      scheduler.Job
}

// RegisterJobs creates the background jobs and registers them with a new scheduler
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	sched := scheduler.New(log)
	instances := &JobInstances{
		PriceRefresh:      markets.NewRefreshJob(container.Board, container.EventManager, 15*time.Second, log),
		ClientDataCleanup: clientdata.NewCleanupJob(container.ClientDataRepo, log),
		SessionSweep:      portfolio.NewSweepJob(container.Sessions, cfg.SessionIdleTimeout, log),
		Maintenance: reliability.NewMaintenanceJob(
			[]*database.DB{container.PortfolioDB, container.ClientDataDB},
			cfg.DataDir,
			log,
		),
	}

	registrations := []registration{
		{cfg.PriceRefreshSchedule, instances.PriceRefresh},
		{cleanupSchedule, instances.ClientDataCleanup},
		{sweepSchedule, instances.SessionSweep},
		{maintenanceSchedule, instances.Maintenance},
	}

	if container.BackupService != nil {
		instances.Backup = reliability.NewBackupJob(container.BackupService, cfg.Backup.RetentionDays, 0, log)
		registrations = append(registrations, registration{cfg.Backup.Schedule, instances.Backup})
	}

	for _, r := range registrations {
		if err := sched.AddJob(r.schedule, r.job); err != nil {
			return nil, err
		}
	}

	container.Scheduler = sched
	return instances, nil
}
