package di

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/scorecard/internal/config"
	"github.com/aristath/scorecard/internal/modules/snapshot"
	"github.com/aristath/scorecard/internal/scheduler"
)

// Job timeouts
const (
	reloadTimeout    = 2 * time.Minute
	integrityTimeout = time.Minute
)

// RegisterJobs creates the scheduler and registers the configured jobs.
// The scheduler is not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil || container.Store == nil {
		return nil, fmt.Errorf("container must be initialized before registering jobs")
	}

	container.Scheduler = scheduler.New(log)
	instances := &JobInstances{}

	if cfg.ReloadSchedule != "" {
		job := snapshot.NewReloadJob(container.Store, reloadTimeout)
		if err := container.Scheduler.AddJob(cfg.ReloadSchedule, job); err != nil {
			return nil, err
		}
		instances.SnapshotReload = job
	}

	if container.SourceDB != nil && cfg.HealthSchedule != "" {
		job := scheduler.NewCheckDatabaseJob(container.SourceDB, integrityTimeout, log)
		if err := container.Scheduler.AddJob(cfg.HealthSchedule, job); err != nil {
			return nil, err
		}
		instances.CheckDatabase = job
	}

	return instances, nil
}
