// Package di wires the snapshot source, store, dashboard service and
// scheduler from configuration.
package di

import (
	"github.com/aristath/scorecard/internal/database"
	"github.com/aristath/scorecard/internal/modules/dashboard"
	"github.com/aristath/scorecard/internal/modules/snapshot"
	"github.com/aristath/scorecard/internal/scheduler"
)

// Container holds all application dependencies
type Container struct {
	// SourceDB is the read-only snapshot database, nil unless the source is sqlite
	SourceDB *database.DB

	Source    snapshot.Source
	Store     *snapshot.Store
	Service   *dashboard.Service
	Scheduler *scheduler.Scheduler // nil until RegisterJobs runs
}

// JobInstances holds the registered jobs for manual triggering.
// A nil field means the job is not scheduled.
type JobInstances struct {
	SnapshotReload *snapshot.ReloadJob
	CheckDatabase  *scheduler.CheckDatabaseJob
}

// Close releases resources held by the container
func (c *Container) Close() error {
	if c.SourceDB != nil {
		return c.SourceDB.Close()
	}
	return nil
}
