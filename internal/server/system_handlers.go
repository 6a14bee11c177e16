package server

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/scorecard/internal/modules/snapshot"
	"github.com/aristath/scorecard/internal/scheduler"
	"github.com/aristath/scorecard/pkg/respond"
)

// databaseCheckTimeout bounds the status ping
const databaseCheckTimeout = 2 * time.Second

// DatabaseStatus reports the reachability of the snapshot database
type DatabaseStatus struct {
	Name    string `json:"name" msgpack:"name"`
	Healthy bool   `json:"healthy" msgpack:"healthy"`
	Error   string `json:"error,omitempty" msgpack:"error,omitempty"`
}

// SystemStatusResponse is the payload of GET /api/system/status
type SystemStatusResponse struct {
	Status        string                `json:"status" msgpack:"status"`
	Version       string                `json:"version" msgpack:"version"`
	UptimeSeconds int64                 `json:"uptime_seconds" msgpack:"uptime_seconds"`
	CPUPercent    float64               `json:"cpu_percent" msgpack:"cpu_percent"`
	RAMPercent    float64               `json:"ram_percent" msgpack:"ram_percent"`
	Goroutines    int                   `json:"goroutines" msgpack:"goroutines"`
	Snapshot      snapshot.Status       `json:"snapshot" msgpack:"snapshot"`
	Database      *DatabaseStatus       `json:"database,omitempty" msgpack:"database,omitempty"`
	Jobs          []scheduler.JobStatus `json:"jobs" msgpack:"jobs"`
}

// SystemHandlers handles system-wide monitoring and operations
type SystemHandlers struct {
	log       zerolog.Logger
	store     SnapshotStore
	jobs      JobLister
	db        DatabaseChecker
	startedAt time.Time
	stats     func() (float64, float64)
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, store SnapshotStore, jobs JobLister, db DatabaseChecker) *SystemHandlers {
	h := &SystemHandlers{
		log:       log.With().Str("service", "system").Logger(),
		store:     store,
		jobs:      jobs,
		db:        db,
		startedAt: time.Now(),
	}
	h.stats = h.getSystemStats
	return h
}

// HandleSystemStatus returns process, snapshot and job status
// GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	cpuPercent, ramPercent := h.stats()
	st := h.store.Status()

	status := "healthy"
	if !st.Loaded {
		status = "degraded"
	}

	jobs := []scheduler.JobStatus{}
	if h.jobs != nil {
		jobs = h.jobs.Status()
	}

	dbStatus := h.checkDatabase(r.Context())
	if dbStatus != nil && !dbStatus.Healthy {
		status = "degraded"
	}

	h.writeJSON(w, r, http.StatusOK, SystemStatusResponse{
		Status:        status,
		Version:       Version,
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		CPUPercent:    cpuPercent,
		RAMPercent:    ramPercent,
		Goroutines:    runtime.NumGoroutine(),
		Snapshot:      st,
		Database:      dbStatus,
		Jobs:          jobs,
	})
}

// HandleSnapshotStatus returns the state of the snapshot store
// GET /api/snapshot/status
func (h *SystemHandlers) HandleSnapshotStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, h.store.Status())
}

// HandleSnapshotReload reloads the snapshot from its source
// POST /api/snapshot/reload
func (h *SystemHandlers) HandleSnapshotReload(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.Reload(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Manual snapshot reload failed")
		if werr := respond.Error(w, r, http.StatusBadGateway, err.Error()); werr != nil {
			h.log.Error().Err(werr).Msg("Failed to encode error response")
		}
		return
	}

	h.writeJSON(w, r, http.StatusOK, h.store.Status())
}

// checkDatabase pings the snapshot database; nil when there is none
func (h *SystemHandlers) checkDatabase(ctx context.Context) *DatabaseStatus {
	if h.db == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, databaseCheckTimeout)
	defer cancel()

	st := &DatabaseStatus{Name: h.db.Name(), Healthy: true}
	if err := h.db.QuickCheck(ctx); err != nil {
		h.log.Warn().Err(err).Str("database", st.Name).Msg("Database health check failed")
		st.Healthy = false
		st.Error = err.Error()
	}
	return st
}

// getSystemStats calculates CPU and RAM usage percentages
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	// 100ms sample keeps the endpoint responsive
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if err := respond.Write(w, r, status, data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
