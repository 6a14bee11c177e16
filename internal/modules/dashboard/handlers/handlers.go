// Package handlers provides HTTP handlers for the dashboard API.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/scorecard/internal/modules/clustering"
	"github.com/aristath/scorecard/internal/modules/dashboard"
	"github.com/aristath/scorecard/internal/modules/scoring/domain"
	"github.com/aristath/scorecard/internal/modules/snapshot"
	"github.com/aristath/scorecard/pkg/respond"
)

// errBadParameter marks malformed query parameters
var errBadParameter = errors.New("bad parameter")

// SnapshotProvider returns the snapshot to serve
type SnapshotProvider interface {
	Current() (snapshot.Snapshot, error)
}

// Handlers provides HTTP handlers for the dashboard module
type Handlers struct {
	service   *dashboard.Service
	snapshots SnapshotProvider
	log       zerolog.Logger
}

// NewHandlers creates a new dashboard handlers instance
func NewHandlers(service *dashboard.Service, snapshots SnapshotProvider, log zerolog.Logger) *Handlers {
	return &Handlers{
		service:   service,
		snapshots: snapshots,
		log:       log.With().Str("module", "dashboard_handlers").Logger(),
	}
}

// SectorsResponse lists the selectable sectors and metrics
type SectorsResponse struct {
	Sectors []string        `json:"sectors" msgpack:"sectors"`
	Metrics []domain.Metric `json:"metrics" msgpack:"metrics"`
}

// HandleGetSectors handles GET /api/dashboard/sectors
func (h *Handlers) HandleGetSectors(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.current(w, r)
	if !ok {
		return
	}

	h.write(w, r, SectorsResponse{
		Sectors: dashboard.Sectors(snap.Records),
		Metrics: domain.Metrics,
	})
}

// HandleGetDashboard handles GET /api/dashboard
// Query: sector, metric, top, eps, min_samples
func (h *Handlers) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	snap, req, ok := h.prepare(w, r)
	if !ok {
		return
	}

	view, err := h.service.Build(snap.Records, req)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	h.write(w, r, view)
}

// HandleGetScores handles GET /api/dashboard/scores
func (h *Handlers) HandleGetScores(w http.ResponseWriter, r *http.Request) {
	snap, req, ok := h.prepare(w, r)
	if !ok {
		return
	}

	table, err := h.service.Table(snap.Records, req)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	h.write(w, r, table)
}

// HandleGetRanking handles GET /api/dashboard/ranking
func (h *Handlers) HandleGetRanking(w http.ResponseWriter, r *http.Request) {
	snap, req, ok := h.prepare(w, r)
	if !ok {
		return
	}

	ranked, err := h.service.Ranking(snap.Records, req)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	h.write(w, r, ranked)
}

// HandleGetClusters handles GET /api/dashboard/clusters
func (h *Handlers) HandleGetClusters(w http.ResponseWriter, r *http.Request) {
	snap, req, ok := h.prepare(w, r)
	if !ok {
		return
	}

	view, err := h.service.Clusters(snap.Records, req)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	h.write(w, r, view)
}

func (h *Handlers) current(w http.ResponseWriter, r *http.Request) (snapshot.Snapshot, bool) {
	snap, err := h.snapshots.Current()
	if err != nil {
		h.writeFailure(w, r, err)
		return snapshot.Snapshot{}, false
	}
	return snap, true
}

func (h *Handlers) prepare(w http.ResponseWriter, r *http.Request) (snapshot.Snapshot, dashboard.Request, bool) {
	req, err := parseRequest(r)
	if err != nil {
		h.writeFailure(w, r, err)
		return snapshot.Snapshot{}, dashboard.Request{}, false
	}

	snap, ok := h.current(w, r)
	if !ok {
		return snapshot.Snapshot{}, dashboard.Request{}, false
	}
	return snap, req, true
}

// parseRequest reads the selection from query parameters
func parseRequest(r *http.Request) (dashboard.Request, error) {
	q := r.URL.Query()
	req := dashboard.Request{
		Sector: q.Get("sector"),
		Metric: q.Get("metric"),
	}

	if v := strings.TrimSpace(q.Get("top")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("%w: top must be an integer, got %q", errBadParameter, v)
		}
		req.TopN = n
	}

	if v := strings.TrimSpace(q.Get("eps")); v != "" {
		eps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, fmt.Errorf("%w: eps must be a number, got %q", errBadParameter, v)
		}
		if eps == 0 {
			return req, fmt.Errorf("%w: eps must be positive", clustering.ErrInvalidParams)
		}
		req.Clustering.Eps = eps
	}

	if v := strings.TrimSpace(q.Get("min_samples")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("%w: min_samples must be an integer, got %q", errBadParameter, v)
		}
		if n == 0 {
			return req, fmt.Errorf("%w: min_samples must be at least 1", clustering.ErrInvalidParams)
		}
		req.Clustering.MinSamples = n
	}

	return req, nil
}

// statusFor maps pipeline errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, snapshot.ErrNoSnapshot):
		return http.StatusServiceUnavailable
	case errors.Is(err, errBadParameter),
		errors.Is(err, domain.ErrUnknownMetric),
		errors.Is(err, dashboard.ErrUnknownSector),
		errors.Is(err, clustering.ErrInvalidParams):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) write(w http.ResponseWriter, r *http.Request, data interface{}) {
	if err := respond.Write(w, r, http.StatusOK, data); err != nil {
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("Failed to encode response")
	}
}

func (h *Handlers) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("Dashboard request failed")
	} else {
		h.log.Debug().Err(err).Int("status", status).Str("path", r.URL.Path).Msg("Dashboard request rejected")
	}

	if werr := respond.Error(w, r, status, err.Error()); werr != nil {
		h.log.Error().Err(werr).Msg("Failed to encode error response")
	}
}
