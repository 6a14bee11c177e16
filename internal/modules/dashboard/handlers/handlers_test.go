package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/scorecard/internal/modules/clustering"
	"github.com/aristath/scorecard/internal/modules/dashboard"
	"github.com/aristath/scorecard/internal/modules/scoring/domain"
	"github.com/aristath/scorecard/internal/modules/snapshot"
	testingpkg "github.com/aristath/scorecard/internal/testing"
	"github.com/aristath/scorecard/pkg/respond"
)

type stubSnapshots struct {
	snap snapshot.Snapshot
	err  error
}

func (s *stubSnapshots) Current() (snapshot.Snapshot, error) {
	return s.snap, s.err
}

func newTestRouter(provider SnapshotProvider) http.Handler {
	service := dashboard.NewService(clustering.DefaultParams(), 10, zerolog.Nop())
	h := NewHandlers(service, provider, zerolog.Nop())

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		h.RegisterRoutes(r)
	})
	return r
}

func loadedSnapshots(records []domain.RawRecord) *stubSnapshots {
	return &stubSnapshots{snap: snapshot.Snapshot{
		Records:  records,
		LoadedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Source:   "mock",
	}}
}

func get(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body respond.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestHandleGetDashboard(t *testing.T) {
	router := newTestRouter(loadedSnapshots(testingpkg.NewConstituentFixtures()))

	w := get(t, router, "/api/dashboard/?sector=technology&metric=size&top=3")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, respond.ContentTypeJSON, w.Header().Get("Content-Type"))

	var view dashboard.View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "Technology", view.Sector)
	assert.Equal(t, domain.MetricSize, view.Metric)
	assert.Equal(t, 3, view.TopN)
	assert.Len(t, view.Radar, 3)
	assert.Equal(t, "AAPL", view.Radar[0].Ticker)
	assert.Equal(t, view.Summary.Records, len(view.Table))
	assert.True(t, view.Clusters.Available)
}

func TestHandleGetSectors(t *testing.T) {
	router := newTestRouter(loadedSnapshots(testingpkg.NewConstituentFixtures()))

	w := get(t, router, "/api/dashboard/sectors")

	require.Equal(t, http.StatusOK, w.Code)
	var body SectorsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, dashboard.AllSectors, body.Sectors[0])
	assert.Contains(t, body.Sectors, "Consumer Staples")
	assert.Equal(t, domain.Metrics, body.Metrics)
}

func TestHandleGetScores_UndefinedValuesAreNull(t *testing.T) {
	router := newTestRouter(loadedSnapshots(testingpkg.NewLossMakerFixtures()))

	w := get(t, router, "/api/dashboard/scores")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pe":null`)

	var table dashboard.Table
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &table))
	require.Len(t, table.Rows, 3)
	for _, row := range table.Rows {
		if row.Ticker == "RIVN" {
			assert.Nil(t, row.PE)
			assert.Equal(t, 0.0, row.Pricing)
		}
	}
}

func TestHandleGetRanking_Msgpack(t *testing.T) {
	router := newTestRouter(loadedSnapshots(testingpkg.NewConstituentFixtures()))

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/ranking?metric=Income&top=5", nil)
	req.Header.Set("Accept", respond.ContentTypeMsgpack)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, respond.ContentTypeMsgpack, w.Header().Get("Content-Type"))

	var ranked dashboard.Ranking
	require.NoError(t, msgpack.Unmarshal(w.Body.Bytes(), &ranked))
	assert.Equal(t, domain.MetricIncome, ranked.Metric)
	assert.Equal(t, 5, ranked.TopN)
	require.Len(t, ranked.Radar, 5)
	for i := 1; i < len(ranked.Radar); i++ {
		assert.GreaterOrEqual(t, *ranked.Radar[i-1].Value, *ranked.Radar[i].Value)
	}
}

func TestHandleGetClusters(t *testing.T) {
	router := newTestRouter(loadedSnapshots(testingpkg.NewConstituentFixtures()))

	w := get(t, router, "/api/dashboard/clusters?eps=0.5&min_samples=2")

	require.Equal(t, http.StatusOK, w.Code)
	var view dashboard.ClusterView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.True(t, view.Available)
	assert.Equal(t, clustering.Params{Eps: 0.5, MinSamples: 2}, view.Params)
	assert.Len(t, view.Points, len(testingpkg.NewConstituentFixtures()))
}

func TestHandleGetClusters_InsufficientData(t *testing.T) {
	records := testingpkg.NewConstituentFixtures()[:1]
	router := newTestRouter(loadedSnapshots(records))

	w := get(t, router, "/api/dashboard/clusters")

	require.Equal(t, http.StatusOK, w.Code)
	var view dashboard.ClusterView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.False(t, view.Available)
	assert.NotEmpty(t, view.Reason)
	assert.Empty(t, view.Points)
}

func TestHandlers_BadRequests(t *testing.T) {
	router := newTestRouter(loadedSnapshots(testingpkg.NewConstituentFixtures()))

	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"unknown metric", "/api/dashboard/?metric=beta", "unknown scoring metric"},
		{"unknown sector", "/api/dashboard/scores?sector=Energy", "unknown sector"},
		{"non-numeric top", "/api/dashboard/ranking?top=ten", "top must be an integer"},
		{"non-numeric eps", "/api/dashboard/clusters?eps=wide", "eps must be a number"},
		{"zero eps", "/api/dashboard/clusters?eps=0", "eps must be positive"},
		{"negative eps", "/api/dashboard/clusters?eps=-0.2", "invalid clustering parameters"},
		{"zero min_samples", "/api/dashboard/clusters?min_samples=0", "min_samples must be at least 1"},
		{"non-numeric min_samples", "/api/dashboard/clusters?min_samples=x", "min_samples must be an integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, router, tt.target)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decodeError(t, w), tt.want)
		})
	}
}

func TestHandlers_NoSnapshot(t *testing.T) {
	router := newTestRouter(&stubSnapshots{err: snapshot.ErrNoSnapshot})

	for _, target := range []string{
		"/api/dashboard/",
		"/api/dashboard/sectors",
		"/api/dashboard/scores",
		"/api/dashboard/ranking",
		"/api/dashboard/clusters",
	} {
		t.Run(target, func(t *testing.T) {
			w := get(t, router, target)
			assert.Equal(t, http.StatusServiceUnavailable, w.Code)
			assert.Equal(t, snapshot.ErrNoSnapshot.Error(), decodeError(t, w))
		})
	}
}

func TestHandlers_EmptySnapshot(t *testing.T) {
	router := newTestRouter(loadedSnapshots([]domain.RawRecord{}))

	w := get(t, router, "/api/dashboard/")

	require.Equal(t, http.StatusOK, w.Code)
	var view dashboard.View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Empty(t, view.Table)
	assert.Empty(t, view.Radar)
	assert.False(t, view.Clusters.Available)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(snapshot.ErrNoSnapshot))
	assert.Equal(t, http.StatusBadRequest, statusFor(domain.ErrUnknownMetric))
	assert.Equal(t, http.StatusBadRequest, statusFor(dashboard.ErrUnknownSector))
	assert.Equal(t, http.StatusBadRequest, statusFor(clustering.ErrInvalidParams))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
