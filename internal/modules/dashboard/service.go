// Package dashboard assembles the scored, ranked and clustered views of a
// constituent snapshot for one sector and metric selection.
package dashboard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/scorecard/internal/modules/clustering"
	"github.com/aristath/scorecard/internal/modules/projection"
	"github.com/aristath/scorecard/internal/modules/ranking"
	"github.com/aristath/scorecard/internal/modules/scoring"
	"github.com/aristath/scorecard/internal/modules/scoring/domain"
	"github.com/aristath/scorecard/pkg/formulas"
)

// AllSectors selects the whole snapshot
const AllSectors = "All"

// ErrUnknownSector is returned when a sector filter matches no record
var ErrUnknownSector = errors.New("unknown sector")

// Request is one dashboard selection. Zero values select the defaults:
// all sectors, the Weight metric, the configured top-N and clustering
// parameters.
type Request struct {
	Sector     string
	Metric     string
	TopN       int
	Clustering clustering.Params
}

// Service runs the scoring pipeline over a working set
type Service struct {
	scorer *scoring.Scorer
	params clustering.Params
	topN   int
	log    zerolog.Logger
}

// NewService creates a dashboard service with default clustering params and
// top-N count
func NewService(params clustering.Params, topN int, log zerolog.Logger) *Service {
	return &Service{
		scorer: scoring.NewScorer(log),
		params: params,
		topN:   topN,
		log:    log.With().Str("service", "dashboard").Logger(),
	}
}

// Sectors returns "All" followed by the distinct sectors in the order they
// first appear
func Sectors(records []domain.RawRecord) []string {
	out := []string{AllSectors}
	seen := make(map[string]bool)
	for _, r := range records {
		if !seen[r.Sector] {
			seen[r.Sector] = true
			out = append(out, r.Sector)
		}
	}
	return out
}

// FilterSector returns the working set for a sector. "All" or an empty
// sector keeps every record; matching ignores case.
func FilterSector(records []domain.RawRecord, sector string) ([]domain.RawRecord, string, error) {
	sector = strings.TrimSpace(sector)
	if sector == "" || strings.EqualFold(sector, AllSectors) {
		return records, AllSectors, nil
	}

	var out []domain.RawRecord
	name := ""
	for _, r := range records {
		if strings.EqualFold(r.Sector, sector) {
			out = append(out, r)
			name = r.Sector
		}
	}
	if len(out) == 0 {
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownSector, sector)
	}
	return out, name, nil
}

// selection is a resolved Request
type selection struct {
	runID   string
	sector  string
	metric  domain.Metric
	topN    int
	params  clustering.Params
	working []domain.RawRecord
}

func (s *Service) resolve(records []domain.RawRecord, req Request) (selection, error) {
	metric, err := domain.ParseMetric(req.Metric)
	if err != nil {
		return selection{}, err
	}

	working, sector, err := FilterSector(records, req.Sector)
	if err != nil {
		return selection{}, err
	}

	params := s.params
	if req.Clustering.Eps != 0 {
		params.Eps = req.Clustering.Eps
	}
	if req.Clustering.MinSamples != 0 {
		params.MinSamples = req.Clustering.MinSamples
	}
	if err := params.Validate(); err != nil {
		return selection{}, err
	}

	requested := req.TopN
	if requested <= 0 {
		requested = s.topN
	}

	return selection{
		runID:   uuid.NewString(),
		sector:  sector,
		metric:  metric,
		topN:    ranking.TopN(requested, len(working)),
		params:  params,
		working: working,
	}, nil
}

// Build computes the complete view for a selection
func (s *Service) Build(records []domain.RawRecord, req Request) (View, error) {
	sel, err := s.resolve(records, req)
	if err != nil {
		return View{}, err
	}

	scored := s.scorer.Score(sel.working)

	clusters, err := s.clusterView(scored, sel)
	if err != nil {
		return View{}, err
	}

	view := View{
		Sector:   sel.sector,
		Metric:   sel.metric,
		Sectors:  Sectors(records),
		Metrics:  domain.Metrics,
		TopN:     sel.topN,
		Summary:  Summarize(sel.working),
		Radar:    radar(scored, sel),
		Table:    table(scored, sel.metric),
		Clusters: clusters,
	}

	s.log.Debug().
		Str("run_id", sel.runID).
		Str("sector", sel.sector).
		Str("metric", string(sel.metric)).
		Int("records", len(sel.working)).
		Int("clusters", clusters.NumClusters).
		Msg("Dashboard built")

	return view, nil
}

// Table scores the working set. Rows keep input order for Weight and are
// sorted by the metric, descending, otherwise.
func (s *Service) Table(records []domain.RawRecord, req Request) (Table, error) {
	sel, err := s.resolve(records, req)
	if err != nil {
		return Table{}, err
	}

	rows := table(s.scorer.Score(sel.working), sel.metric)
	s.log.Debug().Str("run_id", sel.runID).Int("rows", len(rows)).Msg("Score table built")

	return Table{Sector: sel.sector, Metric: sel.metric, Rows: rows}, nil
}

// Ranking returns score cards for the top records by metric
func (s *Service) Ranking(records []domain.RawRecord, req Request) (Ranking, error) {
	sel, err := s.resolve(records, req)
	if err != nil {
		return Ranking{}, err
	}

	entries := radar(s.scorer.Score(sel.working), sel)
	s.log.Debug().Str("run_id", sel.runID).Int("top_n", sel.topN).Msg("Ranking built")

	return Ranking{Sector: sel.sector, Metric: sel.metric, TopN: sel.topN, Radar: entries}, nil
}

// Clusters projects and clusters the working set
func (s *Service) Clusters(records []domain.RawRecord, req Request) (ClusterView, error) {
	sel, err := s.resolve(records, req)
	if err != nil {
		return ClusterView{}, err
	}

	view, err := s.clusterView(s.scorer.Score(sel.working), sel)
	if err != nil {
		return ClusterView{}, err
	}
	s.log.Debug().
		Str("run_id", sel.runID).
		Bool("available", view.Available).
		Int("clusters", view.NumClusters).
		Int("outliers", view.NumOutliers).
		Msg("Cluster view built")

	return view, nil
}

// Summarize averages each raw factor over the defined values of records
func Summarize(records []domain.RawRecord) Summary {
	avg := func(f domain.Factor) *float64 {
		values := make([]float64, len(records))
		for i, r := range records {
			values[i] = r.Value(f)
		}
		mean, ok := formulas.Mean(values)
		if !ok {
			return nil
		}
		return &mean
	}

	return Summary{
		Records:          len(records),
		AvgDividendYield: avg(domain.FactorDividendYield),
		AvgPE:            avg(domain.FactorPE),
		AvgMarketCap:     avg(domain.FactorMarketCap),
		AvgVolume:        avg(domain.FactorVolume),
		AvgProfit:        avg(domain.FactorProfitTTM),
	}
}

func table(scored []domain.ScoredRecord, metric domain.Metric) []Row {
	if metric != domain.MetricWeight {
		scored = ranking.SortBy(scored, metric)
	}
	rows := make([]Row, len(scored))
	for i, r := range scored {
		rows[i] = newRow(r)
	}
	return rows
}

func radar(scored []domain.ScoredRecord, sel selection) []RadarEntry {
	top := ranking.Top(scored, sel.metric, sel.topN)
	entries := make([]RadarEntry, len(top))
	for i, r := range top {
		entries[i] = newRadarEntry(i+1, r, sel.metric)
	}
	return entries
}

func (s *Service) clusterView(scored []domain.ScoredRecord, sel selection) (ClusterView, error) {
	view := ClusterView{
		Params:  sel.params,
		Factors: factorMetrics(),
		Points:  []ClusterPoint{},
	}

	proj, err := projection.Project(scored)
	if errors.Is(err, domain.ErrInsufficientData) {
		view.Reason = fmt.Sprintf("need at least %d records to build a similarity map, have %d",
			projection.MinRecords, len(scored))
		return view, nil
	}
	if err != nil {
		return ClusterView{}, err
	}

	labelled, err := clustering.Label(proj, sel.params)
	if err != nil {
		return ClusterView{}, err
	}

	view.Available = true
	view.ExplainedVariance = proj.ExplainedVariance
	view.TotalExplained = proj.TotalExplained()
	view.Loadings = proj.Loadings
	view.NumClusters = labelled.NumClusters
	view.NumOutliers = labelled.NumOutliers
	view.Points = make([]ClusterPoint, len(labelled.Records))
	for i, r := range labelled.Records {
		view.Points[i] = newClusterPoint(r)
	}

	return view, nil
}
