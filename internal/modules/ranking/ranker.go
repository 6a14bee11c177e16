// Package ranking orders scored records by a metric.
package ranking

import (
	"math"
	"sort"

	"github.com/aristath/scorecard/internal/modules/scoring/domain"
)

// MaxTopN caps how many records a top-N selection may return for display
const MaxTopN = 10

// SortBy returns a copy of records sorted by metric, descending.
// Ties keep their input order; undefined values sort last.
func SortBy(records []domain.ScoredRecord, metric domain.Metric) []domain.ScoredRecord {
	sorted := make([]domain.ScoredRecord, len(records))
	copy(sorted, records)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sortKey(sorted[i].MetricValue(metric)) > sortKey(sorted[j].MetricValue(metric))
	})

	return sorted
}

// Top returns the n records with the largest metric, in descending order.
// The result has min(n, len(records)) elements and never aliases records.
func Top(records []domain.ScoredRecord, metric domain.Metric, n int) []domain.ScoredRecord {
	if n <= 0 {
		return []domain.ScoredRecord{}
	}
	sorted := SortBy(records, metric)
	if n < len(sorted) {
		sorted = sorted[:n:n]
	}
	return sorted
}

// TopN clamps a requested display count to [1, MaxTopN] and the set size
func TopN(requested, available int) int {
	n := requested
	if n <= 0 || n > MaxTopN {
		n = MaxTopN
	}
	if n > available {
		n = available
	}
	return n
}

// Tickers returns the tickers of records in order
func Tickers(records []domain.ScoredRecord) []string {
	tickers := make([]string, len(records))
	for i, r := range records {
		tickers[i] = r.Ticker
	}
	return tickers
}

func sortKey(v float64) float64 {
	if math.IsNaN(v) {
		return math.Inf(-1)
	}
	return v
}
