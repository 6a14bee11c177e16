package ranking

import (
	"math"
	"testing"

	"github.com/aristath/scorecard/internal/modules/scoring"
	"github.com/aristath/scorecard/internal/modules/scoring/domain"
	testingpkg "github.com/aristath/scorecard/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTop_ProfitTopTenOfTwelve(t *testing.T) {
	scored := scoring.Score(testingpkg.NewConstituentFixtures())
	require.Len(t, scored, 12)

	top := Top(scored, domain.MetricProfit, 10)

	require.Len(t, top, 10)
	assert.Equal(t, []string{"GOOGL", "AAPL", "MSFT", "NVDA", "META", "AMZN", "TSLA", "PEP", "NFLX", "COST"}, Tickers(top))

	included := make(map[string]bool)
	minIncluded := math.Inf(1)
	for _, r := range top {
		included[r.Ticker] = true
		minIncluded = math.Min(minIncluded, r.Profit)
	}
	for _, r := range scored {
		if !included[r.Ticker] {
			assert.GreaterOrEqual(t, minIncluded, r.Profit, "excluded %s", r.Ticker)
		}
	}
}

func TestTop_SortedDescendingSubsequence(t *testing.T) {
	scored := scoring.Score(testingpkg.NewConstituentFixtures())

	for _, metric := range domain.Metrics {
		t.Run(string(metric), func(t *testing.T) {
			top := Top(scored, metric, 5)
			require.Len(t, top, 5)
			for i := 1; i < len(top); i++ {
				assert.GreaterOrEqual(t, top[i-1].MetricValue(metric), top[i].MetricValue(metric))
			}
		})
	}
}

func TestTop_StableOnTies(t *testing.T) {
	scored := []domain.ScoredRecord{
		{RawRecord: domain.RawRecord{Ticker: "A"}, Scores: domain.Scores{Income: 0.5}},
		{RawRecord: domain.RawRecord{Ticker: "B"}, Scores: domain.Scores{Income: 1}},
		{RawRecord: domain.RawRecord{Ticker: "C"}, Scores: domain.Scores{Income: 0.5}},
		{RawRecord: domain.RawRecord{Ticker: "D"}, Scores: domain.Scores{Income: 0}},
		{RawRecord: domain.RawRecord{Ticker: "E"}, Scores: domain.Scores{Income: 0.5}},
	}

	assert.Equal(t, []string{"B", "A", "C", "E"}, Tickers(Top(scored, domain.MetricIncome, 4)))
}

func TestTop_TruncatesToSetSize(t *testing.T) {
	scored := scoring.Score(testingpkg.NewConstituentFixtures()[:3])

	assert.Len(t, Top(scored, domain.MetricWeight, 10), 3)
	assert.Empty(t, Top(scored, domain.MetricWeight, 0))
	assert.Empty(t, Top(nil, domain.MetricWeight, 5))
}

func TestTop_DoesNotMutateInput(t *testing.T) {
	scored := scoring.Score(testingpkg.NewConstituentFixtures())
	before := Tickers(scored)

	top := Top(scored, domain.MetricSize, 3)
	top[0].Ticker = "XXXX"

	assert.Equal(t, before, Tickers(scored))
}

func TestSortBy_FullSet(t *testing.T) {
	scored := scoring.Score(testingpkg.NewConstituentFixtures())

	sorted := SortBy(scored, domain.MetricPricing)

	require.Len(t, sorted, len(scored))
	assert.Equal(t, "GOOGL", sorted[0].Ticker)
	assert.Equal(t, "AVGO", sorted[len(sorted)-1].Ticker)
}

func TestSortBy_UndefinedWeightSortsLast(t *testing.T) {
	scored := []domain.ScoredRecord{
		{RawRecord: domain.RawRecord{Ticker: "A", Weight: math.NaN()}},
		{RawRecord: domain.RawRecord{Ticker: "B", Weight: 0.01}},
		{RawRecord: domain.RawRecord{Ticker: "C", Weight: 0.02}},
	}

	assert.Equal(t, []string{"C", "B", "A"}, Tickers(SortBy(scored, domain.MetricWeight)))
}

func TestTopN(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		available int
		expected  int
	}{
		{"default when unset", 0, 50, 10},
		{"capped at ten", 25, 50, 10},
		{"capped at set size", 10, 4, 4},
		{"explicit smaller value", 5, 50, 5},
		{"empty set", 10, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TopN(tt.requested, tt.available))
		})
	}
}
