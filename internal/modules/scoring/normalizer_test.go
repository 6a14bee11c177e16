package scoring

import (
	"math"
	"testing"

	"github.com/aristath/scorecard/internal/modules/scoring/domain"
	testingpkg "github.com/aristath/scorecard/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_ScalesEachFactorToUnitRange(t *testing.T) {
	records := testingpkg.NewConstituentFixtures()
	factors := domain.Factors[:]

	normalized := Normalize(records, factors)
	require.Len(t, normalized, len(records))

	for j := range factors {
		min, max := math.Inf(1), math.Inf(-1)
		for i := range records {
			v := normalized[i][j]
			require.Len(t, normalized[i], len(factors))
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
			min = math.Min(min, v)
			max = math.Max(max, v)
		}
		assert.Equal(t, 0.0, min, "factor %s", factors[j])
		assert.Equal(t, 1.0, max, "factor %s", factors[j])
	}
}

func TestNormalize_LinearBetweenExtremes(t *testing.T) {
	records := testingpkg.NewConstituentFixtures()

	normalized := Normalize(records, []domain.Factor{domain.FactorVolume})

	// AAPL volume 4.1e7 between COST 2.0e6 and NVDA 2.3e8
	expected := (4.1e7 - 2.0e6) / (2.3e8 - 2.0e6)
	assert.InDelta(t, expected, normalized[0][0], 1e-12)
}

func TestNormalize_DegenerateFactorUsesNeutralValue(t *testing.T) {
	records := testingpkg.NewLossMakerFixtures()

	normalized := Normalize(records, []domain.Factor{domain.FactorMarketCap})

	for i := range records {
		assert.Equal(t, DegenerateValue, normalized[i][0])
	}
}

func TestNormalize_UndefinedValuesStayUndefined(t *testing.T) {
	records := testingpkg.NewLossMakerFixtures()

	normalized := Normalize(records, []domain.Factor{domain.FactorPE})

	assert.Equal(t, 1.0, normalized[0][0]) // ARM, highest P/E
	assert.True(t, math.IsNaN(normalized[1][0]))
	assert.Equal(t, 0.0, normalized[2][0]) // CSCO, lowest P/E
}

func TestNormalize_Empty(t *testing.T) {
	assert.Empty(t, Normalize(nil, domain.Factors[:]))
}

func TestRanges(t *testing.T) {
	ranges := Ranges(testingpkg.NewLossMakerFixtures(), []domain.Factor{domain.FactorPE, domain.FactorMarketCap})
	require.Len(t, ranges, 2)

	assert.Equal(t, FactorRange{Factor: domain.FactorPE, Min: 22, Max: 180, Defined: 2}, ranges[0])
	assert.False(t, ranges[0].Degenerate())
	assert.True(t, ranges[1].Degenerate())
	assert.Equal(t, 3, ranges[1].Defined)
}
