package scoring

import (
	"math"

	"github.com/aristath/scorecard/internal/modules/scoring/domain"
	"github.com/rs/zerolog"
)

// Scorer computes composite scores for a working set
type Scorer struct {
	log zerolog.Logger
}

// NewScorer creates a new composite scorer
func NewScorer(log zerolog.Logger) *Scorer {
	return &Scorer{
		log: log.With().Str("component", "scorer").Logger(),
	}
}

// Score returns one ScoredRecord per input record, in input order.
//
// Each factor is normalized across records and published under its metric
// name. P/E is inverted so a cheaper stock earns a higher Pricing score.
// An undefined raw value scores 0, the least favourable composite.
func (s *Scorer) Score(records []domain.RawRecord) []domain.ScoredRecord {
	if len(records) == 0 {
		return []domain.ScoredRecord{}
	}

	factors := domain.Factors[:]
	ranges := Ranges(records, factors)
	for _, rg := range ranges {
		if rg.Degenerate() {
			s.log.Debug().
				Str("factor", string(rg.Factor)).
				Float64("value", rg.Min).
				Int("records", len(records)).
				Msg("Constant factor, using neutral score")
		}
		if missing := len(records) - rg.Defined; missing > 0 {
			s.log.Debug().
				Str("factor", string(rg.Factor)).
				Int("undefined", missing).
				Msg("Undefined factor values scored as least favourable")
		}
	}

	normalized := normalizeWith(records, factors, ranges)

	scored := make([]domain.ScoredRecord, len(records))
	for i, r := range records {
		scored[i].RawRecord = r
		for j, f := range factors {
			scored[i].Scores.Set(f, composite(f, normalized[i][j]))
		}
	}

	return scored
}

// Score is a convenience for scoring without logging
func Score(records []domain.RawRecord) []domain.ScoredRecord {
	return NewScorer(zerolog.Nop()).Score(records)
}

func composite(f domain.Factor, normalized float64) float64 {
	if math.IsNaN(normalized) {
		return 0
	}
	if f.LowerIsBetter() {
		return 1 - normalized
	}
	return normalized
}
