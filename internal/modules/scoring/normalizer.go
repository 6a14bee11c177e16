// Package scoring turns raw constituent fundamentals into composite scores.
//
// Scores are relative: every factor is min-max scaled across the working set
// it is given, so the same stock scores differently in a sector subset than
// in the full index.
package scoring

import (
	"github.com/aristath/scorecard/internal/modules/scoring/domain"
	"github.com/aristath/scorecard/pkg/formulas"
)

// DegenerateValue is the normalized value of every defined observation of a
// factor whose minimum equals its maximum across the working set.
const DegenerateValue = 0.5

// FactorRange describes one factor column of a working set
type FactorRange struct {
	Factor  domain.Factor
	Min     float64
	Max     float64
	Defined int // observations that were not NaN/Inf
}

// Degenerate reports whether the column is constant
func (r FactorRange) Degenerate() bool {
	return r.Defined > 0 && r.Min == r.Max
}

// Ranges computes the min/max of each factor over the defined observations
func Ranges(records []domain.RawRecord, factors []domain.Factor) []FactorRange {
	ranges := make([]FactorRange, len(factors))
	column := make([]float64, len(records))

	for j, f := range factors {
		for i, r := range records {
			column[i] = r.Value(f)
		}
		min, max, defined := formulas.Range(column)
		ranges[j] = FactorRange{Factor: f, Min: min, Max: max, Defined: defined}
	}

	return ranges
}

// Normalize min-max scales each factor across records.
//
// The result has one row per record (input order) and one column per factor
// (factors order), each value in [0,1]. Constant columns yield
// DegenerateValue; undefined observations stay NaN.
func Normalize(records []domain.RawRecord, factors []domain.Factor) [][]float64 {
	return normalizeWith(records, factors, Ranges(records, factors))
}

func normalizeWith(records []domain.RawRecord, factors []domain.Factor, ranges []FactorRange) [][]float64 {
	out := make([][]float64, len(records))
	for i, r := range records {
		row := make([]float64, len(factors))
		for j, f := range factors {
			row[j] = formulas.MinMaxScale(r.Value(f), ranges[j].Min, ranges[j].Max, DegenerateValue)
		}
		out[i] = row
	}
	return out
}
