// Package formulas provides the small numeric helpers shared by the scoring
// pipeline. Undefined observations (NaN, ±Inf) are skipped everywhere.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// IsDefined reports whether v is a usable observation
func IsDefined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Defined returns the defined observations of data, preserving order
func Defined(data []float64) []float64 {
	out := make([]float64, 0, len(data))
	for _, v := range data {
		if IsDefined(v) {
			out = append(out, v)
		}
	}
	return out
}

// Range returns the minimum and maximum defined observation of data and how
// many observations were defined. min and max are NaN when none are.
func Range(data []float64) (min, max float64, defined int) {
	values := Defined(data)
	if len(values) == 0 {
		return math.NaN(), math.NaN(), 0
	}
	return floats.Min(values), floats.Max(values), len(values)
}

// Mean calculates the arithmetic mean of the defined observations.
// ok is false when there are none.
func Mean(data []float64) (mean float64, ok bool) {
	values := Defined(data)
	if len(values) == 0 {
		return 0, false
	}
	return stat.Mean(values, nil), true
}

// Variance calculates the unbiased sample variance of data.
// Returns 0 for fewer than two observations.
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.Variance(data, nil)
}

// MinMaxScale maps v into [0,1] relative to [min,max].
// Returns NaN when v is undefined and fallback when the range is empty.
func MinMaxScale(v, min, max, fallback float64) float64 {
	if !IsDefined(v) {
		return math.NaN()
	}
	if max == min {
		return fallback
	}
	return (v - min) / (max - min)
}
