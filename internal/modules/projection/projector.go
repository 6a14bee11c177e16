// Package projection reduces composite score vectors to two principal axes.
package projection

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/scorecard/internal/modules/scoring/domain"
	"github.com/aristath/scorecard/pkg/formulas"
)

// MinRecords is the smallest working set that can be projected
const MinRecords = 2

// ErrDecomposition is returned when the SVD behind the projection fails
var ErrDecomposition = errors.New("principal component decomposition failed")

// Project places every record on the first two principal axes of its five
// composite scores.
//
// Scores are centered but not rescaled (they already share [0,1]). Each axis
// is oriented so its largest-magnitude loading is positive, which makes the
// output reproducible for a fixed input order. A working set with zero total
// variance projects to the origin with zero explained variance.
func Project(records []domain.ScoredRecord) (domain.Projection, error) {
	n := len(records)
	if n < MinRecords {
		return domain.Projection{}, fmt.Errorf("%w: projection needs at least %d records, got %d",
			domain.ErrInsufficientData, MinRecords, n)
	}

	data := mat.NewDense(n, domain.NumFactors, nil)
	for i, r := range records {
		v := r.Scores.Vector()
		data.SetRow(i, v[:])
	}

	means := make([]float64, domain.NumFactors)
	totalVariance := 0.0
	column := make([]float64, n)
	for j := range means {
		mat.Col(column, j, data)
		means[j] = stat.Mean(column, nil)
		totalVariance += formulas.Variance(column)
	}

	out := domain.Projection{Records: make([]domain.ProjectedRecord, n)}
	for i, r := range records {
		out.Records[i].ScoredRecord = r
	}

	if totalVariance == 0 {
		return out, nil
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(data, nil); !ok {
		return domain.Projection{}, ErrDecomposition
	}

	var vectors mat.Dense
	pc.VectorsTo(&vectors)
	vars := pc.VarsTo(nil)

	for k := 0; k < 2; k++ {
		axis := orientedAxis(&vectors, k)
		out.Loadings[k] = axis
		if k < len(vars) {
			out.ExplainedVariance[k] = clampUnit(vars[k] / totalVariance)
		}
	}

	for i := range records {
		row := data.RawRowView(i)
		for k := 0; k < 2; k++ {
			coord := 0.0
			for j, v := range row {
				coord += (v - means[j]) * out.Loadings[k][j]
			}
			if k == 0 {
				out.Records[i].PC1 = coord
			} else {
				out.Records[i].PC2 = coord
			}
		}
	}

	return out, nil
}

// orientedAxis returns column k of vectors, flipped so that its
// largest-magnitude entry is positive. The first entry wins on ties.
func orientedAxis(vectors *mat.Dense, k int) [domain.NumFactors]float64 {
	var axis [domain.NumFactors]float64
	rows, cols := vectors.Dims()
	if k >= cols {
		return axis
	}

	pivot := 0
	for j := 0; j < rows && j < domain.NumFactors; j++ {
		axis[j] = vectors.At(j, k)
		if math.Abs(axis[j]) > math.Abs(axis[pivot]) {
			pivot = j
		}
	}

	if axis[pivot] < 0 {
		for j := range axis {
			axis[j] = -axis[j]
		}
	}
	return axis
}

func clampUnit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
