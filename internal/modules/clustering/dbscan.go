// Package clustering groups projected records by neighborhood density.
package clustering

import (
	"errors"
	"fmt"
	"math"

	"github.com/aristath/scorecard/internal/modules/scoring/domain"
)

// Defaults for the density parameters
const (
	DefaultEps        = 0.3
	DefaultMinSamples = 3
)

// ErrInvalidParams is returned for a non-positive radius or sample count
var ErrInvalidParams = errors.New("invalid clustering parameters")

// Params control density clustering
type Params struct {
	// Eps is the neighborhood radius in (pc1, pc2) space
	Eps float64 `json:"eps" yaml:"eps"`
	// MinSamples is the neighborhood size, counting the point itself,
	// that makes a point dense
	MinSamples int `json:"min_samples" yaml:"min_samples"`
}

// DefaultParams returns eps 0.3 and min samples 3
func DefaultParams() Params {
	return Params{Eps: DefaultEps, MinSamples: DefaultMinSamples}
}

// Validate checks that params describe a usable neighborhood
func (p Params) Validate() error {
	if !(p.Eps > 0) || math.IsInf(p.Eps, 0) {
		return fmt.Errorf("%w: eps must be positive and finite, got %v", ErrInvalidParams, p.Eps)
	}
	if p.MinSamples < 1 {
		return fmt.Errorf("%w: min samples must be at least 1, got %d", ErrInvalidParams, p.MinSamples)
	}
	return nil
}

// Label assigns every projected record a cluster id or domain.Outlier.
//
// A record is dense when at least MinSamples records (itself included) lie
// within Eps. Clusters are the dense records connected through each other's
// neighborhoods, plus the non-dense records inside those neighborhoods. A
// non-dense record reachable from two clusters joins the one found first.
//
// Ids are assigned 0, 1, 2... in the order clusters are discovered while
// scanning records in input order, so a fixed input always yields the same
// ids.
func Label(p domain.Projection, params Params) (domain.Clustering, error) {
	if err := params.Validate(); err != nil {
		return domain.Clustering{}, err
	}
	if len(p.Records) == 0 {
		return domain.Clustering{}, fmt.Errorf("%w: nothing to cluster", domain.ErrInsufficientData)
	}

	points := make([][2]float64, len(p.Records))
	for i, r := range p.Records {
		points[i] = [2]float64{r.PC1, r.PC2}
	}

	labels := Assign(points, params)

	out := domain.Clustering{
		Records:           make([]domain.ClusteredRecord, len(p.Records)),
		ExplainedVariance: p.ExplainedVariance,
	}
	for i, r := range p.Records {
		out.Records[i] = domain.ClusteredRecord{ProjectedRecord: r, Cluster: labels[i]}
		if labels[i].IsOutlier() {
			out.NumOutliers++
		} else if int(labels[i])+1 > out.NumClusters {
			out.NumClusters = int(labels[i]) + 1
		}
	}

	return out, nil
}

// Assign runs density clustering over 2D points and returns one label per
// point. Params are assumed valid.
func Assign(points [][2]float64, params Params) []domain.ClusterID {
	const unassigned domain.ClusterID = -2

	neighbors := neighborhoods(points, params.Eps)

	labels := make([]domain.ClusterID, len(points))
	for i := range labels {
		labels[i] = unassigned
	}

	dense := func(i int) bool { return len(neighbors[i]) >= params.MinSamples }

	next := domain.ClusterID(0)
	for i := range points {
		if labels[i] != unassigned || !dense(i) {
			continue
		}

		labels[i] = next
		queue := []int{i}
		for len(queue) > 0 {
			q := queue[0]
			queue = queue[1:]
			if !dense(q) {
				continue
			}
			for _, nb := range neighbors[q] {
				if labels[nb] == unassigned {
					labels[nb] = next
					queue = append(queue, nb)
				}
			}
		}
		next++
	}

	for i, l := range labels {
		if l == unassigned {
			labels[i] = domain.Outlier
		}
	}

	return labels
}

// neighborhoods lists, for each point, the indexes of all points within eps
// (itself included) in ascending order
func neighborhoods(points [][2]float64, eps float64) [][]int {
	out := make([][]int, len(points))
	for i := range points {
		for j := range points {
			if math.Hypot(points[i][0]-points[j][0], points[i][1]-points[j][1]) <= eps {
				out[i] = append(out[i], j)
			}
		}
	}
	return out
}
