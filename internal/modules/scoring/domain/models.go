// Package domain holds the records that flow through the scoring pipeline.
package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Factor names a raw fundamental that feeds one composite score
type Factor string

const (
	FactorDividendYield Factor = "dividend_yield"
	FactorPE            Factor = "pe_ratio"
	FactorMarketCap     Factor = "market_cap"
	FactorVolume        Factor = "volume"
	FactorProfitTTM     Factor = "profit_ttm"
)

// NumFactors is the dimensionality of a composite score vector
const NumFactors = 5

// Factors is the fixed factor order used by normalization and projection.
var Factors = [NumFactors]Factor{
	FactorDividendYield,
	FactorPE,
	FactorMarketCap,
	FactorVolume,
	FactorProfitTTM,
}

// LowerIsBetter reports whether a smaller raw value earns a higher score.
// Only valuation (P/E) is inverted.
func (f Factor) LowerIsBetter() bool {
	return f == FactorPE
}

// Metric returns the composite score a factor is published as
func (f Factor) Metric() Metric {
	switch f {
	case FactorDividendYield:
		return MetricIncome
	case FactorPE:
		return MetricPricing
	case FactorMarketCap:
		return MetricSize
	case FactorVolume:
		return MetricLiquidity
	case FactorProfitTTM:
		return MetricProfit
	}
	return ""
}

// Metric is a column a working set can be ranked by
type Metric string

const (
	MetricWeight    Metric = "Weight"
	MetricIncome    Metric = "Income"
	MetricPricing   Metric = "Pricing"
	MetricSize      Metric = "Size"
	MetricLiquidity Metric = "Liquidity"
	MetricProfit    Metric = "Profit"
)

// Metrics lists the selectable metrics; Weight is the default.
var Metrics = []Metric{
	MetricWeight,
	MetricIncome,
	MetricPricing,
	MetricSize,
	MetricLiquidity,
	MetricProfit,
}

// ErrUnknownMetric is returned for metric names outside Metrics
var ErrUnknownMetric = errors.New("unknown scoring metric")

// ErrInsufficientData is returned by stages that need more records than given
var ErrInsufficientData = errors.New("insufficient data")

// ParseMetric resolves a metric name case-insensitively. Empty means Weight.
func ParseMetric(name string) (Metric, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return MetricWeight, nil
	}
	for _, m := range Metrics {
		if strings.EqualFold(string(m), name) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, name)
}

// RawRecord is one index constituent as delivered by the loader.
// Undefined numeric fields are NaN.
type RawRecord struct {
	Ticker        string  `json:"ticker"`
	Name          string  `json:"name"`
	Sector        string  `json:"sector"`
	Weight        float64 `json:"weight"`
	Price         float64 `json:"price"`
	DividendYield float64 `json:"dividend_yield"`
	PERatio       float64 `json:"pe_ratio"`
	MarketCap     float64 `json:"market_cap"`
	Volume        float64 `json:"volume"`
	ProfitTTM     float64 `json:"profit_ttm"`
}

// Value returns the raw value of a factor
func (r RawRecord) Value(f Factor) float64 {
	switch f {
	case FactorDividendYield:
		return r.DividendYield
	case FactorPE:
		return r.PERatio
	case FactorMarketCap:
		return r.MarketCap
	case FactorVolume:
		return r.Volume
	case FactorProfitTTM:
		return r.ProfitTTM
	}
	return math.NaN()
}

// Scores are the five composite scores, each in [0,1]
type Scores struct {
	Income    float64 `json:"income"`
	Pricing   float64 `json:"pricing"`
	Size      float64 `json:"size"`
	Liquidity float64 `json:"liquidity"`
	Profit    float64 `json:"profit"`
}

// Vector returns the scores in Factors order
func (s Scores) Vector() [NumFactors]float64 {
	return [NumFactors]float64{s.Income, s.Pricing, s.Size, s.Liquidity, s.Profit}
}

// Set stores the score published for factor f
func (s *Scores) Set(f Factor, v float64) {
	switch f {
	case FactorDividendYield:
		s.Income = v
	case FactorPE:
		s.Pricing = v
	case FactorMarketCap:
		s.Size = v
	case FactorVolume:
		s.Liquidity = v
	case FactorProfitTTM:
		s.Profit = v
	}
}

// ScoredRecord is a RawRecord with composite scores relative to its working set
type ScoredRecord struct {
	RawRecord
	Scores
}

// MetricValue returns the value a record is ranked by for metric m
func (r ScoredRecord) MetricValue(m Metric) float64 {
	switch m {
	case MetricWeight:
		return r.Weight
	case MetricIncome:
		return r.Income
	case MetricPricing:
		return r.Pricing
	case MetricSize:
		return r.Size
	case MetricLiquidity:
		return r.Liquidity
	case MetricProfit:
		return r.Profit
	}
	return math.NaN()
}

// ProjectedRecord places a ScoredRecord on the first two principal axes
type ProjectedRecord struct {
	ScoredRecord
	PC1 float64 `json:"pc1"`
	PC2 float64 `json:"pc2"`
}

// Projection is the 2D projection of a working set
type Projection struct {
	Records []ProjectedRecord
	// ExplainedVariance is the fraction of total variance on each axis
	ExplainedVariance [2]float64
	// Loadings holds the unit axis directions in Factors order
	Loadings [2][NumFactors]float64
}

// TotalExplained is the variance fraction retained by both axes
func (p Projection) TotalExplained() float64 {
	return p.ExplainedVariance[0] + p.ExplainedVariance[1]
}

// ClusterID labels a density cluster. Ids start at 0.
type ClusterID int

// Outlier marks a record that is not density-reachable from any cluster
const Outlier ClusterID = -1

// IsOutlier reports whether c is the outlier sentinel
func (c ClusterID) IsOutlier() bool {
	return c == Outlier
}

func (c ClusterID) String() string {
	if c.IsOutlier() {
		return "Outlier"
	}
	return fmt.Sprintf("Cluster %d", int(c))
}

// ClusteredRecord is a ProjectedRecord with its density cluster
type ClusteredRecord struct {
	ProjectedRecord
	Cluster ClusterID `json:"cluster_id"`
}

// Clustering is the labelled projection of a working set
type Clustering struct {
	Records           []ClusteredRecord
	ExplainedVariance [2]float64
	NumClusters       int
	NumOutliers       int
}
