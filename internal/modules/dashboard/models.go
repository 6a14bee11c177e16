package dashboard

import (
	"github.com/aristath/scorecard/internal/modules/clustering"
	"github.com/aristath/scorecard/internal/modules/scoring/domain"
	"github.com/aristath/scorecard/pkg/formulas"
)

// Row is one line of the scored table. Raw values the feed left undefined
// are nil.
type Row struct {
	Ticker        string   `json:"ticker" msgpack:"ticker"`
	Name          string   `json:"name" msgpack:"name"`
	Sector        string   `json:"sector" msgpack:"sector"`
	Weight        *float64 `json:"weight" msgpack:"weight"`
	Price         *float64 `json:"price" msgpack:"price"`
	DividendYield *float64 `json:"dividend_yield" msgpack:"dividend_yield"`
	PE            *float64 `json:"pe" msgpack:"pe"`
	MarketCap     *float64 `json:"market_cap" msgpack:"market_cap"`
	Volume        *float64 `json:"volume" msgpack:"volume"`
	ProfitTTM     *float64 `json:"profit_ttm" msgpack:"profit_ttm"`
	Income        float64  `json:"income" msgpack:"income"`
	Pricing       float64  `json:"pricing" msgpack:"pricing"`
	Size          float64  `json:"size" msgpack:"size"`
	Liquidity     float64  `json:"liquidity" msgpack:"liquidity"`
	Profit        float64  `json:"profit" msgpack:"profit"`
}

// RadarPoint is one spoke of a score card
type RadarPoint struct {
	Metric domain.Metric `json:"metric" msgpack:"metric"`
	Score  float64       `json:"score" msgpack:"score"`
	Actual *float64      `json:"actual" msgpack:"actual"`
}

// RadarEntry is a score card for one of the top-ranked records
type RadarEntry struct {
	Rank   int          `json:"rank" msgpack:"rank"`
	Ticker string       `json:"ticker" msgpack:"ticker"`
	Name   string       `json:"name" msgpack:"name"`
	Sector string       `json:"sector" msgpack:"sector"`
	Value  *float64     `json:"value" msgpack:"value"` // value of the active metric
	Points []RadarPoint `json:"points" msgpack:"points"`
}

// Summary holds working-set averages of the raw factors. An average is nil
// when no record defines the factor.
type Summary struct {
	Records          int      `json:"records" msgpack:"records"`
	AvgDividendYield *float64 `json:"avg_dividend_yield" msgpack:"avg_dividend_yield"`
	AvgPE            *float64 `json:"avg_pe" msgpack:"avg_pe"`
	AvgMarketCap     *float64 `json:"avg_market_cap" msgpack:"avg_market_cap"`
	AvgVolume        *float64 `json:"avg_volume" msgpack:"avg_volume"`
	AvgProfit        *float64 `json:"avg_profit" msgpack:"avg_profit"`
}

// ClusterPoint is one record in the similarity map, with the composite
// scores it was projected from
type ClusterPoint struct {
	Ticker    string  `json:"ticker" msgpack:"ticker"`
	Name      string  `json:"name" msgpack:"name"`
	Sector    string  `json:"sector" msgpack:"sector"`
	PC1       float64 `json:"pc1" msgpack:"pc1"`
	PC2       float64 `json:"pc2" msgpack:"pc2"`
	Cluster   int     `json:"cluster_id" msgpack:"cluster_id"` // -1 for outliers
	Label     string  `json:"label" msgpack:"label"`
	Income    float64 `json:"income" msgpack:"income"`
	Pricing   float64 `json:"pricing" msgpack:"pricing"`
	Size      float64 `json:"size" msgpack:"size"`
	Liquidity float64 `json:"liquidity" msgpack:"liquidity"`
	Profit    float64 `json:"profit" msgpack:"profit"`
}

// ClusterView is the similarity map of a working set. Available is false,
// with a reason, when the set is too small to project.
type ClusterView struct {
	Available         bool                             `json:"available" msgpack:"available"`
	Reason            string                           `json:"reason,omitempty" msgpack:"reason,omitempty"`
	Params            clustering.Params                `json:"params" msgpack:"params"`
	ExplainedVariance [2]float64                       `json:"explained_variance" msgpack:"explained_variance"`
	TotalExplained    float64                          `json:"total_explained" msgpack:"total_explained"`
	Loadings          [2][domain.NumFactors]float64    `json:"loadings" msgpack:"loadings"`
	Factors           [domain.NumFactors]domain.Metric `json:"factors" msgpack:"factors"`
	NumClusters       int                              `json:"num_clusters" msgpack:"num_clusters"`
	NumOutliers       int                              `json:"num_outliers" msgpack:"num_outliers"`
	Points            []ClusterPoint                   `json:"points" msgpack:"points"`
}

// Ranking is the top of a working set by one metric
type Ranking struct {
	Sector string        `json:"sector" msgpack:"sector"`
	Metric domain.Metric `json:"metric" msgpack:"metric"`
	TopN   int           `json:"top_n" msgpack:"top_n"`
	Radar  []RadarEntry  `json:"radar" msgpack:"radar"`
}

// Table is the scored working set
type Table struct {
	Sector string        `json:"sector" msgpack:"sector"`
	Metric domain.Metric `json:"metric" msgpack:"metric"`
	Rows   []Row         `json:"rows" msgpack:"rows"`
}

// View is everything the dashboard shows for one selection
type View struct {
	Sector   string          `json:"sector" msgpack:"sector"`
	Metric   domain.Metric   `json:"metric" msgpack:"metric"`
	Sectors  []string        `json:"sectors" msgpack:"sectors"`
	Metrics  []domain.Metric `json:"metrics" msgpack:"metrics"`
	TopN     int             `json:"top_n" msgpack:"top_n"`
	Summary  Summary         `json:"summary" msgpack:"summary"`
	Radar    []RadarEntry    `json:"radar" msgpack:"radar"`
	Table    []Row           `json:"table" msgpack:"table"`
	Clusters ClusterView     `json:"clusters" msgpack:"clusters"`
}

// nullable maps undefined values to nil
func nullable(v float64) *float64 {
	if !formulas.IsDefined(v) {
		return nil
	}
	return &v
}

func newRow(r domain.ScoredRecord) Row {
	return Row{
		Ticker:        r.Ticker,
		Name:          r.Name,
		Sector:        r.Sector,
		Weight:        nullable(r.Weight),
		Price:         nullable(r.Price),
		DividendYield: nullable(r.DividendYield),
		PE:            nullable(r.PERatio),
		MarketCap:     nullable(r.MarketCap),
		Volume:        nullable(r.Volume),
		ProfitTTM:     nullable(r.ProfitTTM),
		Income:        r.Income,
		Pricing:       r.Pricing,
		Size:          r.Size,
		Liquidity:     r.Liquidity,
		Profit:        r.Profit,
	}
}

func newRadarEntry(rank int, r domain.ScoredRecord, metric domain.Metric) RadarEntry {
	scores := r.Scores.Vector()
	points := make([]RadarPoint, domain.NumFactors)
	for i, f := range domain.Factors {
		points[i] = RadarPoint{
			Metric: f.Metric(),
			Score:  scores[i],
			Actual: nullable(r.Value(f)),
		}
	}

	return RadarEntry{
		Rank:   rank,
		Ticker: r.Ticker,
		Name:   r.Name,
		Sector: r.Sector,
		Value:  nullable(r.MetricValue(metric)),
		Points: points,
	}
}

func newClusterPoint(r domain.ClusteredRecord) ClusterPoint {
	return ClusterPoint{
		Ticker:    r.Ticker,
		Name:      r.Name,
		Sector:    r.Sector,
		PC1:       r.PC1,
		PC2:       r.PC2,
		Cluster:   int(r.Cluster),
		Label:     r.Cluster.String(),
		Income:    r.Income,
		Pricing:   r.Pricing,
		Size:      r.Size,
		Liquidity: r.Liquidity,
		Profit:    r.Profit,
	}
}

func factorMetrics() [domain.NumFactors]domain.Metric {
	var out [domain.NumFactors]domain.Metric
	for i, f := range domain.Factors {
		out[i] = f.Metric()
	}
	return out
}
