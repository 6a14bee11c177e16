package testing

import (
	"bytes"
	"encoding/csv"
	"math"
	"strconv"

	"github.com/aristath/scorecard/internal/modules/scoring/domain"
)

// NewConstituentFixtures returns a twelve-stock index snapshot spread over
// four sectors. Every factor has a distinct minimum and maximum:
//
//	dividend yield  max PEP,   min AMZN/TSLA/NFLX/AMD (0)
//	P/E             max AVGO,  min GOOGL
//	market cap      max AAPL,  min PEP
//	volume          max NVDA,  min COST
//	profit TTM      max GOOGL, min AMD
func NewConstituentFixtures() []domain.RawRecord {
	return []domain.RawRecord{
		{Ticker: "AAPL", Name: "Apple Inc.", Sector: "Technology", Weight: 0.0871, Price: 227.5,
			DividendYield: 0.0044, PERatio: 37.1, MarketCap: 3.44e12, Volume: 4.1e7, ProfitTTM: 9.37e10},
		{Ticker: "MSFT", Name: "Microsoft Corp.", Sector: "Technology", Weight: 0.0803, Price: 430.3,
			DividendYield: 0.0077, PERatio: 35.2, MarketCap: 3.20e12, Volume: 1.9e7, ProfitTTM: 8.81e10},
		{Ticker: "NVDA", Name: "NVIDIA Corp.", Sector: "Technology", Weight: 0.0778, Price: 138.0,
			DividendYield: 0.0003, PERatio: 54.6, MarketCap: 3.38e12, Volume: 2.3e8, ProfitTTM: 6.3e10},
		{Ticker: "AMZN", Name: "Amazon.com Inc.", Sector: "Consumer Discretionary", Weight: 0.0542, Price: 197.1,
			DividendYield: 0, PERatio: 42.0, MarketCap: 2.07e12, Volume: 3.9e7, ProfitTTM: 4.9e10},
		{Ticker: "META", Name: "Meta Platforms Inc.", Sector: "Communication Services", Weight: 0.0502, Price: 585.0,
			DividendYield: 0.0034, PERatio: 27.5, MarketCap: 1.48e12, Volume: 1.1e7, ProfitTTM: 5.5e10},
		{Ticker: "GOOGL", Name: "Alphabet Inc.", Sector: "Communication Services", Weight: 0.0259, Price: 171.0,
			DividendYield: 0.0047, PERatio: 22.7, MarketCap: 2.10e12, Volume: 2.5e7, ProfitTTM: 9.4e10},
		{Ticker: "AVGO", Name: "Broadcom Inc.", Sector: "Technology", Weight: 0.0480, Price: 167.0,
			DividendYield: 0.0126, PERatio: 145.0, MarketCap: 7.8e11, Volume: 2.0e7, ProfitTTM: 5.9e9},
		{Ticker: "TSLA", Name: "Tesla Inc.", Sector: "Consumer Discretionary", Weight: 0.0310, Price: 250.0,
			DividendYield: 0, PERatio: 68.0, MarketCap: 8.0e11, Volume: 8.5e7, ProfitTTM: 1.3e10},
		{Ticker: "COST", Name: "Costco Wholesale Corp.", Sector: "Consumer Staples", Weight: 0.0253, Price: 890.0,
			DividendYield: 0.0052, PERatio: 54.0, MarketCap: 3.95e11, Volume: 2.0e6, ProfitTTM: 7.4e9},
		{Ticker: "NFLX", Name: "Netflix Inc.", Sector: "Communication Services", Weight: 0.0209, Price: 750.0,
			DividendYield: 0, PERatio: 44.0, MarketCap: 3.2e11, Volume: 3.1e6, ProfitTTM: 7.8e9},
		{Ticker: "PEP", Name: "PepsiCo Inc.", Sector: "Consumer Staples", Weight: 0.0169, Price: 160.0,
			DividendYield: 0.0335, PERatio: 23.6, MarketCap: 2.2e11, Volume: 5.3e6, ProfitTTM: 8.9e9},
		{Ticker: "AMD", Name: "Advanced Micro Devices Inc.", Sector: "Technology", Weight: 0.0155, Price: 140.0,
			DividendYield: 0, PERatio: 120.0, MarketCap: 2.27e11, Volume: 4.6e7, ProfitTTM: 1.0e9},
	}
}

// NewLossMakerFixtures returns three constituents where one company has no
// meaningful P/E (undefined) and all share the same market cap.
func NewLossMakerFixtures() []domain.RawRecord {
	return []domain.RawRecord{
		{Ticker: "ARM", Name: "Arm Holdings", Sector: "Technology", Weight: 0.01, Price: 140,
			DividendYield: 0, PERatio: 180, MarketCap: 1.5e11, Volume: 6e6, ProfitTTM: 3e8},
		{Ticker: "RIVN", Name: "Rivian Automotive", Sector: "Consumer Discretionary", Weight: 0.002, Price: 11,
			DividendYield: 0, PERatio: math.NaN(), MarketCap: 1.5e11, Volume: 3e7, ProfitTTM: -5.4e9},
		{Ticker: "CSCO", Name: "Cisco Systems", Sector: "Technology", Weight: 0.02, Price: 57,
			DividendYield: 0.028, PERatio: 22, MarketCap: 1.5e11, Volume: 1.8e7, ProfitTTM: 1.03e10},
	}
}

// FeedHeader is the column layout of the index data feed, including the
// columns the pipeline ignores.
var FeedHeader = []string{
	"Ticker", "Name", "Sector", "Weight", "Price", "IntradayReturn", "Amount",
	"IntradayContribution", "YTDContribution", "SharesOutstanding", "Dividend",
	"DividendYield", "PE", "MarketCap", "Volume", "Profit_TTM",
}

// FeedRows renders records as feed rows matching FeedHeader.
// Undefined values are written as empty cells.
func FeedRows(records []domain.RawRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Ticker, r.Name, r.Sector, formatCell(r.Weight), formatCell(r.Price),
			"0.0012", "1000", "0.0001", "0.01", "1000000", "0.5",
			formatCell(r.DividendYield), formatCell(r.PERatio), formatCell(r.MarketCap),
			formatCell(r.Volume), formatCell(r.ProfitTTM),
		})
	}
	return rows
}

// FeedCSV renders records as a CSV document in the feed layout
func FeedCSV(records []domain.RawRecord) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(FeedHeader)
	_ = w.WriteAll(FeedRows(records))
	return buf.Bytes()
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
