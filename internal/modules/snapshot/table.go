// Package snapshot loads index constituent snapshots and keeps the current
// one available to the pipeline.
package snapshot

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aristath/scorecard/internal/modules/scoring/domain"
)

// ErrMissingColumn matches every *MissingColumnError
var ErrMissingColumn = errors.New("missing column")

// ErrDuplicateTicker is returned when a ticker appears twice in a snapshot
var ErrDuplicateTicker = errors.New("duplicate ticker")

// MissingColumnError lists the required columns a table lacks
type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing column(s): %s", strings.Join(e.Columns, ", "))
}

// Is lets errors.Is match ErrMissingColumn
func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

type column int

const (
	colTicker column = iota
	colName
	colSector
	colWeight
	colPrice
	colDividendYield
	colPE
	colMarketCap
	colVolume
	colProfitTTM
	numColumns
)

// columnNames are the canonical feed headers, in column order
var columnNames = [numColumns]string{
	"Ticker", "Name", "Sector", "Weight", "Price",
	"DividendYield", "PE", "MarketCap", "Volume", "Profit_TTM",
}

// columnAliases map normalized header spellings onto columns
var columnAliases = map[string]column{
	"ticker":        colTicker,
	"symbol":        colTicker,
	"name":          colName,
	"sector":        colSector,
	"weight":        colWeight,
	"price":         colPrice,
	"dividendyield": colDividendYield,
	"pe":            colPE,
	"peratio":       colPE,
	"marketcap":     colMarketCap,
	"volume":        colVolume,
	"profitttm":     colProfitTTM,
}

// undefinedCells are numeric cells that mean "no value"
var undefinedCells = map[string]bool{
	"":     true,
	"nan":  true,
	"n/a":  true,
	"na":   true,
	"-":    true,
	"--":   true,
	"null": true,
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	return strings.NewReplacer("_", "", " ", "", "-", "").Replace(h)
}

// ParseTable maps a header row and data rows onto RawRecords.
//
// Headers are matched case-insensitively, ignoring underscores, spaces and
// dashes, so both "Profit_TTM" and "profit_ttm" work. Columns the pipeline
// does not use are ignored. Undefined numeric cells become NaN.
func ParseTable(header []string, rows [][]string) ([]domain.RawRecord, error) {
	index, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	records := make([]domain.RawRecord, 0, len(rows))
	seen := make(map[string]int, len(rows))

	for i, row := range rows {
		line := i + 2 // 1-based, after the header
		cell := func(c column) string {
			if index[c] < len(row) {
				return strings.TrimSpace(row[index[c]])
			}
			return ""
		}

		ticker := cell(colTicker)
		if ticker == "" {
			if isBlank(row) {
				continue
			}
			return nil, fmt.Errorf("row %d: empty ticker", line)
		}
		if first, dup := seen[ticker]; dup {
			return nil, fmt.Errorf("%w: %s (rows %d and %d)", ErrDuplicateTicker, ticker, first, line)
		}
		seen[ticker] = line

		r := domain.RawRecord{
			Ticker: ticker,
			Name:   cell(colName),
			Sector: cell(colSector),
		}

		numeric := []struct {
			col column
			dst *float64
		}{
			{colWeight, &r.Weight},
			{colPrice, &r.Price},
			{colDividendYield, &r.DividendYield},
			{colPE, &r.PERatio},
			{colMarketCap, &r.MarketCap},
			{colVolume, &r.Volume},
			{colProfitTTM, &r.ProfitTTM},
		}
		for _, n := range numeric {
			v, err := parseNumber(cell(n.col))
			if err != nil {
				return nil, fmt.Errorf("row %d (%s), column %s: %w", line, ticker, columnNames[n.col], err)
			}
			*n.dst = v
		}

		records = append(records, r)
	}

	return records, nil
}

func resolveColumns(header []string) ([numColumns]int, error) {
	var index [numColumns]int
	for i := range index {
		index[i] = -1
	}

	for i, h := range header {
		if c, ok := columnAliases[normalizeHeader(h)]; ok && index[c] < 0 {
			index[c] = i
		}
	}

	var missing []string
	for c, i := range index {
		if i < 0 {
			missing = append(missing, columnNames[c])
		}
	}
	if len(missing) > 0 {
		return index, &MissingColumnError{Columns: missing}
	}

	return index, nil
}

func parseNumber(s string) (float64, error) {
	if undefinedCells[strings.ToLower(s)] {
		return math.NaN(), nil
	}
	s = strings.ReplaceAll(s, ",", "")
	if strings.HasSuffix(s, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", s)
		}
		return v / 100, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
