package testing

import (
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/aristath/scorecard/internal/database"
	"github.com/aristath/scorecard/internal/modules/scoring/domain"
	"github.com/aristath/scorecard/pkg/formulas"
)

// NewTestDB creates a temporary file-backed SQLite database with the
// constituents table applied. Returns the database instance and a cleanup
// function that closes the connection and removes the file.
func NewTestDB(t *testing.T, name string) (*database.DB, func()) {
	t.Helper()

	// Temporary files give each test its own isolated database
	tmpFile, err := os.CreateTemp("", fmt.Sprintf("test_%s_*.db", name))
	if err != nil {
		t.Fatalf("Failed to create temporary database file: %v", err)
	}
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()

	db, err := database.New(database.Config{
		Path:    tmpPath,
		Profile: database.ProfileStandard,
		Name:    name,
	})
	if err != nil {
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}

	return db, func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
		for _, suffix := range []string{"", "-wal", "-shm"} {
			_ = os.Remove(tmpPath + suffix)
		}
	}
}

// SeedConstituents inserts records into the constituents table.
// Undefined numeric values are stored as NULL.
func SeedConstituents(t *testing.T, conn *sql.DB, records []domain.RawRecord) {
	t.Helper()

	err := database.WithTransaction(conn, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO constituents
			(ticker, name, sector, weight, price, dividend_yield, pe, market_cap, volume, profit_ttm)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, r := range records {
			_, err := stmt.Exec(r.Ticker, r.Name, r.Sector,
				nullable(r.Weight), nullable(r.Price), nullable(r.DividendYield),
				nullable(r.PERatio), nullable(r.MarketCap), nullable(r.Volume),
				nullable(r.ProfitTTM))
			if err != nil {
				return fmt.Errorf("insert %s: %w", r.Ticker, err)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to seed constituents: %v", err)
	}
}

func nullable(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: formulas.IsDefined(v)}
}
