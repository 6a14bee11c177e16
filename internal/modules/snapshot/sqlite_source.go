package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/aristath/scorecard/internal/modules/scoring/domain"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteSource reads a snapshot from a table. Column names follow the same
// matching rules as CSV headers, so both feed-style and snake_case schemas
// work.
type SQLiteSource struct {
	db    *sql.DB
	table string
}

// NewSQLiteSource creates a source reading table from db
func NewSQLiteSource(db *sql.DB, table string) (*SQLiteSource, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid snapshot table name %q", table)
	}
	return &SQLiteSource{db: db, table: table}, nil
}

// Load reads every row of the table in rowid order
func (s *SQLiteSource) Load(ctx context.Context) ([]domain.RawRecord, error) {
	// Table name is validated in the constructor
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+s.table+" ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot table %s: %w", s.table, err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", s.table, err)
	}

	var table [][]string
	for rows.Next() {
		cells := make([]sql.NullString, len(header))
		dest := make([]interface{}, len(header))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}

		row := make([]string, len(header))
		for i, c := range cells {
			// NULL stays empty, which parses as undefined
			if c.Valid {
				row[i] = c.String
			}
		}
		table = append(table, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshot table %s: %w", s.table, err)
	}

	records, err := ParseTable(header, table)
	if err != nil {
		return nil, fmt.Errorf("snapshot table %s: %w", s.table, err)
	}
	return records, nil
}

// Describe returns the table name
func (s *SQLiteSource) Describe() string {
	return "sqlite:" + s.table
}
