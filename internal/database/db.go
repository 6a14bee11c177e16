// Package database provides database connection and initialization functionality.
package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

//go:embed schemas/constituents.sql
var constituentsSchema string

// DatabaseProfile defines different configuration profiles for databases
type DatabaseProfile string

const (
	// ProfileStandard - Balanced configuration, used when the database is written to
	ProfileStandard DatabaseProfile = "standard"
	// ProfileReadOnly - Snapshot databases the service only reads from
	ProfileReadOnly DatabaseProfile = "readonly"
)

// DB wraps the database connection
type DB struct {
	conn    *sql.DB
	path    string
	profile DatabaseProfile
	name    string // Database name for logging
}

// Config holds database configuration
type Config struct {
	Path    string
	Profile DatabaseProfile
	Name    string // Friendly name for logging (e.g., "snapshot")
}

// New opens a database connection and verifies it with a ping
func New(cfg Config) (*DB, error) {
	// file: URIs are used for in-memory databases and passed through as-is
	if !strings.HasPrefix(cfg.Path, "file:") {
		absPath, err := filepath.Abs(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database path to absolute: %w", err)
		}

		if cfg.Profile == ProfileReadOnly {
			// A read-only database must already exist
			if _, err := os.Stat(absPath); err != nil {
				return nil, fmt.Errorf("database %s not found: %w", cfg.Name, err)
			}
		} else if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		cfg.Path = absPath
	}

	if cfg.Profile == "" {
		cfg.Profile = ProfileStandard
	}

	conn, err := sql.Open("sqlite", buildConnectionString(cfg.Path, cfg.Profile))
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Name, err)
	}

	configureConnectionPool(conn, cfg.Profile)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", cfg.Name, err)
	}

	return &DB{
		conn:    conn,
		path:    cfg.Path,
		profile: cfg.Profile,
		name:    cfg.Name,
	}, nil
}

// buildConnectionString creates SQLite connection string with profile-specific PRAGMAs
func buildConnectionString(path string, profile DatabaseProfile) string {
	var pragmas []string

	switch profile {
	case ProfileReadOnly:
		pragmas = append(pragmas,
			"query_only(1)",      // Reject every write
			"temp_store(MEMORY)", // Temp tables in RAM
		)

	default:
		pragmas = append(pragmas,
			"journal_mode(WAL)",
			"synchronous(NORMAL)", // Fsync at checkpoints
			"temp_store(MEMORY)",
		)
	}

	pragmas = append(pragmas,
		"busy_timeout(5000)",
		"cache_size(-16000)", // 16MB cache (negative = KB)
	)

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}

	var b strings.Builder
	b.WriteString(path)
	for _, p := range pragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

// configureConnectionPool sets up connection pool for long-term operation
func configureConnectionPool(conn *sql.DB, profile DatabaseProfile) {
	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxIdleTime(30 * time.Minute)

	// A writable database serializes through one connection
	if profile == ProfileStandard {
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
	}
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB connection
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Name returns the database name for logging
func (db *DB) Name() string {
	return db.name
}

// Profile returns the database profile
func (db *DB) Profile() DatabaseProfile {
	return db.profile
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// Migrate creates the constituents table if it does not exist
func (db *DB) Migrate() error {
	if db.profile == ProfileReadOnly {
		return fmt.Errorf("cannot migrate read-only database %s", db.name)
	}

	return WithTransaction(db.conn, func(tx *sql.Tx) error {
		if _, err := tx.Exec(constituentsSchema); err != nil {
			return fmt.Errorf("failed to apply constituents schema to %s: %w", db.name, err)
		}
		return nil
	})
}

// WithTransaction executes a function within a database transaction.
// If the function returns an error or panics, the transaction is rolled back.
func WithTransaction(db *sql.DB, fn func(*sql.Tx) error) (err error) {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			err = fmt.Errorf("panic in transaction: %v", p)
		} else if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				err = fmt.Errorf("transaction failed: %w (rollback also failed: %v)", err, rollbackErr)
			} else {
				err = fmt.Errorf("transaction failed: %w", err)
			}
		} else if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	err = fn(tx)
	return err
}

// QuickCheck pings the database
func (db *DB) QuickCheck(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed for %s: %w", db.name, err)
	}
	return nil
}

// IntegrityCheck runs PRAGMA integrity_check and fails unless SQLite reports ok
func (db *DB) IntegrityCheck(ctx context.Context) error {
	var result string
	if err := db.conn.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed for %s: %w", db.name, err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check for %s returned: %s", db.name, result)
	}
	return nil
}
