package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// IntegrityChecker is a database that can verify its own integrity
type IntegrityChecker interface {
	Name() string
	IntegrityCheck(ctx context.Context) error
}

// CheckDatabaseJob verifies integrity of the SQLite snapshot database
type CheckDatabaseJob struct {
	log     zerolog.Logger
	db      IntegrityChecker
	timeout time.Duration
}

// NewCheckDatabaseJob creates a new CheckDatabaseJob
func NewCheckDatabaseJob(db IntegrityChecker, timeout time.Duration, log zerolog.Logger) *CheckDatabaseJob {
	return &CheckDatabaseJob{
		log:     log.With().Str("job", "check_database").Logger(),
		db:      db,
		timeout: timeout,
	}
}

// Name returns the job name
func (j *CheckDatabaseJob) Name() string {
	return "check_database"
}

// Run executes the integrity check
func (j *CheckDatabaseJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if err := j.db.IntegrityCheck(ctx); err != nil {
		// Corruption cannot be repaired from here
		j.log.Error().
			Err(err).
			Str("database", j.db.Name()).
			Msg("Database integrity check failed")
		return fmt.Errorf("database %s is corrupted: %w", j.db.Name(), err)
	}

	j.log.Debug().Str("database", j.db.Name()).Msg("Database integrity OK")
	return nil
}
