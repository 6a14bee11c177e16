package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testingpkg "github.com/aristath/scorecard/internal/testing"
)

type brokenDatabase struct{}

func (brokenDatabase) Name() string { return "constituents" }

func (brokenDatabase) IntegrityCheck(ctx context.Context) error {
	return errors.New("row 12 missing from index")
}

func TestCheckDatabaseJob_Healthy(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "constituents")
	defer cleanup()
	testingpkg.SeedConstituents(t, db.Conn(), testingpkg.NewConstituentFixtures())

	job := NewCheckDatabaseJob(db, 5*time.Second, zerolog.Nop())

	assert.Equal(t, "check_database", job.Name())
	require.NoError(t, job.Run())
}

func TestCheckDatabaseJob_Corrupted(t *testing.T) {
	job := NewCheckDatabaseJob(brokenDatabase{}, time.Second, zerolog.Nop())

	err := job.Run()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "database constituents is corrupted")
	assert.Contains(t, err.Error(), "row 12 missing from index")
}

func TestCheckDatabaseJob_ReportsThroughScheduler(t *testing.T) {
	s := New(zerolog.Nop())
	job := NewCheckDatabaseJob(brokenDatabase{}, time.Second, zerolog.Nop())

	require.NoError(t, s.AddJob("@hourly", job))
	assert.Error(t, s.RunNow(job))

	status := s.Status()
	require.Len(t, status, 1)
	assert.Equal(t, "check_database", status[0].Name)
	assert.Equal(t, "@hourly", status[0].Schedule)
}
