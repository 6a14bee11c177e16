package snapshot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testingpkg "github.com/aristath/scorecard/internal/testing"
)

func TestStore_CurrentBeforeLoad(t *testing.T) {
	store := NewStore(testingpkg.NewMockSource(nil), zerolog.Nop())

	_, err := store.Current()

	assert.True(t, errors.Is(err, ErrNoSnapshot))
	assert.False(t, store.Status().Loaded)
}

func TestStore_Reload(t *testing.T) {
	fixtures := testingpkg.NewConstituentFixtures()
	store := NewStore(testingpkg.NewMockSource(fixtures), zerolog.Nop())
	loadedAt := time.Date(2024, 11, 29, 16, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return loadedAt }

	snap, err := store.Reload(context.Background())
	require.NoError(t, err)

	assert.Equal(t, fixtures, snap.Records)
	assert.Equal(t, loadedAt, snap.LoadedAt)
	assert.Equal(t, "mock", snap.Source)

	current, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, snap, current)

	status := store.Status()
	assert.True(t, status.Loaded)
	assert.Equal(t, len(fixtures), status.Records)
	assert.Equal(t, loadedAt, status.LoadedAt)
	assert.Empty(t, status.LastError)
}

func TestStore_FailedReloadKeepsPreviousSnapshot(t *testing.T) {
	fixtures := testingpkg.NewConstituentFixtures()
	src := testingpkg.NewMockSource(fixtures)
	store := NewStore(src, zerolog.Nop())

	first, err := store.Reload(context.Background())
	require.NoError(t, err)

	feedDown := errors.New("feed unavailable")
	src.SetError(feedDown)

	_, err = store.Reload(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, feedDown))

	current, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, first, current)

	status := store.Status()
	assert.True(t, status.Loaded)
	assert.Equal(t, "feed unavailable", status.LastError)
}

func TestStore_ReloadSwapsSnapshot(t *testing.T) {
	src := testingpkg.NewMockSource(testingpkg.NewConstituentFixtures())
	store := NewStore(src, zerolog.Nop())

	_, err := store.Reload(context.Background())
	require.NoError(t, err)
	before, _ := store.Current()

	src.SetRecords(testingpkg.NewLossMakerFixtures())
	_, err = store.Reload(context.Background())
	require.NoError(t, err)
	after, _ := store.Current()

	assert.Len(t, before.Records, 12)
	assert.Len(t, after.Records, 3)
	assert.Equal(t, "ARM", after.Records[0].Ticker)
}

func TestStore_ConcurrentReadersDuringReload(t *testing.T) {
	src := testingpkg.NewMockSource(testingpkg.NewConstituentFixtures())
	store := NewStore(src, zerolog.Nop())
	_, err := store.Reload(context.Background())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				snap, err := store.Current()
				if assert.NoError(t, err) {
					assert.Len(t, snap.Records, 12)
				}
			}
		}()
	}
	for i := 0; i < 10; i++ {
		_, err := store.Reload(context.Background())
		require.NoError(t, err)
	}
	wg.Wait()

	assert.Equal(t, 11, src.Calls())
}

func TestReloadJob(t *testing.T) {
	src := testingpkg.NewMockSource(testingpkg.NewConstituentFixtures())
	store := NewStore(src, zerolog.Nop())
	job := NewReloadJob(store, time.Second)

	assert.Equal(t, "snapshot_reload", job.Name())
	require.NoError(t, job.Run())

	_, err := store.Current()
	assert.NoError(t, err)

	src.SetError(errors.New("boom"))
	assert.Error(t, job.Run())
}
