package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/scorecard/internal/modules/scoring/domain"
)

// ErrNoSnapshot is returned before the first successful load
var ErrNoSnapshot = errors.New("no snapshot loaded")

// Snapshot is an immutable set of constituent records
type Snapshot struct {
	Records  []domain.RawRecord
	LoadedAt time.Time
	Source   string
}

// Status describes the store for health endpoints
type Status struct {
	Loaded      bool      `json:"loaded" msgpack:"loaded"`
	Source      string    `json:"source" msgpack:"source"`
	Records     int       `json:"records" msgpack:"records"`
	LoadedAt    time.Time `json:"loaded_at,omitempty" msgpack:"loaded_at,omitempty"`
	LastAttempt time.Time `json:"last_attempt,omitempty" msgpack:"last_attempt,omitempty"`
	LastError   string    `json:"last_error,omitempty" msgpack:"last_error,omitempty"`
}

// Store holds the current snapshot and swaps it on reload
type Store struct {
	source Source
	log    zerolog.Logger
	now    func() time.Time

	mu          sync.RWMutex
	current     *Snapshot
	lastAttempt time.Time
	lastErr     error
}

// NewStore creates an empty store backed by source
func NewStore(source Source, log zerolog.Logger) *Store {
	return &Store{
		source: source,
		log:    log.With().Str("component", "snapshot_store").Logger(),
		now:    time.Now,
	}
}

// Reload loads a fresh snapshot and makes it current. On failure the
// previous snapshot stays current and the error is returned.
func (s *Store) Reload(ctx context.Context) (Snapshot, error) {
	start := s.now()
	records, err := s.source.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastAttempt = start
	s.lastErr = err
	if err != nil {
		s.log.Error().
			Err(err).
			Str("source", s.source.Describe()).
			Msg("Snapshot reload failed")
		return Snapshot{}, fmt.Errorf("reload snapshot: %w", err)
	}

	if len(records) == 0 {
		s.log.Warn().Str("source", s.source.Describe()).Msg("Loaded an empty snapshot")
	}

	snap := &Snapshot{
		Records:  records,
		LoadedAt: s.now(),
		Source:   s.source.Describe(),
	}
	s.current = snap

	s.log.Info().
		Str("source", snap.Source).
		Int("records", len(records)).
		Dur("duration", snap.LoadedAt.Sub(start)).
		Msg("Snapshot loaded")

	return *snap, nil
}

// Current returns the current snapshot. Callers must not modify Records.
func (s *Store) Current() (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return Snapshot{}, ErrNoSnapshot
	}
	return *s.current, nil
}

// Status reports what is loaded and how the last attempt went
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		Source:      s.source.Describe(),
		LastAttempt: s.lastAttempt,
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	if s.current != nil {
		st.Loaded = true
		st.Records = len(s.current.Records)
		st.LoadedAt = s.current.LoadedAt
	}
	return st
}

// ReloadJob reloads a store on a schedule
type ReloadJob struct {
	store   *Store
	timeout time.Duration
}

// NewReloadJob creates a reload job bounded by timeout
func NewReloadJob(store *Store, timeout time.Duration) *ReloadJob {
	return &ReloadJob{store: store, timeout: timeout}
}

// Name returns the job name
func (j *ReloadJob) Name() string {
	return "snapshot_reload"
}

// Run reloads the store
func (j *ReloadJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	_, err := j.store.Reload(ctx)
	return err
}
