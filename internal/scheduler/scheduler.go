// Package scheduler runs background jobs on cron schedules.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// JobStatus reports the outcome of a job's latest run
type JobStatus struct {
	Name     string    `json:"name" msgpack:"name"`
	Schedule string    `json:"schedule" msgpack:"schedule"`
	Next     time.Time `json:"next,omitempty" msgpack:"next,omitempty"`
	LastRun  time.Time `json:"last_run,omitempty" msgpack:"last_run,omitempty"`
	LastErr  string    `json:"last_error,omitempty" msgpack:"last_error,omitempty"`
	Runs     int       `json:"runs" msgpack:"runs"`
}

type registration struct {
	id     cron.EntryID
	status JobStatus
}

// Scheduler manages background jobs
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger

	mu   sync.Mutex
	jobs []*registration
}

// New creates a new scheduler. A job still running when its next tick
// arrives skips that tick.
func New(log zerolog.Logger) *Scheduler {
	log = log.With().Str("component", "scheduler").Logger()
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{log: log})),
		),
		log: log,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers a new job with cron schedule
// Schedule examples:
//   - "0 */5 * * * *"      - Every 5 minutes
//   - "@hourly"            - Every hour
//   - "0 30 16 * * MON-FRI" - 16:30 weekdays
//   - "@every 30s"         - Every 30 seconds
func (s *Scheduler) AddJob(schedule string, job Job) error {
	reg := &registration{status: JobStatus{Name: job.Name(), Schedule: schedule}}

	id, err := s.cron.AddFunc(schedule, func() {
		s.run(reg, job)
	})
	if err != nil {
		return fmt.Errorf("failed to register job %s: %w", job.Name(), err)
	}

	s.mu.Lock()
	reg.id = id
	s.jobs = append(s.jobs, reg)
	s.mu.Unlock()

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job registered")

	return nil
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Running job immediately")
	return job.Run()
}

// Status lists registered jobs in registration order
func (s *Scheduler) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.jobs))
	for _, reg := range s.jobs {
		st := reg.status
		st.Next = s.cron.Entry(reg.id).Next
		out = append(out, st)
	}
	return out
}

func (s *Scheduler) run(reg *registration, job Job) {
	s.log.Debug().Str("job", job.Name()).Msg("Running job")

	start := time.Now()
	err := job.Run()

	s.mu.Lock()
	reg.status.LastRun = start
	reg.status.Runs++
	reg.status.LastErr = ""
	if err != nil {
		reg.status.LastErr = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Error().
			Err(err).
			Str("job", job.Name()).
			Msg("Job failed")
		return
	}

	s.log.Debug().
		Str("job", job.Name()).
		Dur("duration", time.Since(start)).
		Msg("Job completed")
}

// cronLogger adapts zerolog to cron.Logger
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
