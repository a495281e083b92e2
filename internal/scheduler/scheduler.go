// Package scheduler runs named jobs on fixed wall-clock intervals, records
// every invocation to the audit trail, and derives job health from the
// in-memory last-success map.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"vibecheck.dev/vibecheck/internal/globaltime"
)

// JobFunc is one job body. The returned map becomes the audit record's
// metadata; a non-nil error marks the invocation failed.
type JobFunc func(ctx context.Context) (map[string]any, error)

type scheduledJob struct {
	name     string
	interval time.Duration
	fn       JobFunc
	running  atomic.Bool
}

// Scheduler owns the recurring triggers. Each registered job gets its own
// ticker goroutine; invocations of the same job never overlap (skip-if-running)
// and a failure in one job never blocks the other job's schedule.
type Scheduler struct {
	recorder *ExecutionRecorder
	health   *HealthState
	logger   zerolog.Logger

	mu      sync.Mutex
	jobs    map[string]*scheduledJob
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

func New(recorder *ExecutionRecorder, health *HealthState, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		recorder: recorder,
		health:   health,
		logger:   logger,
		jobs:     make(map[string]*scheduledJob),
		stopCh:   make(chan struct{}),
	}
}

// Register adds or replaces a trigger. Registration after Start has no effect
// on the running set.
func (s *Scheduler) Register(name string, interval time.Duration, fn JobFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[name] = &scheduledJob{
		name:     name,
		interval: interval,
		fn:       fn,
	}
}

// Start begins firing triggers. The first invocation of each job happens one
// full interval after Start.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.runLoop(job)
	}

	s.logger.Info().Int("job_count", len(s.jobs)).Msg("scheduler started")
}

// Stop stops the triggers and drains: it blocks until any in-flight job
// invocation has returned. No job is killed mid-execution.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info().Msg("scheduler stopped")
}

// RunOnce executes one registered job synchronously with full audit
// recording. Used by the poll command and tests.
func (s *Scheduler) RunOnce(ctx context.Context, name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	s.execute(ctx, job)
	return nil
}

// Intervals returns the static interval table for health evaluation.
func (s *Scheduler) Intervals() map[string]time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	intervals := make(map[string]time.Duration, len(s.jobs))
	for name, job := range s.jobs {
		intervals[name] = job.interval
	}
	return intervals
}

// HealthReport derives the current health purely from in-memory state.
func (s *Scheduler) HealthReport(now time.Time) HealthReport {
	return EvaluateHealth(now, s.health.Snapshot(), s.Intervals())
}

func (s *Scheduler) runLoop(job *scheduledJob) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.execute(context.Background(), job)
		}
	}
}

// execute wraps one invocation with the reentrancy guard and audit protocol.
func (s *Scheduler) execute(ctx context.Context, job *scheduledJob) {
	if !job.running.CompareAndSwap(false, true) {
		s.logger.Warn().Str("job_name", job.name).Msg("previous invocation still running, skipping")
		return
	}
	defer job.running.Store(false)

	startedAt := globaltime.UTC()
	executionID, err := s.recorder.Begin(ctx, job.name, startedAt)
	if err != nil {
		// The job still runs; the audit trail just misses this invocation.
		s.logger.Error().Err(err).Str("job_name", job.name).Msg("audit start write failed")
	}

	s.logger.Info().Str("job_name", job.name).Str("execution_id", executionID).Msg("job execution started")

	metadata, jobErr := job.fn(ctx)
	completedAt := globaltime.UTC()

	if jobErr != nil {
		if err := s.recorder.Fail(ctx, executionID, startedAt, completedAt, jobErr); err != nil {
			s.logger.Error().Err(err).Str("job_name", job.name).Msg("audit failure write failed")
		}
		s.logger.Error().
			Err(jobErr).
			Str("job_name", job.name).
			Str("execution_id", executionID).
			Msg("job execution failed")
		return
	}

	if err := s.recorder.Complete(ctx, executionID, startedAt, completedAt, metadata); err != nil {
		s.logger.Error().Err(err).Str("job_name", job.name).Msg("audit completion write failed")
	}

	s.health.RecordSuccess(job.name, completedAt)

	s.logger.Info().
		Str("job_name", job.name).
		Str("execution_id", executionID).
		Float64("duration_seconds", completedAt.Sub(startedAt).Seconds()).
		Msg("job execution completed")
}
