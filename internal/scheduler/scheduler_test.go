package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"vibecheck.dev/vibecheck/internal/db"
)

func newTestScheduler(t *testing.T) (*Scheduler, *db.Pool) {
	t.Helper()

	recorder, pool := newTestRecorder(t)
	return New(recorder, NewHealthState(), zerolog.Nop()), pool
}

func TestRunOnceRecordsSuccess(t *testing.T) {
	t.Parallel()

	sched, pool := newTestScheduler(t)
	sched.Register("poll_news", 15*time.Minute, func(ctx context.Context) (map[string]any, error) {
		return map[string]any{"entities_processed": 10}, nil
	})

	if err := sched.RunOnce(context.Background(), "poll_news"); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	var row db.JobExecution
	if err := pool.GORM().Where("job_name = ?", "poll_news").First(&row).Error; err != nil {
		t.Fatalf("load execution: %v", err)
	}
	if row.Status != db.JobStatusSuccess {
		t.Fatalf("Status = %q, want success", row.Status)
	}

	report := sched.HealthReport(time.Now().UTC())
	if report.Jobs["poll_news"].LastRun == nil {
		t.Fatalf("success not recorded in health state")
	}
}

func TestRunOnceRecordsFailure(t *testing.T) {
	t.Parallel()

	sched, pool := newTestScheduler(t)
	sched.Register("poll_news", 15*time.Minute, func(ctx context.Context) (map[string]any, error) {
		return nil, errors.New("upstream unreachable")
	})

	if err := sched.RunOnce(context.Background(), "poll_news"); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	var row db.JobExecution
	if err := pool.GORM().Where("job_name = ?", "poll_news").First(&row).Error; err != nil {
		t.Fatalf("load execution: %v", err)
	}
	if row.Status != db.JobStatusFailed {
		t.Fatalf("Status = %q, want failed", row.Status)
	}
	if row.ErrorMessage == nil || *row.ErrorMessage != "upstream unreachable" {
		t.Fatalf("ErrorMessage = %v, want upstream unreachable", row.ErrorMessage)
	}

	// A failed run never counts as a success for health purposes.
	report := sched.HealthReport(time.Now().UTC())
	if report.Jobs["poll_news"].LastRun != nil {
		t.Fatalf("failure recorded as success in health state")
	}
}

func TestRunOnceUnknownJob(t *testing.T) {
	t.Parallel()

	sched, _ := newTestScheduler(t)
	if err := sched.RunOnce(context.Background(), "nope"); err == nil {
		t.Fatalf("RunOnce accepted an unknown job")
	}
}

func TestExecuteSkipsOverlappingInvocation(t *testing.T) {
	t.Parallel()

	sched, pool := newTestScheduler(t)

	release := make(chan struct{})
	entered := make(chan struct{})
	var runs int
	var mu sync.Mutex

	sched.Register("poll_news", 15*time.Minute, func(ctx context.Context) (map[string]any, error) {
		mu.Lock()
		runs++
		mu.Unlock()
		close(entered)
		<-release
		return nil, nil
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = sched.RunOnce(context.Background(), "poll_news")
	}()

	<-entered
	// Second invocation while the first is still in flight: skipped.
	if err := sched.RunOnce(context.Background(), "poll_news"); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	close(release)
	wg.Wait()

	mu.Lock()
	got := runs
	mu.Unlock()
	if got != 1 {
		t.Fatalf("job body ran %d times, want 1", got)
	}

	var count int64
	if err := pool.GORM().Model(&db.JobExecution{}).Count(&count).Error; err != nil {
		t.Fatalf("count executions: %v", err)
	}
	if count != 1 {
		t.Fatalf("audit rows = %d, want 1 (skipped invocation records nothing)", count)
	}
}

func TestIntervalsSnapshot(t *testing.T) {
	t.Parallel()

	sched, _ := newTestScheduler(t)
	sched.Register("poll_news", 15*time.Minute, func(ctx context.Context) (map[string]any, error) { return nil, nil })
	sched.Register("poll_stories", time.Hour, func(ctx context.Context) (map[string]any, error) { return nil, nil })

	intervals := sched.Intervals()
	if intervals["poll_news"] != 15*time.Minute {
		t.Fatalf("poll_news interval = %v, want 15m", intervals["poll_news"])
	}
	if intervals["poll_stories"] != time.Hour {
		t.Fatalf("poll_stories interval = %v, want 1h", intervals["poll_stories"])
	}
}

func TestStartStopDrains(t *testing.T) {
	t.Parallel()

	sched, _ := newTestScheduler(t)
	sched.Register("poll_news", 50*time.Millisecond, func(ctx context.Context) (map[string]any, error) {
		return nil, nil
	})

	sched.Start()
	time.Sleep(120 * time.Millisecond)
	sched.Stop()

	report := sched.HealthReport(time.Now().UTC())
	if report.Jobs["poll_news"].LastRun == nil {
		t.Fatalf("ticker never fired before Stop")
	}
}
