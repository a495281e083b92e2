package scheduler

import (
	"math"
	"sync"
	"time"
)

// HealthState tracks the last successful completion per job. It is process
// scoped and rebuilt empty on restart, so no job is overdue until its first
// success.
type HealthState struct {
	mu          sync.RWMutex
	lastSuccess map[string]time.Time
}

func NewHealthState() *HealthState {
	return &HealthState{
		lastSuccess: make(map[string]time.Time),
	}
}

func (h *HealthState) RecordSuccess(jobName string, at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastSuccess[jobName] = at
}

// Snapshot returns a copy of the last-success map.
func (h *HealthState) Snapshot() map[string]time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	snapshot := make(map[string]time.Time, len(h.lastSuccess))
	for name, at := range h.lastSuccess {
		snapshot[name] = at
	}
	return snapshot
}

// JobHealth is the per-job health endpoint payload.
type JobHealth struct {
	LastRun             *time.Time `json:"last_run"`
	IntervalMinutes     int        `json:"interval_minutes"`
	Overdue             bool       `json:"overdue"`
	MinutesSinceLastRun *float64   `json:"minutes_since_last_run"`
}

// HealthReport is the scheduler-wide health payload. Healthy is the logical
// AND of per-job non-overdue status.
type HealthReport struct {
	Healthy bool                 `json:"healthy"`
	Jobs    map[string]JobHealth `json:"jobs"`
}

// EvaluateHealth derives the report purely from (now, last-success map,
// interval table); no database read is involved. A job is overdue iff the
// time since its last success exceeds twice its interval.
func EvaluateHealth(now time.Time, lastRuns map[string]time.Time, intervals map[string]time.Duration) HealthReport {
	report := HealthReport{
		Healthy: true,
		Jobs:    make(map[string]JobHealth, len(intervals)),
	}

	for jobName, interval := range intervals {
		intervalMinutes := int(interval / time.Minute)

		lastRun, ran := lastRuns[jobName]
		if !ran {
			report.Jobs[jobName] = JobHealth{
				LastRun:             nil,
				IntervalMinutes:     intervalMinutes,
				Overdue:             false,
				MinutesSinceLastRun: nil,
			}
			continue
		}

		sinceMinutes := now.Sub(lastRun).Minutes()
		overdue := sinceMinutes > float64(intervalMinutes)*2
		rounded := math.Round(sinceMinutes*100) / 100
		lastRunCopy := lastRun

		report.Jobs[jobName] = JobHealth{
			LastRun:             &lastRunCopy,
			IntervalMinutes:     intervalMinutes,
			Overdue:             overdue,
			MinutesSinceLastRun: &rounded,
		}

		if overdue {
			report.Healthy = false
		}
	}

	return report
}
