package app

import (
	"time"

	"github.com/rs/zerolog"

	"vibecheck.dev/vibecheck/internal/asknews"
	"vibecheck.dev/vibecheck/internal/config"
	"vibecheck.dev/vibecheck/internal/db"
	"vibecheck.dev/vibecheck/internal/dedup"
	"vibecheck.dev/vibecheck/internal/entity"
	"vibecheck.dev/vibecheck/internal/jobs"
	"vibecheck.dev/vibecheck/internal/retrypolicy"
	"vibecheck.dev/vibecheck/internal/scheduler"
	"vibecheck.dev/vibecheck/internal/storage"
)

// Job names double as audit identifiers; keep them stable.
const (
	jobNameNews    = "poll_news"
	jobNameStories = "poll_stories"
)

// buildScheduler wires the job runners and their triggers.
func buildScheduler(cfg *config.Config, pool *db.Pool, logger zerolog.Logger) *scheduler.Scheduler {
	dedupSvc := dedup.NewService(pool, logger)
	store := storage.NewService(pool, dedupSvc, logger)

	newClient := func() (asknews.Client, error) {
		return asknews.NewHTTPClient(asknews.ClientConfig{
			APIKey:  cfg.AskNewsAPIKey,
			BaseURL: cfg.AskNewsBaseURL,
			Timeout: 30 * time.Second,
		}, logger)
	}

	newsJob := jobs.NewNewsJob(
		newClient,
		store,
		retrypolicy.Policy{MaxAttempts: 3, Floor: cfg.NewsRetryFloor, Ceil: cfg.NewsRetryCeil},
		entity.Names(),
		cfg.FetchLimit,
		logger,
	)
	storiesJob := jobs.NewStoriesJob(
		newClient,
		pool,
		store,
		retrypolicy.Policy{MaxAttempts: 3, Floor: cfg.StoriesRetryFloor, Ceil: cfg.StoriesRetryCeil},
		entity.Names(),
		cfg.FetchLimit,
		logger,
	)

	recorder := scheduler.NewExecutionRecorder(pool, logger)
	sched := scheduler.New(recorder, scheduler.NewHealthState(), logger)
	sched.Register(jobNameNews, cfg.NewsInterval(), newsJob.Run)
	sched.Register(jobNameStories, cfg.StoriesInterval(), storiesJob.Run)

	return sched
}
