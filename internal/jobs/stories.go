package jobs

import (
	"context"

	"github.com/rs/zerolog"

	"vibecheck.dev/vibecheck/internal/asknews"
	"vibecheck.dev/vibecheck/internal/db"
	"vibecheck.dev/vibecheck/internal/entity"
	"vibecheck.dev/vibecheck/internal/retrypolicy"
	"vibecheck.dev/vibecheck/internal/sentiment"
	"vibecheck.dev/vibecheck/internal/storage"
)

// StoriesJob polls story clusters for every tracked entity and stores
// time-bucketed sentiment aggregates.
type StoriesJob struct {
	newClient ClientFactory
	pool      *db.Pool
	store     *storage.Service
	policy    retrypolicy.Policy
	entities  []string
	limit     int
	logger    zerolog.Logger
}

func NewStoriesJob(newClient ClientFactory, pool *db.Pool, store *storage.Service, policy retrypolicy.Policy, entities []string, limit int, logger zerolog.Logger) *StoriesJob {
	return &StoriesJob{
		newClient: newClient,
		pool:      pool,
		store:     store,
		policy:    policy,
		entities:  entities,
		limit:     limit,
		logger:    logger,
	}
}

// Run executes one polling pass. A single story's failure never aborts the
// remaining stories for its entity, nor the remaining entities.
func (j *StoriesJob) Run(ctx context.Context) (map[string]any, error) {
	j.logger.Info().Int("entity_count", len(j.entities)).Msg("stories job started")

	stats := StoriesStats{
		TotalEntities: len(j.entities),
		Errors:        []EntityError{},
	}

	client, err := j.newClient()
	if err != nil {
		j.logger.Error().Err(err).Msg("stories job failed: client construction")
		stats.Failed = len(j.entities)
		stats.Errors = append(stats.Errors, EntityError{Entity: allEntities, Error: err.Error()})
		return stats.Metadata(), nil
	}

	for _, entityName := range j.entities {
		entityID, err := entity.ResolveID(ctx, j.pool, entityName)
		if err != nil {
			stats.Failed++
			stats.Errors = append(stats.Errors, EntityError{Entity: entityName, Error: err.Error()})
			j.logger.Warn().Err(err).Str("entity", entityName).Msg("entity not resolvable, run seed command")
			continue
		}

		stories, err := retrypolicy.Do(ctx, j.policy, asknews.IsTransient, func() ([]asknews.Story, error) {
			return client.FetchStories(ctx, entityName, j.limit)
		})
		if err != nil {
			stats.Failed++
			stats.Errors = append(stats.Errors, EntityError{Entity: entityName, Error: err.Error()})
			j.logger.Error().Err(err).Str("entity", entityName).Msg("story fetch failed after retries")
			continue
		}

		stats.Successful++
		stats.TotalStories += len(stories)

		for _, story := range stories {
			agg := sentiment.Extract(story, j.logger)

			if agg.HasReddit {
				stats.StoriesWithReddit++
			} else {
				stats.StoriesWithoutReddit++
			}

			for _, point := range agg.Points {
				mean := point.SentimentMean
				count := point.ArticleCount
				threadCount := agg.RedditThreadCount

				stored, err := j.store.UpsertSentimentPoint(ctx, storage.PointInput{
					EntityID:          entityID,
					Timestamp:         point.Timestamp,
					Period:            db.PeriodHourly,
					SentimentMean:     &mean,
					ArticleCount:      &count,
					RedditSentiment:   agg.RedditSentiment,
					RedditThreadCount: &threadCount,
				})
				if err != nil {
					j.logger.Error().
						Err(err).
						Str("entity", entityName).
						Str("story_id", story.StoryID).
						Msg("story point store failed")
					continue
				}
				if stored {
					stats.PointsStored++
				}
			}
		}
	}

	j.logger.Info().
		Int("successful", stats.Successful).
		Int("failed", stats.Failed).
		Int("total_stories", stats.TotalStories).
		Int("points_stored", stats.PointsStored).
		Msg("stories job completed")

	return stats.Metadata(), nil
}
