// Package jobs contains the scheduled job runners. Each runner processes a
// fixed list of tracked entities and isolates per-entity failures so one
// entity can never abort the rest of the run.
package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"vibecheck.dev/vibecheck/internal/asknews"
	"vibecheck.dev/vibecheck/internal/globaltime"
	"vibecheck.dev/vibecheck/internal/retrypolicy"
	"vibecheck.dev/vibecheck/internal/storage"
)

// ClientFactory builds the fetch client at invocation time, so a missing
// credential surfaces as a single run-level failure instead of a crash.
type ClientFactory func() (asknews.Client, error)

// NewsJob polls the news search endpoint for every tracked entity and stores
// deduplicated articles.
type NewsJob struct {
	newClient ClientFactory
	store     *storage.Service
	policy    retrypolicy.Policy
	entities  []string
	limit     int
	logger    zerolog.Logger
}

func NewNewsJob(newClient ClientFactory, store *storage.Service, policy retrypolicy.Policy, entities []string, limit int, logger zerolog.Logger) *NewsJob {
	return &NewsJob{
		newClient: newClient,
		store:     store,
		policy:    policy,
		entities:  entities,
		limit:     limit,
		logger:    logger,
	}
}

// Run executes one polling pass. Per-entity failures are captured into the
// returned statistics; the error return is reserved for failures of the run
// itself and stays nil even when every entity failed.
func (j *NewsJob) Run(ctx context.Context) (map[string]any, error) {
	j.logger.Info().Strs("entities", j.entities).Msg("news job started")

	stats := NewsStats{Errors: []EntityError{}}

	client, err := j.newClient()
	if err != nil {
		j.logger.Error().Err(err).Msg("news job failed: client construction")
		stats.EntitiesFailed = len(j.entities)
		stats.Errors = append(stats.Errors, EntityError{Entity: allEntities, Error: err.Error()})
		return stats.Metadata(), nil
	}

	for _, entityName := range j.entities {
		articles, err := retrypolicy.Do(ctx, j.policy, asknews.IsTransient, func() ([]asknews.Article, error) {
			return client.FetchNews(ctx, entityName, j.limit)
		})
		if err != nil {
			stats.EntitiesFailed++
			stats.Errors = append(stats.Errors, EntityError{Entity: entityName, Error: err.Error()})
			j.logger.Error().Err(err).Str("entity", entityName).Msg("entity processing failed")
			continue
		}

		stats.ArticlesFetched += len(articles)
		if len(articles) == 0 {
			j.logger.Info().Str("entity", entityName).Msg("no articles for entity")
			stats.EntitiesProcessed++
			continue
		}

		batch := make([]storage.ArticleInput, 0, len(articles))
		for _, article := range articles {
			input, ok := transformArticle(article, entityName)
			if !ok {
				j.logger.Warn().Str("entity", entityName).Msg("skipping article without id or url")
				continue
			}
			batch = append(batch, input)
		}

		inserted, err := j.store.InsertArticles(ctx, batch)
		if err != nil {
			stats.EntitiesFailed++
			stats.Errors = append(stats.Errors, EntityError{Entity: entityName, Error: err.Error()})
			j.logger.Error().Err(err).Str("entity", entityName).Msg("entity processing failed")
			continue
		}

		stats.ArticlesInserted += inserted
		stats.EntitiesProcessed++
		j.logger.Info().
			Str("entity", entityName).
			Int("fetched", len(articles)).
			Int("inserted", inserted).
			Msg("entity processed")
	}

	j.logger.Info().
		Int("entities_processed", stats.EntitiesProcessed).
		Int("entities_failed", stats.EntitiesFailed).
		Int("articles_fetched", stats.ArticlesFetched).
		Int("articles_inserted", stats.ArticlesInserted).
		Msg("news job complete")

	return stats.Metadata(), nil
}

// transformArticle coerces one fetched record into storage shape. Records
// without an external id or URL cannot be deduplicated and are skipped; a
// malformed timestamp falls back to now and a missing sentiment defaults to
// neutral, so a single bad field never drops the item.
func transformArticle(article asknews.Article, entityName string) (storage.ArticleInput, bool) {
	if article.ExternalID == nil || article.URL == nil {
		return storage.ArticleInput{}, false
	}

	title := ""
	if article.Title != nil {
		title = *article.Title
	}

	sentiment := 0.0
	if article.Sentiment != nil {
		sentiment = *article.Sentiment
	}

	return storage.ArticleInput{
		ExternalID:     *article.ExternalID,
		Title:          title,
		URL:            *article.URL,
		SourceName:     article.SourceURL,
		PublishedAt:    coercePublishedAt(article.PublishedAt),
		SentimentScore: sentiment,
		Entity:         entityName,
	}, true
}

func coercePublishedAt(raw *string) time.Time {
	if raw == nil {
		return globaltime.UTC()
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, *raw); err == nil {
			return parsed.UTC()
		}
	}
	return globaltime.UTC()
}
