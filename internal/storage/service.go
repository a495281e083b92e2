// Package storage persists normalized articles and sentiment buckets with
// conflict-tolerant semantics: a redelivered record is a silent no-op, never
// an error.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm/clause"

	"vibecheck.dev/vibecheck/internal/db"
	"vibecheck.dev/vibecheck/internal/dedup"
	"vibecheck.dev/vibecheck/internal/entity"
	"vibecheck.dev/vibecheck/internal/fingerprint"
	"vibecheck.dev/vibecheck/internal/globaltime"
)

type Service struct {
	pool   *db.Pool
	dedup  *dedup.Service
	logger zerolog.Logger
}

func NewService(pool *db.Pool, dedupSvc *dedup.Service, logger zerolog.Logger) *Service {
	return &Service{
		pool:   pool,
		dedup:  dedupSvc,
		logger: logger,
	}
}

// ArticleInput is one fetched article in storage shape. Entity carries the
// raw mention; normalization happens here and unrecognized mentions are
// silently filtered.
type ArticleInput struct {
	ExternalID     string
	Title          string
	URL            string
	SourceName     *string
	PublishedAt    time.Time
	SentimentScore float64
	Entity         string
}

func (a ArticleInput) DedupExternalID() string { return a.ExternalID }
func (a ArticleInput) DedupURL() string        { return a.URL }

// InsertArticles deduplicates, normalizes, and inserts a batch. Returns the
// number of rows actually inserted. Each insert carries an ignore-on-conflict
// clause so a racing writer's duplicate collapses to a no-op.
func (s *Service) InsertArticles(ctx context.Context, batch []ArticleInput) (int, error) {
	if len(batch) == 0 {
		s.logger.Info().Msg("article batch insert skipped: empty list")
		return 0, nil
	}

	toInsert, duplicatesSkipped, err := dedup.Partition(ctx, s.dedup, batch)
	if err != nil {
		return 0, fmt.Errorf("batch duplicate check: %w", err)
	}

	inserted := 0
	nonCuratedSkipped := 0
	for _, input := range toInsert {
		if _, ok := entity.Normalize(input.Entity); !ok {
			nonCuratedSkipped++
			continue
		}

		score := input.SentimentScore
		row := db.Article{
			ExternalID:     input.ExternalID,
			Title:          input.Title,
			URL:            input.URL,
			URLHash:        fingerprint.URLHash(input.URL),
			SourceName:     input.SourceName,
			PublishedAt:    input.PublishedAt.UTC(),
			SentimentScore: &score,
			CreatedAt:      globaltime.UTC(),
		}

		res := s.pool.GORM().WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&row)
		if res.Error != nil {
			return inserted, fmt.Errorf("insert article %q: %w", input.ExternalID, res.Error)
		}
		if res.RowsAffected > 0 {
			inserted++
		}
	}

	s.logger.Info().
		Int("total", len(batch)).
		Int("inserted", inserted).
		Int("duplicates_skipped", duplicatesSkipped).
		Int("non_curated_skipped", nonCuratedSkipped).
		Msg("article batch insert complete")

	return inserted, nil
}

// PointInput is one sentiment bucket destined for the time-series table.
type PointInput struct {
	EntityID          int64
	Timestamp         time.Time
	Period            string
	SentimentMean     *float64
	SentimentMin      *float64
	SentimentMax      *float64
	SentimentStd      *float64
	ArticleCount      *int
	RedditSentiment   *float64
	RedditThreadCount *int
}

// UpsertSentimentPoint inserts one bucket. A conflict on (entity_id,
// timestamp, period) means the bucket is already stored: the write is a
// silent no-op and the first return is false. Genuine write failures return
// an error; the statement's transaction is rolled back by the driver.
func (s *Service) UpsertSentimentPoint(ctx context.Context, input PointInput) (bool, error) {
	row := db.SentimentTimeseries{
		EntityID:          input.EntityID,
		Timestamp:         input.Timestamp.UTC(),
		Period:            input.Period,
		SentimentMean:     input.SentimentMean,
		SentimentMin:      input.SentimentMin,
		SentimentMax:      input.SentimentMax,
		SentimentStd:      input.SentimentStd,
		ArticleCount:      input.ArticleCount,
		RedditSentiment:   input.RedditSentiment,
		RedditThreadCount: input.RedditThreadCount,
		CreatedAt:         globaltime.UTC(),
	}

	res := s.pool.GORM().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "entity_id"},
				{Name: "timestamp"},
				{Name: "period"},
			},
			DoNothing: true,
		}).
		Create(&row)
	if res.Error != nil {
		s.logger.Error().
			Err(res.Error).
			Int64("entity_id", input.EntityID).
			Time("timestamp", input.Timestamp).
			Str("period", input.Period).
			Msg("sentiment point store failed")
		return false, fmt.Errorf("upsert sentiment point: %w", res.Error)
	}

	stored := res.RowsAffected > 0
	s.logger.Debug().
		Int64("entity_id", input.EntityID).
		Time("timestamp", input.Timestamp).
		Str("period", input.Period).
		Bool("stored", stored).
		Msg("sentiment point upserted")

	return stored, nil
}
