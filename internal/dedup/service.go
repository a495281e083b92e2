// Package dedup decides whether candidate articles already exist in the
// store, keyed primarily by external id and secondarily by URL fingerprint.
//
// The check-then-insert sequence is an optimization and may race with other
// writers; the unique constraints on articles plus the insert's
// conflict-ignore clause are the final backstop.
package dedup

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"vibecheck.dev/vibecheck/internal/db"
	"vibecheck.dev/vibecheck/internal/fingerprint"
)

type Service struct {
	pool   *db.Pool
	logger zerolog.Logger
}

func NewService(pool *db.Pool, logger zerolog.Logger) *Service {
	return &Service{
		pool:   pool,
		logger: logger,
	}
}

// Candidate is the minimal shape the duplicate check needs.
type Candidate interface {
	DedupExternalID() string
	DedupURL() string
}

// ArticleExists reports whether an article with the given external id or the
// same URL fingerprint is already stored.
func (s *Service) ArticleExists(ctx context.Context, externalID, url string) (bool, error) {
	if s == nil || s.pool == nil {
		return false, fmt.Errorf("dedup service is not initialized")
	}

	var count int64
	err := s.pool.GORM().WithContext(ctx).
		Model(&db.Article{}).
		Where("external_id = ?", externalID).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check external_id: %w", err)
	}
	if count > 0 {
		s.logger.Debug().Str("external_id", externalID).Msg("duplicate found by external_id")
		return true, nil
	}

	urlHash := fingerprint.URLHash(url)
	err = s.pool.GORM().WithContext(ctx).
		Model(&db.Article{}).
		Where("url_hash = ?", urlHash).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check url_hash: %w", err)
	}
	if count > 0 {
		s.logger.Debug().Str("url", url).Str("url_hash", urlHash).Msg("duplicate found by url_hash")
		return true, nil
	}

	return false, nil
}

// Partition splits a batch into the items to insert and a duplicate count.
// Input order is preserved for the surviving items.
func Partition[T Candidate](ctx context.Context, s *Service, batch []T) ([]T, int, error) {
	toInsert := make([]T, 0, len(batch))
	duplicates := 0

	for _, item := range batch {
		exists, err := s.ArticleExists(ctx, item.DedupExternalID(), item.DedupURL())
		if err != nil {
			return nil, 0, err
		}
		if exists {
			duplicates++
			continue
		}
		toInsert = append(toInsert, item)
	}

	s.logger.Info().
		Int("total", len(batch)).
		Int("to_insert", len(toInsert)).
		Int("duplicates_skipped", duplicates).
		Msg("batch deduplication complete")

	return toInsert, duplicates, nil
}
