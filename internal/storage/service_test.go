package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm/logger"

	"vibecheck.dev/vibecheck/internal/db"
	"vibecheck.dev/vibecheck/internal/dedup"
)

func newTestService(t *testing.T) (*Service, *db.Pool) {
	t.Helper()

	pool, err := db.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), logger.Silent)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = pool.Close() })

	dedupSvc := dedup.NewService(pool, zerolog.Nop())
	return NewService(pool, dedupSvc, zerolog.Nop()), pool
}

func articleInput(externalID, url string) ArticleInput {
	return ArticleInput{
		ExternalID:     externalID,
		Title:          "Claude ships a new model",
		URL:            url,
		PublishedAt:    time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
		SentimentScore: 0.4,
		Entity:         "Claude",
	}
}

func TestInsertArticlesStoresBatch(t *testing.T) {
	t.Parallel()

	svc, pool := newTestService(t)
	ctx := context.Background()

	inserted, err := svc.InsertArticles(ctx, []ArticleInput{
		articleInput("a-1", "https://example.com/a-1"),
		articleInput("a-2", "https://example.com/a-2"),
	})
	if err != nil {
		t.Fatalf("InsertArticles: %v", err)
	}
	if inserted != 2 {
		t.Fatalf("inserted = %d, want 2", inserted)
	}

	var count int64
	if err := pool.GORM().Model(&db.Article{}).Count(&count).Error; err != nil {
		t.Fatalf("count articles: %v", err)
	}
	if count != 2 {
		t.Fatalf("stored rows = %d, want 2", count)
	}
}

func TestInsertArticlesSkipsDuplicates(t *testing.T) {
	t.Parallel()

	svc, pool := newTestService(t)
	ctx := context.Background()

	if _, err := svc.InsertArticles(ctx, []ArticleInput{articleInput("a-1", "https://example.com/a-1")}); err != nil {
		t.Fatalf("seed insert: %v", err)
	}

	// Same external id, and a fresh id that reuses a stored URL.
	inserted, err := svc.InsertArticles(ctx, []ArticleInput{
		articleInput("a-1", "https://example.com/elsewhere"),
		articleInput("a-9", "https://example.com/a-1"),
	})
	if err != nil {
		t.Fatalf("InsertArticles: %v", err)
	}
	if inserted != 0 {
		t.Fatalf("inserted = %d, want 0", inserted)
	}

	var count int64
	if err := pool.GORM().Model(&db.Article{}).Count(&count).Error; err != nil {
		t.Fatalf("count articles: %v", err)
	}
	if count != 1 {
		t.Fatalf("stored rows = %d, want 1", count)
	}
}

func TestInsertArticlesFiltersNonCuratedEntities(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	input := articleInput("a-3", "https://example.com/a-3")
	input.Entity = "some random startup"

	inserted, err := svc.InsertArticles(context.Background(), []ArticleInput{input})
	if err != nil {
		t.Fatalf("InsertArticles: %v", err)
	}
	if inserted != 0 {
		t.Fatalf("inserted = %d, want 0 for non-curated entity", inserted)
	}
}

func TestInsertArticlesEmptyBatch(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	inserted, err := svc.InsertArticles(context.Background(), nil)
	if err != nil {
		t.Fatalf("InsertArticles: %v", err)
	}
	if inserted != 0 {
		t.Fatalf("inserted = %d, want 0", inserted)
	}
}

func TestUpsertSentimentPointIdempotent(t *testing.T) {
	t.Parallel()

	svc, pool := newTestService(t)
	ctx := context.Background()

	mean := 0.5
	count := 3
	input := PointInput{
		EntityID:      1,
		Timestamp:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Period:        db.PeriodHourly,
		SentimentMean: &mean,
		ArticleCount:  &count,
	}

	stored, err := svc.UpsertSentimentPoint(ctx, input)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if !stored {
		t.Fatalf("first upsert stored = false, want true")
	}

	stored, err = svc.UpsertSentimentPoint(ctx, input)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if stored {
		t.Fatalf("second upsert stored = true, want false")
	}

	var rows int64
	if err := pool.GORM().Model(&db.SentimentTimeseries{}).Count(&rows).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if rows != 1 {
		t.Fatalf("rows = %d, want 1", rows)
	}
}

func TestUpsertSentimentPointDistinctBuckets(t *testing.T) {
	t.Parallel()

	svc, pool := newTestService(t)
	ctx := context.Background()

	mean := 0.2
	base := PointInput{
		EntityID:      1,
		Timestamp:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Period:        db.PeriodHourly,
		SentimentMean: &mean,
	}

	variants := []PointInput{base, base, base}
	variants[1].Timestamp = base.Timestamp.Add(time.Hour)
	variants[2].Period = db.PeriodDaily

	for i, input := range variants {
		stored, err := svc.UpsertSentimentPoint(ctx, input)
		if err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}
		if !stored {
			t.Fatalf("upsert %d stored = false, want true", i)
		}
	}

	var rows int64
	if err := pool.GORM().Model(&db.SentimentTimeseries{}).Count(&rows).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if rows != 3 {
		t.Fatalf("rows = %d, want 3", rows)
	}
}
