package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"vibecheck.dev/vibecheck/internal/asknews"
	"vibecheck.dev/vibecheck/internal/db"
	"vibecheck.dev/vibecheck/internal/entity"
)

func storyWith(points []map[string]any, threads []map[string]any) asknews.Story {
	return asknews.Story{
		StoryID:             "s-1",
		Headline:            "story headline",
		SentimentTimeseries: points,
		RedditThreads:       threads,
	}
}

func TestStoriesJobStoresPoints(t *testing.T) {
	t.Parallel()

	store, pool := newTestStore(t)
	if _, err := entity.Seed(context.Background(), pool); err != nil {
		t.Fatalf("seed: %v", err)
	}

	client := &fakeClient{
		stories: map[string][]asknews.Story{
			"Claude": {storyWith(
				[]map[string]any{
					{"timestamp": "2025-06-01T12:00:00Z", "sentiment": 0.5, "article_count": float64(3)},
					{"timestamp": "2025-06-01T13:00:00Z", "sentiment": 0.1},
				},
				[]map[string]any{{"sentiment": 0.7}, {"sentiment": 0.3}},
			)},
		},
	}

	job := NewStoriesJob(factoryFor(client), pool, store, testPolicy(), []string{"Claude"}, 5, zerolog.Nop())
	metadata, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if metadata["successful"] != 1 {
		t.Fatalf("successful = %v, want 1", metadata["successful"])
	}
	if metadata["timeseries_points_stored"] != 2 {
		t.Fatalf("timeseries_points_stored = %v, want 2", metadata["timeseries_points_stored"])
	}
	if metadata["stories_with_reddit"] != 1 {
		t.Fatalf("stories_with_reddit = %v, want 1", metadata["stories_with_reddit"])
	}

	var rows []db.SentimentTimeseries
	if err := pool.GORM().Order("timestamp").Find(&rows).Error; err != nil {
		t.Fatalf("load rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	first := rows[0]
	if first.Period != db.PeriodHourly {
		t.Fatalf("Period = %q, want hourly", first.Period)
	}
	if first.SentimentMean == nil || *first.SentimentMean != 0.5 {
		t.Fatalf("SentimentMean = %v, want 0.5", first.SentimentMean)
	}
	if first.ArticleCount == nil || *first.ArticleCount != 3 {
		t.Fatalf("ArticleCount = %v, want 3", first.ArticleCount)
	}
	if first.RedditSentiment == nil || *first.RedditSentiment != 0.5 {
		t.Fatalf("RedditSentiment = %v, want 0.5", first.RedditSentiment)
	}
	if first.RedditThreadCount == nil || *first.RedditThreadCount != 2 {
		t.Fatalf("RedditThreadCount = %v, want 2", first.RedditThreadCount)
	}
}

func TestStoriesJobRerunStoresNothingNew(t *testing.T) {
	t.Parallel()

	store, pool := newTestStore(t)
	if _, err := entity.Seed(context.Background(), pool); err != nil {
		t.Fatalf("seed: %v", err)
	}

	client := &fakeClient{
		stories: map[string][]asknews.Story{
			"Claude": {storyWith(
				[]map[string]any{{"timestamp": "2025-06-01T12:00:00Z", "sentiment": 0.5}},
				nil,
			)},
		},
	}

	job := NewStoriesJob(factoryFor(client), pool, store, testPolicy(), []string{"Claude"}, 5, zerolog.Nop())

	if _, err := job.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	metadata, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if metadata["timeseries_points_stored"] != 0 {
		t.Fatalf("second run stored = %v, want 0", metadata["timeseries_points_stored"])
	}

	var rows int64
	if err := pool.GORM().Model(&db.SentimentTimeseries{}).Count(&rows).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if rows != 1 {
		t.Fatalf("rows = %d, want 1", rows)
	}
}

func TestStoriesJobIsolatesEntityFailures(t *testing.T) {
	t.Parallel()

	store, pool := newTestStore(t)
	if _, err := entity.Seed(context.Background(), pool); err != nil {
		t.Fatalf("seed: %v", err)
	}

	client := &fakeClient{
		stories: map[string][]asknews.Story{
			"GPT-4o": {storyWith([]map[string]any{{"timestamp": "2025-06-01T10:00:00Z", "sentiment": 0.2}}, nil)},
			"Gemini": {storyWith([]map[string]any{{"timestamp": "2025-06-01T11:00:00Z", "sentiment": 0.4}}, nil)},
		},
		storyErr: map[string]error{
			"Claude": errors.New("upstream 500"),
		},
	}

	job := NewStoriesJob(factoryFor(client), pool, store, testPolicy(), []string{"GPT-4o", "Claude", "Gemini"}, 5, zerolog.Nop())
	metadata, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if metadata["successful"] != 2 {
		t.Fatalf("successful = %v, want 2", metadata["successful"])
	}
	if metadata["failed"] != 1 {
		t.Fatalf("failed = %v, want 1", metadata["failed"])
	}
	if metadata["timeseries_points_stored"] != 2 {
		t.Fatalf("timeseries_points_stored = %v, want 2", metadata["timeseries_points_stored"])
	}
}

func TestStoriesJobUnseededEntityFails(t *testing.T) {
	t.Parallel()

	store, pool := newTestStore(t)
	// No seed: every resolution fails.

	client := &fakeClient{}
	job := NewStoriesJob(factoryFor(client), pool, store, testPolicy(), []string{"Claude"}, 5, zerolog.Nop())

	metadata, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if metadata["failed"] != 1 {
		t.Fatalf("failed = %v, want 1", metadata["failed"])
	}
	if metadata["successful"] != 0 {
		t.Fatalf("successful = %v, want 0", metadata["successful"])
	}
}

func TestStoriesJobClientConstructionFailure(t *testing.T) {
	t.Parallel()

	store, pool := newTestStore(t)
	factory := func() (asknews.Client, error) {
		return nil, errors.New("missing API key")
	}

	job := NewStoriesJob(factory, pool, store, testPolicy(), []string{"GPT-4o", "Claude"}, 5, zerolog.Nop())
	metadata, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if metadata["failed"] != 2 {
		t.Fatalf("failed = %v, want 2", metadata["failed"])
	}
	entityErrors := metadata["errors"].([]EntityError)
	if len(entityErrors) != 1 || entityErrors[0].Entity != "ALL" {
		t.Fatalf("errors = %+v, want single ALL entry", entityErrors)
	}
}
