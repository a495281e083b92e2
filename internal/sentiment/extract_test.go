package sentiment

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"vibecheck.dev/vibecheck/internal/asknews"
)

func TestExtractTimeseriesAndReddit(t *testing.T) {
	t.Parallel()

	story := asknews.Story{
		StoryID:    "story-1",
		EntityName: "Claude",
		SentimentTimeseries: []map[string]any{
			{"timestamp": "2025-06-01T12:00:00Z", "sentiment": 0.5, "article_count": float64(3)},
		},
		RedditThreads: []map[string]any{
			{"sentiment": 0.7},
			{"score": 0.3},
		},
	}

	agg := Extract(story, zerolog.Nop())

	if agg.StoryID != "story-1" {
		t.Fatalf("StoryID = %q, want story-1", agg.StoryID)
	}
	if len(agg.Points) != 1 {
		t.Fatalf("points = %d, want 1", len(agg.Points))
	}
	point := agg.Points[0]
	want := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if !point.Timestamp.Equal(want) {
		t.Fatalf("Timestamp = %v, want %v", point.Timestamp, want)
	}
	if point.SentimentMean != 0.5 {
		t.Fatalf("SentimentMean = %v, want 0.5", point.SentimentMean)
	}
	if point.ArticleCount != 3 {
		t.Fatalf("ArticleCount = %d, want 3", point.ArticleCount)
	}

	if !agg.HasReddit {
		t.Fatalf("HasReddit = false, want true")
	}
	if agg.RedditThreadCount != 2 {
		t.Fatalf("RedditThreadCount = %d, want 2", agg.RedditThreadCount)
	}
	if agg.RedditSentiment == nil {
		t.Fatalf("RedditSentiment is nil")
	}
	if math.Abs(*agg.RedditSentiment-0.5) > 1e-9 {
		t.Fatalf("RedditSentiment = %v, want 0.5", *agg.RedditSentiment)
	}
}

func TestExtractSkipsUnusableEntries(t *testing.T) {
	t.Parallel()

	story := asknews.Story{
		StoryID: "story-2",
		SentimentTimeseries: []map[string]any{
			{"sentiment": 0.4},                                   // no timestamp
			{"timestamp": "not a date", "sentiment": 0.4},        // bad timestamp
			{"timestamp": "2025-06-01"},                          // no sentiment
			{"timestamp": "2025-06-02", "sentiment_mean": "0.8"}, // usable, drifted keys
		},
	}

	agg := Extract(story, zerolog.Nop())

	if len(agg.Points) != 1 {
		t.Fatalf("points = %d, want 1", len(agg.Points))
	}
	if agg.Points[0].SentimentMean != 0.8 {
		t.Fatalf("SentimentMean = %v, want 0.8", agg.Points[0].SentimentMean)
	}
	if agg.Points[0].ArticleCount != 1 {
		t.Fatalf("ArticleCount = %d, want default 1", agg.Points[0].ArticleCount)
	}
}

func TestExtractKeyDrift(t *testing.T) {
	t.Parallel()

	story := asknews.Story{
		StoryID: "story-3",
		SentimentTimeseries: []map[string]any{
			{"time": "2025-06-03T00:00:00Z", "score": 0.25, "count": float64(7)},
			{"date": "2025-06-04", "sentiment_mean": -0.1},
		},
	}

	agg := Extract(story, zerolog.Nop())

	if len(agg.Points) != 2 {
		t.Fatalf("points = %d, want 2", len(agg.Points))
	}
	if agg.Points[0].ArticleCount != 7 {
		t.Fatalf("ArticleCount = %d, want 7", agg.Points[0].ArticleCount)
	}
	if agg.Points[1].SentimentMean != -0.1 {
		t.Fatalf("SentimentMean = %v, want -0.1", agg.Points[1].SentimentMean)
	}
}

func TestExtractRedditNoUsableValues(t *testing.T) {
	t.Parallel()

	story := asknews.Story{
		StoryID: "story-4",
		RedditThreads: []map[string]any{
			{"title": "thread without sentiment"},
			{"sentiment": "not a number"},
		},
	}

	agg := Extract(story, zerolog.Nop())

	if agg.RedditSentiment != nil {
		t.Fatalf("RedditSentiment = %v, want nil", *agg.RedditSentiment)
	}
	if agg.RedditThreadCount != 2 {
		t.Fatalf("RedditThreadCount = %d, want 2", agg.RedditThreadCount)
	}
	if !agg.HasReddit {
		t.Fatalf("HasReddit = false, want true")
	}
}

func TestExtractEmptyStory(t *testing.T) {
	t.Parallel()

	agg := Extract(asknews.Story{StoryID: "story-5"}, zerolog.Nop())

	if len(agg.Points) != 0 {
		t.Fatalf("points = %d, want 0", len(agg.Points))
	}
	if agg.RedditSentiment != nil || agg.RedditThreadCount != 0 || agg.HasReddit {
		t.Fatalf("empty story produced reddit aggregate: %+v", agg)
	}
}
