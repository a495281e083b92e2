// Package sentiment turns loosely-typed story payloads into time-bucketed
// aggregate points plus a Reddit sub-aggregate. The upstream schema drifts,
// so extraction tolerates several key spellings and skips unusable entries
// instead of failing the story.
package sentiment

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"vibecheck.dev/vibecheck/internal/asknews"
)

// TimePoint is one extracted time-series entry.
type TimePoint struct {
	Timestamp     time.Time
	SentimentMean float64
	ArticleCount  int
}

// Aggregate is everything extracted from one story cluster.
type Aggregate struct {
	StoryID           string
	Points            []TimePoint
	RedditSentiment   *float64
	RedditThreadCount int
	HasReddit         bool
}

// SkipReason explains why a time-series entry was dropped. Skipping is a
// normal branch, not an error.
type SkipReason string

const (
	SkipNone         SkipReason = ""
	SkipNoTimestamp  SkipReason = "missing timestamp"
	SkipBadTimestamp SkipReason = "unparseable timestamp"
	SkipNoSentiment  SkipReason = "missing sentiment value"
)

var timestampKeys = []string{"timestamp", "time", "date"}
var sentimentKeys = []string{"sentiment", "sentiment_mean", "score"}
var countKeys = []string{"article_count", "count"}

// Extract aggregates one story payload. A malformed story yields an empty
// aggregate (no points, nil Reddit sentiment, zero threads) so the calling
// job can continue to the next story.
func Extract(story asknews.Story, logger zerolog.Logger) Aggregate {
	agg := Aggregate{StoryID: story.StoryID}

	for _, entry := range story.SentimentTimeseries {
		point, reason := extractPoint(entry)
		if reason != SkipNone {
			logger.Warn().
				Str("story_id", story.StoryID).
				Str("reason", string(reason)).
				Msg("skipping time-series entry")
			continue
		}
		agg.Points = append(agg.Points, point)
	}

	agg.RedditSentiment, agg.RedditThreadCount = extractReddit(story.RedditThreads)
	agg.HasReddit = agg.RedditThreadCount > 0

	logger.Debug().
		Str("story_id", story.StoryID).
		Str("entity", story.EntityName).
		Int("timeseries_points", len(agg.Points)).
		Int("reddit_threads", agg.RedditThreadCount).
		Msg("story sentiment extracted")

	return agg
}

func extractPoint(entry map[string]any) (TimePoint, SkipReason) {
	rawTimestamp, ok := firstValue(entry, timestampKeys)
	if !ok {
		return TimePoint{}, SkipNoTimestamp
	}

	timestamp, ok := parseTimestamp(rawTimestamp)
	if !ok {
		return TimePoint{}, SkipBadTimestamp
	}

	rawSentiment, ok := firstValue(entry, sentimentKeys)
	if !ok {
		return TimePoint{}, SkipNoSentiment
	}
	mean, ok := toFloat(rawSentiment)
	if !ok {
		return TimePoint{}, SkipNoSentiment
	}

	count := 1
	if rawCount, ok := firstValue(entry, countKeys); ok {
		if parsed, ok := toFloat(rawCount); ok {
			count = int(parsed)
		}
	}

	return TimePoint{
		Timestamp:     timestamp.UTC(),
		SentimentMean: mean,
		ArticleCount:  count,
	}, SkipNone
}

// extractReddit averages the sentiment/score field across threads that carry
// a numeric value. With zero usable values the mean stays nil while the
// thread count still reports every thread seen.
func extractReddit(threads []map[string]any) (*float64, int) {
	if len(threads) == 0 {
		return nil, 0
	}

	sum := 0.0
	usable := 0
	for _, thread := range threads {
		raw, ok := firstValue(thread, sentimentKeys)
		if !ok {
			continue
		}
		value, ok := toFloat(raw)
		if !ok {
			continue
		}
		sum += value
		usable++
	}

	if usable == 0 {
		return nil, len(threads)
	}

	mean := sum / float64(usable)
	return &mean, len(threads)
}

func firstValue(entry map[string]any, keys []string) (any, bool) {
	for _, key := range keys {
		if value, ok := entry[key]; ok && value != nil {
			return value, true
		}
	}
	return nil, false
}

func parseTimestamp(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case time.Time:
		return v, true
	case string:
		layouts := []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}
		for _, layout := range layouts {
			if parsed, err := time.Parse(layout, v); err == nil {
				return parsed, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		parsed, err := v.Float64()
		return parsed, err == nil
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		return parsed, err == nil
	default:
		return 0, false
	}
}
