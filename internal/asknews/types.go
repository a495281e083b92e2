// Package asknews wraps the upstream news provider behind a small typed
// client. Records are validated once at this boundary; optional fields stay
// pointers so downstream code never re-checks for missing keys.
package asknews

import "context"

// Article is one news search result. Every optional upstream field is
// nullable here; the jobs decide on fallbacks.
type Article struct {
	ExternalID  *string
	Title       *string
	EntityName  string
	Sentiment   *float64
	URL         *string
	SourceURL   *string
	PublishedAt *string
}

// Story is one story cluster. The time-series entries and Reddit threads keep
// their loose map shape because the upstream schema drifts; the sentiment
// package owns the tolerant extraction.
type Story struct {
	StoryID                   string
	EntityName                string
	Headline                  string
	SentimentTimeseries       []map[string]any
	RedditSentimentTimeseries []map[string]any
	RedditThreads             []map[string]any
}

// Client is the fetch surface the jobs consume.
type Client interface {
	FetchNews(ctx context.Context, entityName string, limit int) ([]Article, error)
	FetchStories(ctx context.Context, entityName string, limit int) ([]Story, error)
}
