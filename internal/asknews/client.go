package asknews

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrMissingAPIKey means the client cannot be constructed at all. Jobs treat
// this as fatal for the whole invocation, recorded once.
var ErrMissingAPIKey = errors.New("ASKNEWS_API_KEY is required")

const defaultBaseURL = "https://api.asknews.app/v1"

// APIError is a non-2xx upstream response. It is never retried.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("asknews API returned status %d: %s", e.StatusCode, e.Body)
}

type ClientConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// HTTPClient talks to the AskNews REST endpoints with API-key bearer auth.
type HTTPClient struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
	logger  zerolog.Logger
}

func NewHTTPClient(cfg ClientConfig, logger zerolog.Logger) (*HTTPClient, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

type newsResponse struct {
	Articles []json.RawMessage `json:"articles"`
}

type wireArticle struct {
	ArticleID  any      `json:"article_id"`
	Title      *string  `json:"title"`
	Sentiment  *float64 `json:"sentiment"`
	ArticleURL *string  `json:"article_url"`
	DomainURL  *string  `json:"domain_url"`
	PubDate    *string  `json:"pub_date"`
}

// FetchNews returns news search results for one entity. Records that fail
// schema validation are skipped, not fatal.
func (c *HTTPClient) FetchNews(ctx context.Context, entityName string, limit int) ([]Article, error) {
	query := url.Values{}
	query.Set("query", entityName)
	query.Set("n_articles", strconv.Itoa(limit))

	body, err := c.get(ctx, "/news/search", query)
	if err != nil {
		return nil, fmt.Errorf("fetch news for %q: %w", entityName, err)
	}

	var resp newsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode news response for %q: %w", entityName, err)
	}

	articles := make([]Article, 0, len(resp.Articles))
	for _, raw := range resp.Articles {
		if _, err := validateArticlePayload(raw); err != nil {
			c.logger.Warn().Err(err).Str("entity", entityName).Msg("skipping invalid article record")
			continue
		}

		var wire wireArticle
		if err := json.Unmarshal(raw, &wire); err != nil {
			c.logger.Warn().Err(err).Str("entity", entityName).Msg("skipping undecodable article record")
			continue
		}

		articles = append(articles, Article{
			ExternalID:  stringifyID(wire.ArticleID),
			Title:       wire.Title,
			EntityName:  entityName,
			Sentiment:   wire.Sentiment,
			URL:         wire.ArticleURL,
			SourceURL:   wire.DomainURL,
			PublishedAt: wire.PubDate,
		})
	}

	c.logger.Info().Str("entity", entityName).Int("count", len(articles)).Msg("asknews news fetched")
	return articles, nil
}

type storiesResponse struct {
	Stories []wireStory `json:"stories"`
}

type wireStory struct {
	UUID                      string            `json:"uuid"`
	Topic                     string            `json:"topic"`
	SentimentTimestamps       []string          `json:"sentiment_timestamps"`
	Sentiment                 []float64         `json:"sentiment"`
	RedditSentimentTimestamps []string          `json:"reddit_sentiment_timestamps"`
	RedditSentiment           []float64         `json:"reddit_sentiment"`
	Updates                   []wireStoryUpdate `json:"updates"`
}

type wireStoryUpdate struct {
	RedditThreads []map[string]any `json:"reddit_threads"`
}

// FetchStories returns story clusters for one entity. The upstream parallel
// timestamp/score arrays are zipped into loose time-series entries.
func (c *HTTPClient) FetchStories(ctx context.Context, entityName string, limit int) ([]Story, error) {
	query := url.Values{}
	query.Set("query", entityName)
	query.Set("limit", strconv.Itoa(limit))

	body, err := c.get(ctx, "/stories", query)
	if err != nil {
		return nil, fmt.Errorf("fetch stories for %q: %w", entityName, err)
	}

	var resp storiesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode stories response for %q: %w", entityName, err)
	}

	stories := make([]Story, 0, len(resp.Stories))
	for _, wire := range resp.Stories {
		story := Story{
			StoryID:                   wire.UUID,
			EntityName:                entityName,
			Headline:                  wire.Topic,
			SentimentTimeseries:       zipTimeseries(wire.SentimentTimestamps, wire.Sentiment),
			RedditSentimentTimeseries: zipTimeseries(wire.RedditSentimentTimestamps, wire.RedditSentiment),
		}

		// Threads come from the most recent update only.
		if len(wire.Updates) > 0 {
			story.RedditThreads = wire.Updates[0].RedditThreads
		}

		stories = append(stories, story)
	}

	c.logger.Info().Str("entity", entityName).Int("count", len(stories)).Msg("asknews stories fetched")
	return stories, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: truncate(string(body), 512)}
	}

	return body, nil
}

func zipTimeseries(timestamps []string, scores []float64) []map[string]any {
	n := min(len(timestamps), len(scores))
	if n == 0 {
		return nil
	}
	entries := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, map[string]any{
			"timestamp": timestamps[i],
			"score":     scores[i],
		})
	}
	return entries
}

func stringifyID(v any) *string {
	switch id := v.(type) {
	case nil:
		return nil
	case string:
		if strings.TrimSpace(id) == "" {
			return nil
		}
		return &id
	case json.Number:
		s := id.String()
		return &s
	case float64:
		s := strconv.FormatFloat(id, 'f', -1, 64)
		return &s
	default:
		s := fmt.Sprintf("%v", id)
		return &s
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
