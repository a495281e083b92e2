package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"VC_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"VC_DB_MAX_CONNS" default:"8"`

	AskNewsAPIKey  string `envconfig:"ASKNEWS_API_KEY" default:""`
	AskNewsBaseURL string `envconfig:"ASKNEWS_BASE_URL" default:"https://api.asknews.app/v1"`
	FetchLimit     int    `envconfig:"FETCH_LIMIT" default:"10"`

	NewsIntervalMinutes    int `envconfig:"NEWS_INTERVAL_MINUTES" default:"15"`
	StoriesIntervalMinutes int `envconfig:"STORIES_INTERVAL_MINUTES" default:"60"`

	NewsRetryFloor    time.Duration `envconfig:"NEWS_RETRY_FLOOR" default:"1s"`
	NewsRetryCeil     time.Duration `envconfig:"NEWS_RETRY_CEIL" default:"16s"`
	StoriesRetryFloor time.Duration `envconfig:"STORIES_RETRY_FLOOR" default:"2s"`
	StoriesRetryCeil  time.Duration `envconfig:"STORIES_RETRY_CEIL" default:"10s"`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("VC_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("VC_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("VC_DB_MIN_CONNS (%d) cannot exceed VC_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.FetchLimit < 1 {
		return fmt.Errorf("FETCH_LIMIT must be >= 1")
	}
	if c.NewsIntervalMinutes < 1 {
		return fmt.Errorf("NEWS_INTERVAL_MINUTES must be >= 1")
	}
	if c.StoriesIntervalMinutes < 1 {
		return fmt.Errorf("STORIES_INTERVAL_MINUTES must be >= 1")
	}
	if c.NewsRetryFloor <= 0 || c.NewsRetryCeil < c.NewsRetryFloor {
		return fmt.Errorf("news retry bounds must satisfy 0 < floor <= ceil")
	}
	if c.StoriesRetryFloor <= 0 || c.StoriesRetryCeil < c.StoriesRetryFloor {
		return fmt.Errorf("stories retry bounds must satisfy 0 < floor <= ceil")
	}
	return nil
}

func (c *Config) NewsInterval() time.Duration {
	return time.Duration(c.NewsIntervalMinutes) * time.Minute
}

func (c *Config) StoriesInterval() time.Duration {
	return time.Duration(c.StoriesIntervalMinutes) * time.Minute
}

func (c *Config) CORSAllowedOriginsList() []string {
	if c == nil {
		return nil
	}

	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		if _, exists := seen[origin]; exists {
			continue
		}
		seen[origin] = struct{}{}
		origins = append(origins, origin)
	}
	return origins
}
