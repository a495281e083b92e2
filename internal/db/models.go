package db

import (
	"time"

	"gorm.io/datatypes"
)

// Entity is a tracked AI model or tool. Rows are created once by the seed
// command and are read-only to the pipeline.
type Entity struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;type:varchar(255);not null;uniqueIndex"`
	Category  string    `gorm:"column:category;type:varchar(50);not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (Entity) TableName() string { return "entities" }

// Article is a deduplicated raw content unit. Insert-only; the unique indexes
// on external_id and url are the final backstop against racing writers.
type Article struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ExternalID     string    `gorm:"column:external_id;type:varchar(255);not null;uniqueIndex"`
	Title          string    `gorm:"column:title;type:varchar(500);not null"`
	URL            string    `gorm:"column:url;not null;uniqueIndex"`
	URLHash        string    `gorm:"column:url_hash;type:varchar(64);not null;index"`
	SourceName     *string   `gorm:"column:source_name;type:varchar(255)"`
	PublishedAt    time.Time `gorm:"column:published_at;not null;index"`
	SentimentScore *float64  `gorm:"column:sentiment_score"`
	CreatedAt      time.Time `gorm:"column:created_at;not null"`
}

func (Article) TableName() string { return "articles" }

// SentimentTimeseries is a pre-computed sentiment aggregate for one entity and
// one time bucket. At most one row exists per (entity_id, timestamp, period);
// the composite unique index is the upsert's conflict target.
type SentimentTimeseries struct {
	ID                int64     `gorm:"column:id;primaryKey;autoIncrement"`
	EntityID          int64     `gorm:"column:entity_id;not null;index;uniqueIndex:uq_sentiment_entity_ts_period"`
	Timestamp         time.Time `gorm:"column:timestamp;not null;index;uniqueIndex:uq_sentiment_entity_ts_period"`
	Period            string    `gorm:"column:period;type:varchar(10);not null;uniqueIndex:uq_sentiment_entity_ts_period"`
	SentimentMean     *float64  `gorm:"column:sentiment_mean"`
	SentimentMin      *float64  `gorm:"column:sentiment_min"`
	SentimentMax      *float64  `gorm:"column:sentiment_max"`
	SentimentStd      *float64  `gorm:"column:sentiment_std"`
	ArticleCount      *int      `gorm:"column:article_count"`
	RedditSentiment   *float64  `gorm:"column:reddit_sentiment"`
	RedditThreadCount *int      `gorm:"column:reddit_thread_count"`
	CreatedAt         time.Time `gorm:"column:created_at;not null"`
}

func (SentimentTimeseries) TableName() string { return "sentiment_timeseries" }

// JobExecution is one row of the scheduler audit trail. Created with status
// running at invocation start and patched exactly once on completion.
type JobExecution struct {
	ID              int64          `gorm:"column:id;primaryKey;autoIncrement"`
	ExecutionID     string         `gorm:"column:execution_id;type:varchar(36);not null;index"`
	JobName         string         `gorm:"column:job_name;type:varchar(50);not null;index"`
	Status          string         `gorm:"column:status;type:varchar(20);not null"`
	StartedAt       time.Time      `gorm:"column:started_at;not null"`
	CompletedAt     *time.Time     `gorm:"column:completed_at"`
	DurationSeconds *float64       `gorm:"column:duration_seconds"`
	ErrorMessage    *string        `gorm:"column:error_message;type:text"`
	Metadata        datatypes.JSON `gorm:"column:metadata"`
	CreatedAt       time.Time      `gorm:"column:created_at;not null"`
}

func (JobExecution) TableName() string { return "job_executions" }

const (
	JobStatusRunning = "running"
	JobStatusSuccess = "success"
	JobStatusFailed  = "failed"
)

const (
	PeriodHourly = "hourly"
	PeriodDaily  = "daily"
)

func autoMigrateModels() []any {
	return []any{
		&Entity{},
		&Article{},
		&SentimentTimeseries{},
		&JobExecution{},
	}
}
