package httpapi

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"vibecheck.dev/vibecheck/internal/db"
)

type entityItem struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

type entityDetail struct {
	entityItem
	LatestSentiment *float64 `json:"latest_sentiment"`
}

type sentimentPoint struct {
	Timestamp         time.Time `json:"timestamp"`
	Period            string    `json:"period"`
	SentimentMean     *float64  `json:"sentiment_mean"`
	SentimentMin      *float64  `json:"sentiment_min"`
	SentimentMax      *float64  `json:"sentiment_max"`
	SentimentStd      *float64  `json:"sentiment_std"`
	ArticleCount      *int      `json:"article_count"`
	RedditSentiment   *float64  `json:"reddit_sentiment"`
	RedditThreadCount *int      `json:"reddit_thread_count"`
}

type sentimentResponse struct {
	EntityID   int64            `json:"entity_id"`
	Period     string           `json:"period"`
	Data       []sentimentPoint `json:"data"`
	NextCursor *string          `json:"next_cursor"`
	HasMore    bool             `json:"has_more"`
}

func (s *Server) handleEntities(c echo.Context) error {
	var rows []db.Entity
	err := s.pool.GORM().WithContext(c.Request().Context()).
		Order("name").
		Find(&rows).Error
	if err != nil {
		s.logger.Error().Err(err).Msg("query entities failed")
		return internalError(c, "Failed to load entities")
	}

	items := make([]entityItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, entityItem{
			ID:        row.ID,
			Name:      row.Name,
			Category:  row.Category,
			CreatedAt: row.CreatedAt,
		})
	}
	return success(c, map[string]any{"items": items})
}

func (s *Server) handleEntityDetail(c echo.Context) error {
	entityID, err := parseEntityID(c.Param("entity_id"))
	if err != nil {
		return failValidation(c, map[string]string{"entity_id": "must be a positive integer"})
	}

	ctx := c.Request().Context()

	row, err := s.loadEntity(ctx, entityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return failNotFound(c, "Entity not found")
		}
		s.logger.Error().Err(err).Int64("entity_id", entityID).Msg("query entity failed")
		return internalError(c, "Failed to load entity")
	}

	detail := entityDetail{
		entityItem: entityItem{
			ID:        row.ID,
			Name:      row.Name,
			Category:  row.Category,
			CreatedAt: row.CreatedAt,
		},
	}

	var latest db.SentimentTimeseries
	err = s.pool.GORM().WithContext(ctx).
		Where("entity_id = ? AND period = ?", entityID, db.PeriodDaily).
		Order("timestamp DESC").
		First(&latest).Error
	switch {
	case err == nil:
		detail.LatestSentiment = latest.SentimentMean
	case errors.Is(err, gorm.ErrRecordNotFound):
		// No sentiment yet; latest stays null.
	default:
		s.logger.Error().Err(err).Int64("entity_id", entityID).Msg("query latest sentiment failed")
		return internalError(c, "Failed to load entity")
	}

	return success(c, detail)
}

func (s *Server) handleEntitySentiment(c echo.Context) error {
	entityID, err := parseEntityID(c.Param("entity_id"))
	if err != nil {
		return failValidation(c, map[string]string{"entity_id": "must be a positive integer"})
	}

	period := strings.TrimSpace(strings.ToLower(c.QueryParam("period")))
	if period == "" {
		period = db.PeriodDaily
	}
	if period != db.PeriodHourly && period != db.PeriodDaily {
		return failValidation(c, map[string]string{"period": "must be hourly or daily"})
	}

	limit := defaultSentimentLimit
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxSentimentLimit {
			return failValidation(c, map[string]string{"limit": "must be an integer between 1 and 1000"})
		}
		limit = parsed
	}

	startDate, err := parseTimeParam(c.QueryParam("start_date"))
	if err != nil {
		return failValidation(c, map[string]string{"start_date": "must be RFC3339"})
	}
	endDate, err := parseTimeParam(c.QueryParam("end_date"))
	if err != nil {
		return failValidation(c, map[string]string{"end_date": "must be RFC3339"})
	}
	cursor, err := parseTimeParam(c.QueryParam("cursor"))
	if err != nil {
		return failValidation(c, map[string]string{"cursor": "must be RFC3339"})
	}

	ctx := c.Request().Context()

	if _, err := s.loadEntity(ctx, entityID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return failNotFound(c, "Entity not found")
		}
		s.logger.Error().Err(err).Int64("entity_id", entityID).Msg("query entity failed")
		return internalError(c, "Failed to load sentiment")
	}

	query := s.pool.GORM().WithContext(ctx).
		Where("entity_id = ? AND period = ?", entityID, period)
	if startDate != nil {
		query = query.Where("timestamp >= ?", *startDate)
	}
	if endDate != nil {
		query = query.Where("timestamp <= ?", *endDate)
	}
	if cursor != nil {
		query = query.Where("timestamp < ?", *cursor)
	}

	var rows []db.SentimentTimeseries
	if err := query.Order("timestamp DESC").Limit(limit).Find(&rows).Error; err != nil {
		s.logger.Error().Err(err).Int64("entity_id", entityID).Msg("query sentiment failed")
		return internalError(c, "Failed to load sentiment")
	}

	points := make([]sentimentPoint, 0, len(rows))
	for _, row := range rows {
		points = append(points, sentimentPoint{
			Timestamp:         row.Timestamp,
			Period:            row.Period,
			SentimentMean:     row.SentimentMean,
			SentimentMin:      row.SentimentMin,
			SentimentMax:      row.SentimentMax,
			SentimentStd:      row.SentimentStd,
			ArticleCount:      row.ArticleCount,
			RedditSentiment:   row.RedditSentiment,
			RedditThreadCount: row.RedditThreadCount,
		})
	}

	var nextCursor *string
	if len(points) > 0 {
		formatted := points[len(points)-1].Timestamp.Format(time.RFC3339)
		nextCursor = &formatted
	}

	return success(c, sentimentResponse{
		EntityID:   entityID,
		Period:     period,
		Data:       points,
		NextCursor: nextCursor,
		HasMore:    len(points) == limit,
	})
}

func (s *Server) loadEntity(ctx context.Context, entityID int64) (*db.Entity, error) {
	var row db.Entity
	err := s.pool.GORM().WithContext(ctx).
		Where("id = ?", entityID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func parseEntityID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id < 1 {
		return 0, errors.New("invalid entity id")
	}
	return id, nil
}

func parseTimeParam(raw string) (*time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return nil, err
	}
	utc := parsed.UTC()
	return &utc, nil
}
