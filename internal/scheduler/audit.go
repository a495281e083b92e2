package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"vibecheck.dev/vibecheck/internal/db"
	"vibecheck.dev/vibecheck/internal/globaltime"
)

const maxAuditErrorLength = 4000

// ExecutionRecorder writes the job execution audit trail. Every invocation
// gets a running row at start and exactly one completion write; a crash in
// between leaves the running row as an accepted, visible gap.
type ExecutionRecorder struct {
	pool   *db.Pool
	logger zerolog.Logger
}

func NewExecutionRecorder(pool *db.Pool, logger zerolog.Logger) *ExecutionRecorder {
	return &ExecutionRecorder{
		pool:   pool,
		logger: logger,
	}
}

// Begin inserts the running record and returns the opaque execution id.
func (r *ExecutionRecorder) Begin(ctx context.Context, jobName string, startedAt time.Time) (string, error) {
	executionID := uuid.NewString()

	row := db.JobExecution{
		ExecutionID: executionID,
		JobName:     jobName,
		Status:      db.JobStatusRunning,
		StartedAt:   startedAt,
		CreatedAt:   globaltime.UTC(),
	}
	if err := r.pool.GORM().WithContext(ctx).Create(&row).Error; err != nil {
		return executionID, fmt.Errorf("insert job execution: %w", err)
	}
	return executionID, nil
}

// Complete patches the record to success and attaches the job's metadata.
func (r *ExecutionRecorder) Complete(ctx context.Context, executionID string, startedAt, completedAt time.Time, metadata map[string]any) error {
	duration := completedAt.Sub(startedAt).Seconds()

	updates := map[string]any{
		"status":           db.JobStatusSuccess,
		"completed_at":     completedAt,
		"duration_seconds": duration,
	}

	if metadata != nil {
		encoded, err := json.Marshal(metadata)
		if err != nil {
			r.logger.Warn().Err(err).Str("execution_id", executionID).Msg("metadata not serializable, dropping")
		} else {
			updates["metadata"] = datatypes.JSON(encoded)
		}
	}

	err := r.pool.GORM().WithContext(ctx).
		Model(&db.JobExecution{}).
		Where("execution_id = ?", executionID).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("mark job execution success: %w", err)
	}
	return nil
}

// Fail patches the record to failed with the truncated error text.
func (r *ExecutionRecorder) Fail(ctx context.Context, executionID string, startedAt, completedAt time.Time, cause error) error {
	duration := completedAt.Sub(startedAt).Seconds()

	msg := strings.TrimSpace(cause.Error())
	if len(msg) > maxAuditErrorLength {
		msg = msg[:maxAuditErrorLength]
	}

	err := r.pool.GORM().WithContext(ctx).
		Model(&db.JobExecution{}).
		Where("execution_id = ?", executionID).
		Updates(map[string]any{
			"status":           db.JobStatusFailed,
			"completed_at":     completedAt,
			"duration_seconds": duration,
			"error_message":    msg,
		}).Error
	if err != nil {
		return fmt.Errorf("mark job execution failed: %w", err)
	}
	return nil
}
