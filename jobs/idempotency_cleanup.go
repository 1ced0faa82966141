package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/vinylworks/vinylops/internal/jobs"
)

// DefaultRetentionHours keeps idempotency keys for a week.
const DefaultRetentionHours = 7 * 24

// KeyCleaner deletes idempotency keys older than a retention window.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// IdempotencyCleanupJob handles idempotency:cleanup tasks.
type IdempotencyCleanupJob struct {
	Keys    KeyCleaner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewIdempotencyCleanupJob wires the cleanup handler.
func NewIdempotencyCleanupJob(keys KeyCleaner, logger *slog.Logger, metrics *jobmetrics.Metrics) *IdempotencyCleanupJob {
	return &IdempotencyCleanupJob{Keys: keys, Logger: logger, Metrics: metrics}
}

// Handle purges expired keys.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Keys == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	var payload IdempotencyCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("idempotency cleanup: decode payload: %w", asynq.SkipRetry)
	}
	if payload.RetentionHours <= 0 {
		payload.RetentionHours = DefaultRetentionHours
	}

	metrics := j.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	tracker := metrics.Track(TaskIdempotencyCleanup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	removed, err := j.Keys.Cleanup(ctx, time.Duration(payload.RetentionHours)*time.Hour)
	if err != nil {
		return err
	}
	metrics.AddItems(TaskIdempotencyCleanup, int(removed))

	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("idempotency keys purged", slog.String("job", TaskIdempotencyCleanup), slog.Int64("removed", removed), slog.Int("retention_hours", payload.RetentionHours))
	return nil
}
