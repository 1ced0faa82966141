package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/vinylworks/vinylops/internal/aggregation"
	"github.com/vinylworks/vinylops/internal/analytics"
	jobmetrics "github.com/vinylworks/vinylops/internal/jobs"
	"github.com/vinylworks/vinylops/internal/records"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

var warmupUnits = []aggregation.Unit{aggregation.UnitMonth, aggregation.UnitWeek}

// Summarizer is the analytics entry point warmed by the job.
type Summarizer interface {
	Summarize(ctx context.Context, req analytics.Request) (analytics.Summary, error)
}

// AnalyticsWarmupJob pre-populates the analytics cache for every record kind.
type AnalyticsWarmupJob struct {
	Analytics Summarizer
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewAnalyticsWarmupJob wires dependencies for the warmup handler.
func NewAnalyticsWarmupJob(analyticsSvc Summarizer, logger *slog.Logger, metrics *jobmetrics.Metrics) *AnalyticsWarmupJob {
	return &AnalyticsWarmupJob{
		Analytics: analyticsSvc,
		Logger:    logger,
		Metrics:   metrics,
		clock:     time.Now,
	}
}

// Handle processes analytics warmup tasks.
func (j *AnalyticsWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Analytics == nil {
		return errors.New("analytics warmup: handler not configured")
	}
	var payload AnalyticsWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("analytics warmup: decode payload: %w", asynq.SkipRetry)
	}
	if payload.Months <= 0 {
		payload.Months = DefaultWarmupMonths
	}

	tracker := j.metrics().Track(TaskAnalyticsWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	now := j.now()
	start, end := WarmupWindow(now, payload.Months)
	logger := j.logger().With(slog.String("start", start), slog.String("end", end))
	logger.Info("starting analytics warmup")

	warmed := 0
	for _, kind := range records.Kinds {
		for _, unit := range warmupUnits {
			req := analytics.Request{Kind: kind, Unit: unit, Start: start, End: end}
			if err := j.warm(ctx, req); err != nil {
				logger.Error("warm summary", slog.String("kind", string(kind)), slog.String("unit", string(unit)), slog.Any("error", err))
				return err
			}
			warmed++
		}
	}
	j.metrics().AddItems(TaskAnalyticsWarmup, warmed)
	logger.Info("completed analytics warmup", slog.Int("summaries", warmed), slog.Duration("duration", time.Since(now)))
	return nil
}

func (j *AnalyticsWarmupJob) warm(ctx context.Context, req analytics.Request) error {
	reqCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	_, err := j.Analytics.Summarize(reqCtx, req)
	return err
}

// WarmupWindow returns the first day of the month months-1 before now and
// now itself, both as YYYY-MM-DD.
func WarmupWindow(now time.Time, months int) (string, string) {
	if months <= 0 {
		months = DefaultWarmupMonths
	}
	first := time.Date(now.Year(), now.Month()-time.Month(months-1), 1, 0, 0, 0, 0, now.Location())
	return first.Format(aggregation.DateLayout), now.Format(aggregation.DateLayout)
}

func (j *AnalyticsWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAnalyticsWarmup))
	}
	return slog.Default().With(slog.String("job", TaskAnalyticsWarmup))
}

func (j *AnalyticsWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *AnalyticsWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now()
}
