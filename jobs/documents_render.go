package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/vinylworks/vinylops/internal/documents"
	jobmetrics "github.com/vinylworks/vinylops/internal/jobs"
)

// DocumentStore renders a queued document and persists the PDF.
type DocumentStore interface {
	RenderToStore(ctx context.Context, job documents.RenderJob) error
}

// DocumentRenderJob handles documents:render tasks.
type DocumentRenderJob struct {
	Documents DocumentStore
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewDocumentRenderJob wires the render handler.
func NewDocumentRenderJob(docs DocumentStore, logger *slog.Logger, metrics *jobmetrics.Metrics) *DocumentRenderJob {
	return &DocumentRenderJob{Documents: docs, Logger: logger, Metrics: metrics}
}

// Handle renders one document. Payload and validation errors are not retried;
// renderer failures are.
func (j *DocumentRenderJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Documents == nil {
		return errors.New("documents render: handler not configured")
	}
	var job documents.RenderJob
	if err := json.Unmarshal(t.Payload(), &job); err != nil || job.ID == "" {
		return fmt.Errorf("documents render: bad payload: %w", asynq.SkipRetry)
	}

	metrics := j.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	tracker := metrics.Track(TaskDocumentsRender)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("job", TaskDocumentsRender), slog.String("id", job.ID), slog.String("kind", string(job.Kind)))

	err := j.Documents.RenderToStore(ctx, job)
	switch {
	case err == nil:
		metrics.AddItems(TaskDocumentsRender, 1)
		return nil
	case errors.Is(err, documents.ErrValidation), errors.Is(err, documents.ErrUnknownKind), errors.Is(err, documents.ErrNotFound):
		logger.Warn("document rejected", slog.Any("error", err))
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	default:
		logger.Error("render document", slog.Any("error", err))
		return err
	}
}
