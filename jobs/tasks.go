package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/hibiken/asynq"

	"github.com/vinylworks/vinylops/internal/documents"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueDocuments isolates PDF renders from scheduled maintenance.
	QueueDocuments = "documents"

	// TaskAnalyticsWarmup pre-computes analytics summaries.
	TaskAnalyticsWarmup = "analytics:warmup"
	// TaskDocumentsRender renders one queued document to the file store.
	TaskDocumentsRender = "documents:render"
	// TaskIdempotencyCleanup purges expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// DefaultWarmupMonths is the trailing window warmed when the payload omits it.
const DefaultWarmupMonths = 6

// ErrUnknownTask is returned by NewTaskByName for unsupported names.
var ErrUnknownTask = errors.New("jobs: unknown task")

// AnalyticsWarmupPayload configures the warmup window.
type AnalyticsWarmupPayload struct {
	Months int `json:"months"`
}

// IdempotencyCleanupPayload configures key retention.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retentionHours"`
}

// NewAnalyticsWarmupTask builds a warmup task.
func NewAnalyticsWarmupTask(months int) (*asynq.Task, error) {
	body, err := json.Marshal(AnalyticsWarmupPayload{Months: months})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnalyticsWarmup, body, asynq.Queue(QueueDefault)), nil
}

// NewDocumentRenderTask builds a render task. The document ID doubles as the
// asynq task ID so a job is never queued twice.
func NewDocumentRenderTask(job documents.RenderJob) (*asynq.Task, error) {
	if job.ID == "" {
		return nil, errors.New("jobs: render job id required")
	}
	body, err := json.Marshal(job)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDocumentsRender, body, asynq.Queue(QueueDocuments), asynq.TaskID(job.ID), asynq.MaxRetry(5)), nil
}

// NewIdempotencyCleanupTask builds a cleanup task.
func NewIdempotencyCleanupTask(retentionHours int) (*asynq.Task, error) {
	body, err := json.Marshal(IdempotencyCleanupPayload{RetentionHours: retentionHours})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueDefault)), nil
}

var triggers = map[string]func() (*asynq.Task, error){
	TaskAnalyticsWarmup:    func() (*asynq.Task, error) { return NewAnalyticsWarmupTask(DefaultWarmupMonths) },
	TaskIdempotencyCleanup: func() (*asynq.Task, error) { return NewIdempotencyCleanupTask(DefaultRetentionHours) },
}

// NewTaskByName builds a task with default options for manual triggering.
// Document renders need a payload and cannot be triggered by name.
func NewTaskByName(name string) (*asynq.Task, error) {
	build, ok := triggers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTask, name)
	}
	return build()
}

// TriggerNames lists the tasks accepted by NewTaskByName.
func TriggerNames() []string {
	names := make([]string, 0, len(triggers))
	for name := range triggers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
