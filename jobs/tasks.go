package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskNextStepRefresh recomputes the next-step advisory of one report.
	TaskNextStepRefresh = "nextstep:refresh"
	// TaskNextStepSweep recomputes advisories of recently updated reports.
	TaskNextStepSweep = "nextstep:sweep"
	// TaskDraftCleanup trims expired request drafts from the index.
	TaskDraftCleanup = "request:draft_cleanup"
	// TaskIdempotencyCleanup deletes old idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// NextStepRefreshPayload identifies the report to refresh.
type NextStepRefreshPayload struct {
	ReportID string `json:"report_id"`
}

// NextStepSweepPayload bounds a sweep run.
type NextStepSweepPayload struct {
	Window time.Duration `json:"window"`
	Limit  int           `json:"limit"`
}

// IdempotencyCleanupPayload configures key retention.
type IdempotencyCleanupPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewNextStepRefreshTask constructs an Asynq task for a single report.
func NewNextStepRefreshTask(reportID string) (*asynq.Task, error) {
	body, err := json.Marshal(NextStepRefreshPayload{ReportID: reportID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNextStepRefresh, body, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

// NewNextStepSweepTask constructs the periodic sweep task.
func NewNextStepSweepTask(window time.Duration, limit int) (*asynq.Task, error) {
	body, err := json.Marshal(NextStepSweepPayload{Window: window, Limit: limit})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNextStepSweep, body, asynq.Queue(QueueDefault)), nil
}

// NewDraftCleanupTask constructs the draft index cleanup task.
func NewDraftCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskDraftCleanup, nil, asynq.Queue(QueueDefault))
}

// NewIdempotencyCleanupTask constructs the idempotency key cleanup task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	body, err := json.Marshal(IdempotencyCleanupPayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueDefault)), nil
}
