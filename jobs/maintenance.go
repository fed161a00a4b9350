package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/moneyreport/internal/jobs"
)

const defaultIdempotencyRetention = 72 * time.Hour

// DraftPruner removes expired draft index entries and counts the rest.
type DraftPruner interface {
	PruneDrafts(ctx context.Context, now time.Time) (int64, error)
	ActiveDrafts(ctx context.Context) (int64, error)
}

// IdempotencyCleaner deletes idempotency keys older than the retention.
type IdempotencyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// MaintenanceJob runs housekeeping tasks.
type MaintenanceJob struct {
	Drafts      DraftPruner
	Idempotency IdempotencyCleaner
	Logger      *slog.Logger
	Metrics     *jobmetrics.Metrics
	clock       func() time.Time
}

// NewMaintenanceJob constructs the housekeeping handler.
func NewMaintenanceJob(drafts DraftPruner, idempotency IdempotencyCleaner, logger *slog.Logger, metrics *jobmetrics.Metrics) *MaintenanceJob {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	return &MaintenanceJob{
		Drafts:      drafts,
		Idempotency: idempotency,
		Logger:      logger,
		Metrics:     metrics,
		clock:       func() time.Time { return time.Now().UTC() },
	}
}

// HandleDraftCleanup executes TaskDraftCleanup.
func (j *MaintenanceJob) HandleDraftCleanup(ctx context.Context, _ *asynq.Task) error {
	if j.Drafts == nil {
		return nil
	}
	tracker := j.Metrics.Track(TaskDraftCleanup)
	removed, err := j.Drafts.PruneDrafts(ctx, j.clock())
	if err != nil {
		j.Logger.Error("prune drafts", slog.String("job", TaskDraftCleanup), slog.Any("error", err))
		return tracker.End(err)
	}
	j.Metrics.AddPruned("drafts", removed)
	active, err := j.Drafts.ActiveDrafts(ctx)
	if err != nil {
		j.Logger.Error("count drafts", slog.String("job", TaskDraftCleanup), slog.Any("error", err))
		return tracker.End(err)
	}
	j.Metrics.SetActiveDrafts(active)
	j.Logger.Info("pruned drafts", slog.String("job", TaskDraftCleanup), slog.Int64("removed", removed), slog.Int64("active", active))
	return tracker.End(nil)
}

// HandleIdempotencyCleanup executes TaskIdempotencyCleanup.
func (j *MaintenanceJob) HandleIdempotencyCleanup(ctx context.Context, task *asynq.Task) error {
	if j.Idempotency == nil {
		return nil
	}
	var payload IdempotencyCleanupPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.Retention <= 0 {
		payload.Retention = defaultIdempotencyRetention
	}
	tracker := j.Metrics.Track(TaskIdempotencyCleanup)
	removed, err := j.Idempotency.Cleanup(ctx, payload.Retention)
	if err != nil {
		j.Logger.Error("cleanup idempotency keys", slog.String("job", TaskIdempotencyCleanup), slog.Any("error", err))
		return tracker.End(err)
	}
	j.Metrics.AddPruned("idempotency_keys", removed)
	j.Logger.Info("cleaned idempotency keys", slog.String("job", TaskIdempotencyCleanup), slog.Int64("removed", removed))
	return tracker.End(nil)
}
