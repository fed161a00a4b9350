package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/moneyreport/internal/jobs"
	"github.com/odyssey-erp/moneyreport/internal/reports"
)

const (
	defaultSweepWindow = 30 * time.Minute
	defaultSweepLimit  = 500
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// NextStepService recomputes next-step advisories.
type NextStepService interface {
	RefreshNextStep(ctx context.Context, reportID string) error
	RefreshRecent(ctx context.Context, since time.Time, limit int) (int, error)
}

// NextStepJob handles single-report refreshes and periodic sweeps.
type NextStepJob struct {
	Service NextStepService
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewNextStepJob constructs the job handler.
func NewNextStepJob(service NextStepService, logger *slog.Logger, metrics *jobmetrics.Metrics) *NextStepJob {
	return &NextStepJob{
		Service: service,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// HandleRefresh executes TaskNextStepRefresh.
func (j *NextStepJob) HandleRefresh(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("next step refresh: dependencies not configured")
	}
	var payload NextStepRefreshPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil || payload.ReportID == "" {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskNextStepRefresh)
	err := j.Service.RefreshNextStep(ctx, payload.ReportID)
	if errors.Is(err, reports.ErrReportNotFound) {
		j.log(TaskNextStepRefresh).Warn("report vanished", slog.String("report_id", payload.ReportID))
		return tracker.End(fmt.Errorf("%w: %w", err, asynq.SkipRetry))
	}
	if err != nil {
		j.log(TaskNextStepRefresh).Error("refresh next step", slog.String("report_id", payload.ReportID), slog.Any("error", err))
	}
	return tracker.End(err)
}

// HandleSweep executes TaskNextStepSweep.
func (j *NextStepJob) HandleSweep(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("next step sweep: dependencies not configured")
	}
	var payload NextStepSweepPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.Window <= 0 {
		payload.Window = defaultSweepWindow
	}
	if payload.Limit <= 0 {
		payload.Limit = defaultSweepLimit
	}

	tracker := j.metrics().Track(TaskNextStepSweep)
	start := j.now()
	refreshed, err := j.Service.RefreshRecent(ctx, start.Add(-payload.Window), payload.Limit)
	if err != nil {
		j.log(TaskNextStepSweep).Error("sweep next steps", slog.Any("error", err))
		return tracker.End(err)
	}
	j.log(TaskNextStepSweep).Info("refreshed next steps", slog.Int("reports", refreshed), slog.Duration("duration", time.Since(start)))
	return tracker.End(nil)
}

func (j *NextStepJob) metrics() *jobmetrics.Metrics {
	if j != nil && j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *NextStepJob) log(task string) *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", task))
	}
	return slog.Default().With(slog.String("job", task))
}

func (j *NextStepJob) now() time.Time {
	if j != nil && j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

// WithClock overrides the internal clock for deterministic tests.
func (j *NextStepJob) WithClock(clock func() time.Time) {
	if j != nil && clock != nil {
		j.clock = clock
	}
}
