package reports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/moneyreport/internal/eligibility"
	"github.com/odyssey-erp/moneyreport/internal/money"
	"github.com/odyssey-erp/moneyreport/internal/shared"
)

// RefreshEnqueuer schedules recomputation of a report's next step.
type RefreshEnqueuer interface {
	EnqueueNextStepRefresh(ctx context.Context, reportID string) error
}

// VisibilityObserver records computed visibilities.
type VisibilityObserver interface {
	ObserveVisibility(v eligibility.ActionVisibility)
}

// Service builds header views and runs report actions.
type Service struct {
	repo      Repository
	nextSteps NextStepStore
	formatter *money.Formatter
	logger    *slog.Logger
	enqueuer  RefreshEnqueuer
	observer  VisibilityObserver
	now       func() time.Time
	group     singleflight.Group
}

// NewService wires the report service.
func NewService(repo Repository, nextSteps NextStepStore, formatter *money.Formatter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if formatter == nil {
		formatter = money.NewFormatter("en")
	}
	return &Service{repo: repo, nextSteps: nextSteps, formatter: formatter, logger: logger, now: time.Now}
}

// SetRefreshEnqueuer injects the background job client.
func (s *Service) SetRefreshEnqueuer(e RefreshEnqueuer) {
	s.enqueuer = e
}

// SetObserver injects the metrics sink.
func (s *Service) SetObserver(o VisibilityObserver) {
	s.observer = o
}

// Snapshot reads the report and everything its header depends on.
func (s *Service) Snapshot(ctx context.Context, reportID string, viewer eligibility.Viewer) (Snapshot, error) {
	report, err := s.repo.GetReport(ctx, reportID)
	if err != nil {
		return Snapshot{}, err
	}
	policy, err := s.repo.GetPolicy(ctx, report.PolicyID, viewer.AccountID)
	if err != nil {
		return Snapshot{}, err
	}
	chat, err := s.repo.GetChatRoom(ctx, report.ChatReportID)
	if err != nil {
		return Snapshot{}, err
	}
	step, err := s.nextSteps.Get(ctx, report.ReportID)
	if err != nil {
		// a failed lookup degrades to no banner
		s.logger.Warn("load next step", slog.String("report_id", reportID), slog.Any("error", err))
		step = nil
	}
	return Snapshot{Report: report, Policy: policy, Chat: chat, NextStep: step, Viewer: viewer}, nil
}

// Header computes the header view for the viewer. Concurrent builds for the
// same report and viewer share one snapshot read.
func (s *Service) Header(ctx context.Context, reportID string, viewer eligibility.Viewer) (Header, error) {
	key := reportID + ":" + strconv.FormatInt(viewer.AccountID, 10)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		snap, err := s.Snapshot(ctx, reportID, viewer)
		if err != nil {
			return Header{}, err
		}
		return s.BuildHeader(snap), nil
	})
	select {
	case <-ctx.Done():
		return Header{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Header{}, res.Err
		}
		return res.Val.(Header), nil
	}
}

// BuildHeader projects a snapshot into the header view.
func (s *Service) BuildHeader(snap Snapshot) Header {
	visibility := eligibility.Compute(snap.Eligibility())
	if s.observer != nil {
		s.observer.ObserveVisibility(visibility)
	}
	total := snap.Report.ReimbursableTotal()
	header := Header{
		ReportID:                 snap.Report.ReportID,
		ChatReportID:             snap.Report.ChatReportID,
		PolicyID:                 snap.Report.PolicyID,
		Currency:                 snap.Report.Currency,
		ReimbursableTotal:        total,
		FormattedAmount:          s.formatter.Format(total, snap.Report.Currency),
		Actions:                  visibility,
		ShowAnyButton:            visibility.ShowAnyButton(),
		ShouldHidePaymentOptions: !visibility.ShowPay,
		SubmitButtonSuccess:      snap.Chat.IsOwnPolicyExpenseChat,
		BankAccountRoute:         BankAccountRoute(snap.Chat),
		EnablePaymentsRoute:      RouteEnablePayments,
		Menu:                     HeaderMenu(snap.Report, snap.Chat),
	}
	if visibility.ShowNextStepBanner {
		header.NextStep = snap.NextStep
	}
	return header
}

// History lists the approval log of a report.
func (s *Service) History(ctx context.Context, reportID string) ([]shared.ApprovalLog, error) {
	if _, err := s.repo.GetReport(ctx, reportID); err != nil {
		return nil, err
	}
	return s.repo.ListApprovals(ctx, reportID)
}

// Submit moves a draft report to submitted.
func (s *Service) Submit(ctx context.Context, reportID string, actorID int64) (ReportRecord, error) {
	return s.runAction(ctx, reportID, actorID, "", func(ctx context.Context, tx TxRepository, v eligibility.ActionVisibility) (shared.ApprovalAction, error) {
		if !v.ShowSubmit {
			return "", ErrActionNotAllowed
		}
		return shared.ApprovalSubmit, tx.UpdateState(ctx, reportID, eligibility.StateSubmitted)
	})
}

// Approve marks a submitted group-policy report as approved.
func (s *Service) Approve(ctx context.Context, reportID string, actorID int64) (ReportRecord, error) {
	return s.runAction(ctx, reportID, actorID, "", func(ctx context.Context, tx TxRepository, v eligibility.ActionVisibility) (shared.ApprovalAction, error) {
		if !v.ShowApprove {
			return "", ErrActionNotAllowed
		}
		return shared.ApprovalApprove, tx.UpdateStatus(ctx, reportID, eligibility.StatusApproved)
	})
}

// Pay marks a report as reimbursed. No money moves here.
func (s *Service) Pay(ctx context.Context, input PayInput) (ReportRecord, error) {
	if _, err := ParsePaymentType(string(input.PaymentType)); err != nil {
		return ReportRecord{}, err
	}
	note := "paid via " + string(input.PaymentType)
	return s.runAction(ctx, input.ReportID, input.ActorID, note, func(ctx context.Context, tx TxRepository, v eligibility.ActionVisibility) (shared.ApprovalAction, error) {
		// A replayed key must report the duplicate, not the settled report.
		if input.IdempotencyKey != "" {
			if err := tx.ClaimIdempotencyKey(ctx, input.IdempotencyKey, ApprovalModule+".pay"); err != nil {
				return "", err
			}
		}
		if !v.ShowPay {
			return "", ErrActionNotAllowed
		}
		return shared.ApprovalPay, tx.UpdateStatus(ctx, input.ReportID, eligibility.StatusReimbursed)
	})
}

type actionFunc func(ctx context.Context, tx TxRepository, v eligibility.ActionVisibility) (shared.ApprovalAction, error)

// runAction re-reads the report under lock, recomputes eligibility and lets
// fn apply the transition.
func (s *Service) runAction(ctx context.Context, reportID string, actorID int64, note string, fn actionFunc) (ReportRecord, error) {
	if actorID <= 0 {
		return ReportRecord{}, ErrSignInRequired
	}
	var updated ReportRecord
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		report, err := tx.LockReport(ctx, reportID)
		if err != nil {
			return err
		}
		policy, err := tx.GetPolicy(ctx, report.PolicyID, actorID)
		if err != nil {
			return err
		}
		chat, err := tx.GetChatRoom(ctx, report.ChatReportID)
		if err != nil {
			return err
		}
		snap := Snapshot{Report: report, Policy: policy, Chat: chat, Viewer: eligibility.Viewer{AccountID: actorID}}
		action, err := fn(ctx, tx, eligibility.Compute(snap.Eligibility()))
		if err != nil {
			return err
		}
		if err := tx.RecordApproval(ctx, shared.ApprovalLog{
			Module:  ApprovalModule,
			RefID:   reportID,
			ActorID: actorID,
			Action:  action,
			Note:    note,
		}); err != nil {
			return err
		}
		updated, err = tx.LockReport(ctx, reportID)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrActionNotAllowed) && !errors.Is(err, ErrReportNotFound) && !errors.Is(err, ErrDuplicateRequest) {
			s.logger.Error("report action", slog.String("report_id", reportID), slog.Any("error", err))
		}
		return ReportRecord{}, err
	}
	s.scheduleRefresh(ctx, reportID)
	return updated, nil
}

func (s *Service) scheduleRefresh(ctx context.Context, reportID string) {
	if s.enqueuer != nil {
		err := s.enqueuer.EnqueueNextStepRefresh(ctx, reportID)
		if err == nil {
			return
		}
		s.logger.Warn("enqueue next step refresh", slog.String("report_id", reportID), slog.Any("error", err))
	}
	if err := s.RefreshNextStep(ctx, reportID); err != nil {
		s.logger.Warn("refresh next step inline", slog.String("report_id", reportID), slog.Any("error", err))
	}
}

// RefreshNextStep recomputes and stores the advisory of a report.
func (s *Service) RefreshNextStep(ctx context.Context, reportID string) error {
	report, err := s.repo.GetReport(ctx, reportID)
	if err != nil {
		return err
	}
	// the advisory is the same for every viewer, so the policy is read without a member
	policy, err := s.repo.GetPolicy(ctx, report.PolicyID, 0)
	if err != nil {
		return err
	}
	step := BuildNextStep(report.Report, policy, s.now())
	if step == nil {
		return s.nextSteps.Delete(ctx, reportID)
	}
	if err := s.nextSteps.Set(ctx, reportID, *step); err != nil {
		return fmt.Errorf("reports: store next step: %w", err)
	}
	return nil
}

// RefreshRecent recomputes advisories of reports touched since the cutoff.
func (s *Service) RefreshRecent(ctx context.Context, since time.Time, limit int) (int, error) {
	ids, err := s.repo.ListRecentlyUpdated(ctx, since, limit)
	if err != nil {
		return 0, err
	}
	refreshed := 0
	for _, id := range ids {
		if err := s.RefreshNextStep(ctx, id); err != nil {
			s.logger.Warn("refresh next step", slog.String("report_id", id), slog.Any("error", err))
			continue
		}
		refreshed++
	}
	return refreshed, nil
}
