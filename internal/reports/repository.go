package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/moneyreport/internal/eligibility"
	"github.com/odyssey-erp/moneyreport/internal/platform/db"
	"github.com/odyssey-erp/moneyreport/internal/shared"
)

// Reader loads the parts of a snapshot.
type Reader interface {
	GetReport(ctx context.Context, reportID string) (ReportRecord, error)
	GetPolicy(ctx context.Context, policyID string, accountID int64) (eligibility.Policy, error)
	GetChatRoom(ctx context.Context, reportID string) (ChatRoom, error)
}

// Repository defines money report data access.
type Repository interface {
	Reader
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListApprovals(ctx context.Context, reportID string) ([]shared.ApprovalLog, error)
	ListRecentlyUpdated(ctx context.Context, since time.Time, limit int) ([]string, error)
}

// TxRepository defines operations within a transaction.
type TxRepository interface {
	LockReport(ctx context.Context, reportID string) (ReportRecord, error)
	GetPolicy(ctx context.Context, policyID string, accountID int64) (eligibility.Policy, error)
	GetChatRoom(ctx context.Context, reportID string) (ChatRoom, error)
	UpdateState(ctx context.Context, reportID string, state eligibility.ReportState) error
	UpdateStatus(ctx context.Context, reportID string, status eligibility.ReportStatus) error
	RecordApproval(ctx context.Context, log shared.ApprovalLog) error
	ClaimIdempotencyKey(ctx context.Context, key, module string) error
}

var _ Repository = (*pgRepository)(nil)
var _ TxRepository = (*pgTxRepository)(nil)

type pgRepository struct {
	pool        *pgxpool.Pool
	approvals   *shared.ApprovalRecorder
	idempotency *shared.IdempotencyStore
}

// NewRepository builds a Postgres backed Repository.
func NewRepository(pool *pgxpool.Pool, approvals *shared.ApprovalRecorder, idempotency *shared.IdempotencyStore) Repository {
	return &pgRepository{pool: pool, approvals: approvals, idempotency: idempotency}
}

func (r *pgRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTxRepository{
			tx:          tx,
			approvals:   r.approvals.WithTx(tx),
			idempotency: r.idempotency.WithTx(tx),
		})
	})
}

func (r *pgRepository) GetReport(ctx context.Context, reportID string) (ReportRecord, error) {
	return scanReport(r.pool.QueryRow(ctx, getReport, reportID))
}

func (r *pgRepository) GetPolicy(ctx context.Context, policyID string, accountID int64) (eligibility.Policy, error) {
	return queryPolicy(ctx, r.pool, policyID, accountID)
}

func (r *pgRepository) GetChatRoom(ctx context.Context, reportID string) (ChatRoom, error) {
	return queryChatRoom(ctx, r.pool, reportID)
}

func (r *pgRepository) ListApprovals(ctx context.Context, reportID string) ([]shared.ApprovalLog, error) {
	return r.approvals.List(ctx, ApprovalModule, reportID)
}

func (r *pgRepository) ListRecentlyUpdated(ctx context.Context, since time.Time, limit int) ([]string, error) {
	rows, err := r.pool.Query(ctx, listOpenReports, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type pgTxRepository struct {
	tx          pgx.Tx
	approvals   *shared.ApprovalRecorder
	idempotency *shared.IdempotencyStore
}

func (t *pgTxRepository) LockReport(ctx context.Context, reportID string) (ReportRecord, error) {
	return scanReport(t.tx.QueryRow(ctx, lockReport, reportID))
}

func (t *pgTxRepository) GetPolicy(ctx context.Context, policyID string, accountID int64) (eligibility.Policy, error) {
	return queryPolicy(ctx, t.tx, policyID, accountID)
}

func (t *pgTxRepository) GetChatRoom(ctx context.Context, reportID string) (ChatRoom, error) {
	return queryChatRoom(ctx, t.tx, reportID)
}

func (t *pgTxRepository) UpdateState(ctx context.Context, reportID string, state eligibility.ReportState) error {
	_, err := t.tx.Exec(ctx, updateReportState, reportID, string(state))
	return err
}

func (t *pgTxRepository) UpdateStatus(ctx context.Context, reportID string, status eligibility.ReportStatus) error {
	_, err := t.tx.Exec(ctx, updateReportStatus, reportID, string(status))
	return err
}

func (t *pgTxRepository) RecordApproval(ctx context.Context, log shared.ApprovalLog) error {
	return t.approvals.Record(ctx, log)
}

func (t *pgTxRepository) ClaimIdempotencyKey(ctx context.Context, key, module string) error {
	err := t.idempotency.CheckAndInsert(ctx, key, module)
	if errors.Is(err, shared.ErrIdempotencyConflict) {
		return ErrDuplicateRequest
	}
	return err
}

func scanReport(row pgx.Row) (ReportRecord, error) {
	var rec ReportRecord
	var reportType, state, status string
	err := row.Scan(
		&rec.ReportID, &rec.PolicyID, &rec.ChatReportID, &rec.ManagerID, &rec.OwnerAccountID,
		&reportType, &state, &status,
		&rec.Currency, &rec.TotalAmount, &rec.NonReimbursableTotal, &rec.IsWaitingOnBankAccount,
		&rec.IsPinned, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ReportRecord{}, ErrReportNotFound
		}
		return ReportRecord{}, fmt.Errorf("reports: scan report: %w", err)
	}
	rec.Type = eligibility.ReportType(reportType)
	rec.State = eligibility.ReportState(state)
	rec.Status = eligibility.ReportStatus(status)
	return rec, nil
}

// queryPolicy returns the zero policy when the report has none, which hides
// every admin affordance.
func queryPolicy(ctx context.Context, q shared.DBTX, policyID string, accountID int64) (eligibility.Policy, error) {
	if policyID == "" {
		return eligibility.Policy{}, nil
	}
	var p eligibility.Policy
	var policyType, role string
	err := q.QueryRow(ctx, getPolicyForViewer, policyID, accountID).Scan(&p.PolicyID, &policyType, &role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return eligibility.Policy{}, nil
		}
		return eligibility.Policy{}, fmt.Errorf("reports: load policy: %w", err)
	}
	p.Type = eligibility.PolicyType(policyType)
	p.ViewerRole = eligibility.Role(role)
	return p, nil
}

func queryChatRoom(ctx context.Context, q shared.DBTX, reportID string) (ChatRoom, error) {
	if reportID == "" {
		return ChatRoom{}, nil
	}
	var c ChatRoom
	err := q.QueryRow(ctx, getChatRoom, reportID).Scan(&c.ReportID, &c.PolicyID, &c.IsArchived, &c.IsPolicyExpenseChat, &c.IsOwnPolicyExpenseChat)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ChatRoom{}, nil
		}
		return ChatRoom{}, fmt.Errorf("reports: load chat room: %w", err)
	}
	return c, nil
}
