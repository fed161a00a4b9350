package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is satisfied by *pgxpool.Pool and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Schema creates the tables read and written by the service. Statements are
// idempotent so Migrate can run on every start.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS policies (
	policy_id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	type TEXT NOT NULL CHECK (type IN ('personal', 'team', 'corporate'))
)`,
	`CREATE TABLE IF NOT EXISTS policy_members (
	policy_id TEXT NOT NULL REFERENCES policies(policy_id) ON DELETE CASCADE,
	account_id BIGINT NOT NULL,
	role TEXT NOT NULL CHECK (role IN ('admin', 'auditor', 'user')),
	PRIMARY KEY (policy_id, account_id)
)`,
	`CREATE TABLE IF NOT EXISTS reports (
	report_id TEXT PRIMARY KEY,
	policy_id TEXT NOT NULL DEFAULT '',
	chat_report_id TEXT NOT NULL DEFAULT '',
	manager_id BIGINT NOT NULL DEFAULT 0,
	owner_account_id BIGINT NOT NULL DEFAULT 0,
	type TEXT NOT NULL CHECK (type IN ('expense', 'iou', 'chat')),
	state TEXT NOT NULL DEFAULT 'draft' CHECK (state IN ('draft', 'submitted')),
	status TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'approved', 'reimbursed')),
	currency CHAR(3) NOT NULL DEFAULT 'USD',
	total_amount BIGINT NOT NULL DEFAULT 0,
	non_reimbursable_total BIGINT NOT NULL DEFAULT 0,
	is_waiting_on_bank_account BOOLEAN NOT NULL DEFAULT FALSE,
	is_pinned BOOLEAN NOT NULL DEFAULT FALSE,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS reports_updated_at_idx ON reports (updated_at DESC) WHERE status <> 'reimbursed'`,
	`CREATE TABLE IF NOT EXISTS chat_rooms (
	report_id TEXT PRIMARY KEY,
	policy_id TEXT NOT NULL DEFAULT '',
	is_archived BOOLEAN NOT NULL DEFAULT FALSE,
	is_policy_expense_chat BOOLEAN NOT NULL DEFAULT FALSE,
	is_own_policy_expense_chat BOOLEAN NOT NULL DEFAULT FALSE
)`,
	`CREATE TABLE IF NOT EXISTS approvals (
	id BIGSERIAL PRIMARY KEY,
	module TEXT NOT NULL,
	ref_id TEXT NOT NULL,
	actor_id BIGINT NOT NULL,
	action TEXT NOT NULL,
	note TEXT NOT NULL DEFAULT '',
	at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS approvals_ref_idx ON approvals (module, ref_id, at)`,
	`CREATE TABLE IF NOT EXISTS idempotency_keys (
	key TEXT NOT NULL,
	module TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (module, key)
)`,
}

// Migrate applies Schema in order.
func Migrate(ctx context.Context, db Execer) error {
	for i, stmt := range Schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("platform/db: migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
