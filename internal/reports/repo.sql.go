package reports

const reportColumns = `report_id, policy_id, chat_report_id, manager_id, owner_account_id, type, state, status,
	currency, total_amount, non_reimbursable_total, is_waiting_on_bank_account, is_pinned, updated_at`

const getReport = `SELECT ` + reportColumns + `
FROM reports WHERE report_id = $1`

const lockReport = getReport + ` FOR UPDATE`

const getPolicyForViewer = `SELECT p.policy_id, p.type, COALESCE(m.role, '')
FROM policies p
LEFT JOIN policy_members m ON m.policy_id = p.policy_id AND m.account_id = $2
WHERE p.policy_id = $1`

const getChatRoom = `SELECT report_id, policy_id, is_archived, is_policy_expense_chat, is_own_policy_expense_chat
FROM chat_rooms WHERE report_id = $1`

const updateReportState = `UPDATE reports SET state = $2, updated_at = NOW() WHERE report_id = $1`

const updateReportStatus = `UPDATE reports SET status = $2, updated_at = NOW() WHERE report_id = $1`

const listOpenReports = `SELECT report_id FROM reports
WHERE status <> 'reimbursed' AND updated_at >= $1
ORDER BY updated_at DESC LIMIT $2`
