package eligibility

// PolicyType enumerates workspace policy kinds.
type PolicyType string

const (
	PolicyPersonal  PolicyType = "personal"
	PolicyTeam      PolicyType = "team"
	PolicyCorporate PolicyType = "corporate"
)

// IsGroup reports whether the policy carries an approval step.
func (t PolicyType) IsGroup() bool {
	return t == PolicyTeam || t == PolicyCorporate
}

// Role enumerates a viewer's role on a policy.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleAuditor Role = "auditor"
	RoleUser    Role = "user"
)

// ReportType distinguishes money-request reports from plain chats.
type ReportType string

const (
	ReportTypeExpense ReportType = "expense"
	ReportTypeIOU     ReportType = "iou"
	ReportTypeChat    ReportType = "chat"
)

// ReportState tracks submission of a report.
type ReportState string

const (
	StateDraft     ReportState = "draft"
	StateSubmitted ReportState = "submitted"
)

// ReportStatus tracks approval and settlement of a submitted report.
type ReportStatus string

const (
	StatusOpen       ReportStatus = "open"
	StatusApproved   ReportStatus = "approved"
	StatusReimbursed ReportStatus = "reimbursed"
)

// Report is the snapshot of a money-request report. Amounts are minor units.
type Report struct {
	ReportID               string       `json:"reportID"`
	PolicyID               string       `json:"policyID"`
	ChatReportID           string       `json:"chatReportID"`
	ManagerID              int64        `json:"managerID"`
	OwnerAccountID         int64        `json:"ownerAccountID"`
	Type                   ReportType   `json:"type"`
	State                  ReportState  `json:"state"`
	Status                 ReportStatus `json:"status"`
	Currency               string       `json:"currency"`
	TotalAmount            int64        `json:"totalAmount"`
	NonReimbursableTotal   int64        `json:"nonReimbursableTotal"`
	IsWaitingOnBankAccount bool         `json:"isWaitingOnBankAccount"`
}

// IsMoneyRequest reports whether the report aggregates monetary requests.
func (r Report) IsMoneyRequest() bool {
	return r.Type == ReportTypeExpense || r.Type == ReportTypeIOU
}

// IsDraft reports whether the report has not been submitted yet.
func (r Report) IsDraft() bool {
	return r.State == StateDraft
}

// IsApproved is true once the report passed approval, including after payment.
func (r Report) IsApproved() bool {
	return r.Status == StatusApproved || r.Status == StatusReimbursed
}

// IsSettled is true once the owed amount was marked as paid.
func (r Report) IsSettled() bool {
	return r.Status == StatusReimbursed
}

// ReimbursableTotal is the amount still owed to the report owner.
func (r Report) ReimbursableTotal() int64 {
	if !r.IsMoneyRequest() {
		return 0
	}
	return r.TotalAmount - r.NonReimbursableTotal
}

// Policy is the snapshot of the report's policy as seen by the viewer.
type Policy struct {
	PolicyID   string     `json:"policyID"`
	Type       PolicyType `json:"type"`
	ViewerRole Role       `json:"viewerRole"`
}

// Viewer identifies the account looking at the report. Zero means anonymous.
type Viewer struct {
	AccountID int64 `json:"accountID"`
}

// ChatContext describes the room the report lives in.
type ChatContext struct {
	IsArchived bool `json:"isArchived"`
}

// NextStep is the server-computed advisory for the report, if any.
type NextStep struct {
	Message string `json:"message"`
}

// ActionVisibility lists the affordances a presentation layer should render.
type ActionVisibility struct {
	ShowPay              bool `json:"showPay"`
	ShowApprove          bool `json:"showApprove"`
	ShowSubmit           bool `json:"showSubmit"`
	ShowSettlementButton bool `json:"showSettlementButton"`
	ShowNextStepBanner   bool `json:"showNextStepBanner"`
}

// ShowAnyButton is true when at least one header affordance is visible.
func (v ActionVisibility) ShowAnyButton() bool {
	return v.ShowSettlementButton || v.ShowSubmit || v.ShowNextStepBanner
}
