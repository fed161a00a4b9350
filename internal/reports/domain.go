package reports

import (
	"errors"
	"time"

	"github.com/odyssey-erp/moneyreport/internal/eligibility"
)

// ApprovalModule tags approval log rows written for money reports.
const ApprovalModule = "money_report"

var (
	ErrReportNotFound     = errors.New("report not found")
	ErrActionNotAllowed   = errors.New("action not allowed for viewer")
	ErrInvalidPaymentType = errors.New("invalid payment type")
	ErrDuplicateRequest   = errors.New("request already processed")
	ErrSignInRequired     = errors.New("sign in required")
)

// ReportRecord is a stored report with presentation-only attributes.
type ReportRecord struct {
	eligibility.Report
	IsPinned  bool
	UpdatedAt time.Time
}

// ChatRoom is the chat a report is linked to.
type ChatRoom struct {
	ReportID               string
	PolicyID               string
	IsArchived             bool
	IsPolicyExpenseChat    bool
	IsOwnPolicyExpenseChat bool
}

// NextStep is the advisory shown under a report header.
type NextStep struct {
	Message   string    `json:"message"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Snapshot is everything the header needs, read at one point in time.
type Snapshot struct {
	Report   ReportRecord
	Policy   eligibility.Policy
	Chat     ChatRoom
	NextStep *NextStep
	Viewer   eligibility.Viewer
}

// Eligibility projects the snapshot onto the decision inputs.
func (s Snapshot) Eligibility() eligibility.Snapshot {
	out := eligibility.Snapshot{
		Report: s.Report.Report,
		Policy: s.Policy,
		Viewer: s.Viewer,
		Chat:   eligibility.ChatContext{IsArchived: s.Chat.IsArchived},
	}
	if s.NextStep != nil {
		out.NextStep = &eligibility.NextStep{Message: s.NextStep.Message}
	}
	return out
}

// PaymentType names how a report is settled.
type PaymentType string

const (
	PaymentElsewhere PaymentType = "elsewhere"
	PaymentExpensify PaymentType = "expensify"
	PaymentVBBA      PaymentType = "vbba"
)

// ParsePaymentType validates a payment type.
func ParsePaymentType(s string) (PaymentType, error) {
	switch t := PaymentType(s); t {
	case PaymentElsewhere, PaymentExpensify, PaymentVBBA:
		return t, nil
	default:
		return "", ErrInvalidPaymentType
	}
}

// MenuItem is an entry of the header overflow menu.
type MenuItem struct {
	Key  string `json:"key"`
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}

// Header is the view state of a money report header.
type Header struct {
	ReportID                 string                       `json:"reportID"`
	ChatReportID             string                       `json:"chatReportID"`
	PolicyID                 string                       `json:"policyID"`
	Currency                 string                       `json:"currency"`
	ReimbursableTotal        int64                        `json:"reimbursableTotal"`
	FormattedAmount          string                       `json:"formattedAmount"`
	Actions                  eligibility.ActionVisibility `json:"actions"`
	ShowAnyButton            bool                         `json:"showAnyButton"`
	ShouldHidePaymentOptions bool                         `json:"shouldHidePaymentOptions"`
	SubmitButtonSuccess      bool                         `json:"submitButtonSuccess"`
	NextStep                 *NextStep                    `json:"nextStep,omitempty"`
	BankAccountRoute         string                       `json:"bankAccountRoute"`
	EnablePaymentsRoute      string                       `json:"enablePaymentsRoute"`
	Menu                     []MenuItem                   `json:"menu"`
}

// PayInput settles a report.
type PayInput struct {
	ReportID       string
	ActorID        int64
	PaymentType    PaymentType
	IdempotencyKey string
}
