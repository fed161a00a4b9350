package eligibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	managerID int64 = 42
	otherID   int64 = 7
)

func submittedReport(total int64) Report {
	return Report{
		ReportID:     "1001",
		PolicyID:     "P1",
		ChatReportID: "2002",
		ManagerID:    managerID,
		Type:         ReportTypeExpense,
		State:        StateSubmitted,
		Status:       StatusOpen,
		Currency:     "USD",
		TotalAmount:  total,
	}
}

func TestComputeExamples(t *testing.T) {
	corporateAdmin := Policy{PolicyID: "P1", Type: PolicyCorporate, ViewerRole: RoleAdmin}

	t.Run("admin manager on unapproved group report approves first", func(t *testing.T) {
		got := Compute(Snapshot{
			Report: submittedReport(500),
			Policy: corporateAdmin,
			Viewer: Viewer{AccountID: managerID},
		})
		require.True(t, got.ShowApprove)
		require.False(t, got.ShowPay)
		require.True(t, got.ShowSettlementButton)
	})

	t.Run("admin manager on approved group report pays", func(t *testing.T) {
		report := submittedReport(500)
		report.Status = StatusApproved
		got := Compute(Snapshot{Report: report, Policy: corporateAdmin, Viewer: Viewer{AccountID: managerID}})
		require.True(t, got.ShowPay)
		require.False(t, got.ShowApprove)
		require.True(t, got.ShowSettlementButton)
	})

	t.Run("personal policy manager pays", func(t *testing.T) {
		got := Compute(Snapshot{
			Report: submittedReport(250),
			Policy: Policy{Type: PolicyPersonal, ViewerRole: RoleUser},
			Viewer: Viewer{AccountID: managerID},
		})
		require.True(t, got.ShowPay)
		require.False(t, got.ShowApprove)
	})

	t.Run("draft report only submits", func(t *testing.T) {
		report := submittedReport(1000)
		report.State = StateDraft
		got := Compute(Snapshot{Report: report, Policy: corporateAdmin, Viewer: Viewer{AccountID: managerID}})
		require.Equal(t, ActionVisibility{ShowSubmit: true}, got)
	})

	t.Run("team policy next step banner", func(t *testing.T) {
		got := Compute(Snapshot{
			Report:   submittedReport(100),
			Policy:   Policy{Type: PolicyTeam, ViewerRole: RoleUser},
			Viewer:   Viewer{AccountID: otherID},
			NextStep: &NextStep{Message: "Waiting for approval"},
		})
		require.True(t, got.ShowNextStepBanner)
		require.True(t, got.ShowAnyButton())
	})
}

func TestComputeNextStepBanner(t *testing.T) {
	tests := []struct {
		name     string
		policy   PolicyType
		nextStep *NextStep
		want     bool
	}{
		{name: "team with message", policy: PolicyTeam, nextStep: &NextStep{Message: "Submit soon"}, want: true},
		{name: "corporate with message", policy: PolicyCorporate, nextStep: &NextStep{Message: "x"}, want: true},
		{name: "empty message", policy: PolicyTeam, nextStep: &NextStep{}, want: false},
		{name: "no advisory", policy: PolicyCorporate, want: false},
		{name: "personal policy", policy: PolicyPersonal, nextStep: &NextStep{Message: "Pay"}, want: false},
		{name: "unknown policy type", policy: "", nextStep: &NextStep{Message: "Pay"}, want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Compute(Snapshot{Report: submittedReport(100), Policy: Policy{Type: tc.policy}, NextStep: tc.nextStep})
			assert.Equal(t, tc.want, got.ShowNextStepBanner)
		})
	}
}

func TestComputeRestrictiveDefaults(t *testing.T) {
	t.Run("zero snapshot hides everything", func(t *testing.T) {
		require.Equal(t, ActionVisibility{}, Compute(Snapshot{}))
	})

	t.Run("anonymous viewer is never the manager", func(t *testing.T) {
		report := submittedReport(100)
		report.ManagerID = 0
		got := Compute(Snapshot{Report: report, Policy: Policy{Type: PolicyTeam}})
		require.False(t, got.ShowApprove)
		require.False(t, got.ShowPay)
	})

	t.Run("chat reports carry no money actions", func(t *testing.T) {
		report := submittedReport(100)
		report.Type = ReportTypeChat
		got := Compute(Snapshot{Report: report, Policy: Policy{Type: PolicyPersonal}, Viewer: Viewer{AccountID: managerID}})
		require.Equal(t, ActionVisibility{}, got)
	})

	t.Run("group admin who is not manager waits for approval", func(t *testing.T) {
		got := Compute(Snapshot{
			Report: submittedReport(100),
			Policy: Policy{Type: PolicyTeam, ViewerRole: RoleAdmin},
			Viewer: Viewer{AccountID: otherID},
		})
		require.False(t, got.ShowPay)
		require.False(t, got.ShowApprove)
	})

	t.Run("waiting on bank account hides pay", func(t *testing.T) {
		report := submittedReport(100)
		report.IsWaitingOnBankAccount = true
		got := Compute(Snapshot{Report: report, Policy: Policy{Type: PolicyPersonal}, Viewer: Viewer{AccountID: managerID}})
		require.False(t, got.ShowPay)
	})

	t.Run("fully non reimbursable report owes nothing", func(t *testing.T) {
		report := submittedReport(300)
		report.NonReimbursableTotal = 300
		got := Compute(Snapshot{Report: report, Policy: Policy{Type: PolicyPersonal}, Viewer: Viewer{AccountID: managerID}})
		require.False(t, got.ShowPay)
	})
}

// snapshots enumerates a grid covering every branch of Compute.
func snapshots() []Snapshot {
	var out []Snapshot
	policyTypes := []PolicyType{PolicyPersonal, PolicyTeam, PolicyCorporate, ""}
	roles := []Role{RoleAdmin, RoleUser, ""}
	viewers := []int64{0, managerID, otherID}
	states := []ReportState{StateDraft, StateSubmitted, ""}
	statuses := []ReportStatus{StatusOpen, StatusApproved, StatusReimbursed}
	totals := []int64{0, 500, -500}
	for _, pt := range policyTypes {
		for _, role := range roles {
			for _, viewer := range viewers {
				for _, state := range states {
					for _, status := range statuses {
						for _, total := range totals {
							for _, archived := range []bool{false, true} {
								for _, waiting := range []bool{false, true} {
									report := submittedReport(total)
									report.State = state
									report.Status = status
									report.IsWaitingOnBankAccount = waiting
									out = append(out, Snapshot{
										Report:   report,
										Policy:   Policy{Type: pt, ViewerRole: role},
										Viewer:   Viewer{AccountID: viewer},
										Chat:     ChatContext{IsArchived: archived},
										NextStep: &NextStep{Message: "next"},
									})
								}
							}
						}
					}
				}
			}
		}
	}
	return out
}

func TestComputeInvariants(t *testing.T) {
	for _, s := range snapshots() {
		got := Compute(s)
		if s.Policy.Type == PolicyPersonal {
			require.False(t, got.ShowApprove, "personal policy approve: %+v", s)
		}
		if s.Report.ReimbursableTotal() == 0 {
			require.False(t, got.ShowPay, "zero total pay: %+v", s)
			require.False(t, got.ShowSubmit, "zero total submit: %+v", s)
		}
		require.False(t, got.ShowPay && got.ShowApprove, "pay and approve together: %+v", s)
		if s.Chat.IsArchived {
			require.False(t, got.ShowPay, "archived pay: %+v", s)
		}
		if s.Report.IsDraft() {
			require.False(t, got.ShowPay, "draft pay: %+v", s)
			require.False(t, got.ShowApprove, "draft approve: %+v", s)
		} else {
			require.False(t, got.ShowSubmit, "submitted submit: %+v", s)
		}
		require.Equal(t, got.ShowPay || got.ShowApprove, got.ShowSettlementButton)
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	for _, s := range snapshots() {
		require.Equal(t, Compute(s), Compute(s))
	}
}
