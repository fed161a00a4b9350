// Package eligibility decides which actions a viewer may take on a money report.
package eligibility

// Snapshot bundles every input of Compute.
type Snapshot struct {
	Report   Report      `json:"report"`
	Policy   Policy      `json:"policy"`
	Viewer   Viewer      `json:"viewer"`
	Chat     ChatContext `json:"chat"`
	NextStep *NextStep   `json:"nextStep,omitempty"`
}

// Compute derives the action visibility for a snapshot. It has no side effects;
// absent inputs resolve to hidden actions.
func Compute(s Snapshot) ActionVisibility {
	report := s.Report
	policyType := s.Policy.Type

	isGroupPolicy := policyType.IsGroup()
	isAdmin := policyType != PolicyPersonal && policyType != "" && s.Policy.ViewerRole == RoleAdmin
	isManager := report.IsMoneyRequest() && s.Viewer.AccountID != 0 && s.Viewer.AccountID == report.ManagerID

	var isPayer bool
	if isGroupPolicy {
		// an admin who also manages the report may skip straight to payment once approved
		isPayer = isAdmin && (report.IsApproved() || isManager)
	} else {
		isPayer = isAdmin || isManager
	}

	isDraft := report.IsDraft()
	isApproved := report.IsApproved()
	isSettled := report.IsSettled()
	reimbursable := report.ReimbursableTotal()

	var out ActionVisibility
	out.ShowApprove = isGroupPolicy && isManager && !isDraft && !isApproved && !isSettled
	// approval precedes payment, so the two primary buttons never show together
	out.ShowPay = isPayer &&
		!isDraft &&
		!isSettled &&
		!report.IsWaitingOnBankAccount &&
		reimbursable != 0 &&
		!s.Chat.IsArchived &&
		!out.ShowApprove
	out.ShowSettlementButton = out.ShowPay || out.ShowApprove
	out.ShowSubmit = isDraft && reimbursable != 0

	isFromPaidPolicy := policyType == PolicyTeam || policyType == PolicyCorporate
	out.ShowNextStepBanner = isFromPaidPolicy && s.NextStep != nil && len(s.NextStep.Message) > 0
	return out
}
