package reports

import "net/url"

// Navigation targets handed to clients. They are opaque to this service.
const (
	RouteEnablePayments    = "enable-payments"
	RouteAddBankAccount    = "settings/wallet/add-bank-account"
	RouteBankAccountPrefix = "bank-account/new"

	ZoomMeetingURL       = "https://zoom.us/start/videomeeting"
	GoogleMeetMeetingURL = "https://meet.google.com/new"
)

// BankAccountRoute picks where a payer adds a bank account. Policy expense
// chats go through the workspace bank account flow.
func BankAccountRoute(chat ChatRoom) string {
	if !chat.IsPolicyExpenseChat {
		return RouteAddBankAccount
	}
	q := url.Values{}
	q.Set("policyID", chat.PolicyID)
	return RouteBankAccountPrefix + "?" + q.Encode()
}

// HeaderMenu lists the overflow menu entries for a report header.
func HeaderMenu(report ReportRecord, chat ChatRoom) []MenuItem {
	pin := MenuItem{Key: "pin", Text: "Pin"}
	if report.IsPinned {
		pin = MenuItem{Key: "unpin", Text: "Unpin"}
	}
	items := []MenuItem{pin}
	if chat.IsArchived {
		return items
	}
	return append(items,
		MenuItem{Key: "zoom", Text: "Zoom", URL: ZoomMeetingURL},
		MenuItem{Key: "google_meet", Text: "Google Meet", URL: GoogleMeetMeetingURL},
	)
}
