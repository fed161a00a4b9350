package request

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrSignInRequired is returned when an anonymous viewer starts a request.
var ErrSignInRequired = errors.New("sign in required")

// TabView describes one tab of the start screen.
type TabView struct {
	Name     Tab    `json:"name"`
	Step     string `json:"step"`
	Selected bool   `json:"selected"`
}

// StartPage is the view state of the request start screen.
type StartPage struct {
	Title         string    `json:"title"`
	IOUType       IOUType   `json:"iouType"`
	ReportID      string    `json:"reportID"`
	SelectedTab   Tab       `json:"selectedTab"`
	Tabs          []TabView `json:"tabs"`
	TransactionID string    `json:"transactionID"`
}

// Flow coordinates the start screen and the draft transaction.
type Flow struct {
	store Store
	now   func() time.Time
}

// NewFlow constructs a Flow.
func NewFlow(store Store) *Flow {
	return &Flow{store: store, now: time.Now}
}

// Start resolves the IOU type and returns the start screen. An unknown type
// yields ErrUnknownIOUType before any state is touched.
func (f *Flow) Start(ctx context.Context, accountID int64, iouType, reportID string) (StartPage, error) {
	t, err := ParseIOUType(iouType)
	if err != nil {
		return StartPage{}, err
	}
	if accountID <= 0 {
		return StartPage{}, ErrSignInRequired
	}
	tab, err := f.store.SelectedTab(ctx, accountID)
	if err != nil {
		return StartPage{}, err
	}
	draft, err := f.store.Draft(ctx, accountID)
	if err != nil {
		return StartPage{}, err
	}
	if draft == nil || draft.ReportID != reportID || draft.IOUType != t.String() || draft.RequestType != tab {
		fresh := f.newDraft(reportID, t.String(), tab)
		if err := f.store.SaveDraft(ctx, accountID, fresh); err != nil {
			return StartPage{}, err
		}
		draft = &fresh
	}
	return StartPage{
		Title:         t.Title(),
		IOUType:       t,
		ReportID:      reportID,
		SelectedTab:   tab,
		Tabs:          tabViews(tab),
		TransactionID: draft.TransactionID,
	}, nil
}

// SelectTab remembers the tab and resets the draft when its request type
// changes. Re-selecting the current tab keeps the draft.
func (f *Flow) SelectTab(ctx context.Context, accountID int64, reportID, tabName string) (Draft, error) {
	tab, err := ParseTab(tabName)
	if err != nil {
		return Draft{}, err
	}
	if accountID <= 0 {
		return Draft{}, ErrSignInRequired
	}
	if err := f.store.SetSelectedTab(ctx, accountID, tab); err != nil {
		return Draft{}, err
	}
	current, err := f.store.Draft(ctx, accountID)
	if err != nil {
		return Draft{}, err
	}
	if current != nil && current.RequestType == tab {
		return *current, nil
	}
	iouType := IOURequest.String()
	if current != nil && current.IOUType != "" {
		iouType = current.IOUType
	}
	fresh := f.newDraft(reportID, iouType, tab)
	if err := f.store.SaveDraft(ctx, accountID, fresh); err != nil {
		return Draft{}, err
	}
	return fresh, nil
}

// Dismiss clears the draft when the viewer leaves the flow.
func (f *Flow) Dismiss(ctx context.Context, accountID int64) error {
	if accountID <= 0 {
		return ErrSignInRequired
	}
	return f.store.DeleteDraft(ctx, accountID)
}

func (f *Flow) newDraft(reportID, iouType string, tab Tab) Draft {
	return Draft{
		TransactionID: uuid.NewString(),
		ReportID:      reportID,
		IOUType:       iouType,
		RequestType:   tab,
		CreatedAt:     f.now().UTC(),
	}
}

func tabViews(selected Tab) []TabView {
	tabs := Tabs()
	out := make([]TabView, 0, len(tabs))
	for _, t := range tabs {
		out = append(out, TabView{Name: t, Step: t.Step(), Selected: t == selected})
	}
	return out
}
