package request

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/moneyreport/internal/shared"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, time.Hour), mr
}

func TestParseIOUType(t *testing.T) {
	cases := map[string]IOUType{"request": IOURequest, "send": IOUSend, " Split ": IOUSplit}
	for in, want := range cases {
		got, err := ParseIOUType(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got)
	}
	_, err := ParseIOUType("borrow")
	require.ErrorIs(t, err, ErrUnknownIOUType)

	raw, err := json.Marshal(IOUSend)
	require.NoError(t, err)
	require.Equal(t, `"send"`, string(raw))
	require.Equal(t, "Split bill", IOUSplit.Title())
}

func TestParseTab(t *testing.T) {
	tab, err := ParseTab("SCAN")
	require.NoError(t, err)
	require.Equal(t, TabScan, tab)
	require.Equal(t, "amount", TabManual.Step())

	_, err = ParseTab("camera")
	require.ErrorIs(t, err, ErrUnknownTab)
}

func TestStartDefaultsToManual(t *testing.T) {
	store, mr := newTestStore(t)
	flow := NewFlow(store)
	ctx := context.Background()

	page, err := flow.Start(ctx, 7, "request", "R1")
	require.NoError(t, err)
	require.Equal(t, "Request money", page.Title)
	require.Equal(t, TabManual, page.SelectedTab)
	require.Len(t, page.Tabs, 3)
	require.True(t, page.Tabs[0].Selected)
	require.NotEmpty(t, page.TransactionID)
	require.True(t, mr.Exists("iou_draft:7"))

	again, err := flow.Start(ctx, 7, "request", "R1")
	require.NoError(t, err)
	require.Equal(t, page.TransactionID, again.TransactionID)
}

func TestStartUnknownTypeTouchesNothing(t *testing.T) {
	store, mr := newTestStore(t)
	flow := NewFlow(store)

	_, err := flow.Start(context.Background(), 7, "borrow", "R1")
	require.ErrorIs(t, err, ErrUnknownIOUType)
	require.Empty(t, mr.Keys())

	_, err = flow.Start(context.Background(), 0, "request", "R1")
	require.ErrorIs(t, err, ErrSignInRequired)
}

func TestSelectTabResetsDraftOnChange(t *testing.T) {
	store, mr := newTestStore(t)
	flow := NewFlow(store)
	ctx := context.Background()

	page, err := flow.Start(ctx, 7, "split", "R1")
	require.NoError(t, err)

	same, err := flow.SelectTab(ctx, 7, "R1", "manual")
	require.NoError(t, err)
	require.Equal(t, page.TransactionID, same.TransactionID)

	changed, err := flow.SelectTab(ctx, 7, "R1", "distance")
	require.NoError(t, err)
	require.NotEqual(t, page.TransactionID, changed.TransactionID)
	require.Equal(t, TabDistance, changed.RequestType)
	require.Equal(t, "split", changed.IOUType)

	stored, err := mr.Get("selected_tab:iou_request_type:7")
	require.NoError(t, err)
	require.Equal(t, "distance", stored)

	next, err := flow.Start(ctx, 7, "split", "R1")
	require.NoError(t, err)
	require.Equal(t, TabDistance, next.SelectedTab)
	require.Equal(t, changed.TransactionID, next.TransactionID)
}

func TestDismissClearsDraft(t *testing.T) {
	store, mr := newTestStore(t)
	flow := NewFlow(store)
	ctx := context.Background()

	_, err := flow.Start(ctx, 7, "send", "")
	require.NoError(t, err)
	require.NoError(t, flow.Dismiss(ctx, 7))
	require.False(t, mr.Exists("iou_draft:7"))

	draft, err := store.Draft(ctx, 7)
	require.NoError(t, err)
	require.Nil(t, draft)

	count, err := store.ActiveDrafts(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestPruneDrafts(t *testing.T) {
	store, mr := newTestStore(t)
	flow := NewFlow(store)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	flow.now = func() time.Time { return base }
	_, err := flow.Start(ctx, 1, "request", "R1")
	require.NoError(t, err)
	flow.now = func() time.Time { return base.Add(2 * time.Hour) }
	_, err = flow.Start(ctx, 2, "request", "R2")
	require.NoError(t, err)

	mr.FastForward(90 * time.Minute)
	require.False(t, mr.Exists("iou_draft:1"))

	removed, err := store.PruneDrafts(ctx, base.Add(90*time.Minute))
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	count, err := store.ActiveDrafts(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestHandlerRoutes(t *testing.T) {
	store, _ := newTestStore(t)
	r := chi.NewRouter()
	r.Route("/requests", NewHandler(nil, NewFlow(store)).MountRoutes)

	withAccount := func(req *http.Request) *http.Request {
		return req.WithContext(shared.ContextWithSession(req.Context(), &shared.Session{ID: "s", AccountID: 9}))
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, withAccount(httptest.NewRequest(http.MethodGet, "/requests/borrow/start", nil)))
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/requests/request/start", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, withAccount(httptest.NewRequest(http.MethodGet, "/requests/send/start?reportID=R5", nil)))
	require.Equal(t, http.StatusOK, rr.Code)
	var page StartPage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	require.Equal(t, "Send money", page.Title)
	require.Equal(t, "R5", page.ReportID)

	req := httptest.NewRequest(http.MethodPost, "/requests/send/tab", strings.NewReader(`{"tab":"camera"}`))
	req.Header.Set("Content-Type", "application/json")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, withAccount(req))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	req = httptest.NewRequest(http.MethodPost, "/requests/send/tab", strings.NewReader(`{"tab":"scan","reportID":"R5"}`))
	req.Header.Set("Content-Type", "application/json")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, withAccount(req))
	require.Equal(t, http.StatusOK, rr.Code)
	var draft Draft
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &draft))
	require.Equal(t, TabScan, draft.RequestType)
	require.NotEqual(t, page.TransactionID, draft.TransactionID)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, withAccount(httptest.NewRequest(http.MethodGet, "/requests/send/start?reportID=R5&tab=distance", nil)))
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	require.Equal(t, TabDistance, page.SelectedTab)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, withAccount(httptest.NewRequest(http.MethodDelete, "/requests/draft", nil)))
	require.Equal(t, http.StatusNoContent, rr.Code)
}
