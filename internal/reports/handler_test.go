package reports

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/moneyreport/internal/eligibility"
	"github.com/odyssey-erp/moneyreport/internal/shared"
)

func newTestRouter(t *testing.T, repo *memoryRepo) http.Handler {
	t.Helper()
	svc, _ := newTestService(t, repo)
	r := chi.NewRouter()
	r.Route("/reports", NewHandler(nil, svc).MountRoutes)
	return r
}

func doRequest(h http.Handler, method, path, body string, accountID int64) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if accountID != 0 {
		req = req.WithContext(shared.ContextWithSession(req.Context(), &shared.Session{ID: "s", AccountID: accountID}))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHeaderEndpoint(t *testing.T) {
	repo := newMemoryRepo()
	seedCorporate(repo)
	router := newTestRouter(t, repo)

	rr := doRequest(router, http.MethodGet, "/reports/R1/header", "", managerID)
	require.Equal(t, http.StatusOK, rr.Code)

	var header Header
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &header))
	require.True(t, header.Actions.ShowApprove)
	require.True(t, header.Actions.ShowSettlementButton)

	rr = doRequest(router, http.MethodGet, "/reports/R1/header", "", 0)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &header))
	require.False(t, header.Actions.ShowSettlementButton)
}

func TestHeaderEndpointNotFound(t *testing.T) {
	router := newTestRouter(t, newMemoryRepo())
	rr := doRequest(router, http.MethodGet, "/reports/nope/header", "", managerID)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestActionEndpoints(t *testing.T) {
	repo := newMemoryRepo()
	seedCorporate(repo)
	router := newTestRouter(t, repo)

	rr := doRequest(router, http.MethodPost, "/reports/R1/approve", "", 0)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doRequest(router, http.MethodPost, "/reports/R1/approve", "", adminID)
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = doRequest(router, http.MethodPost, "/reports/R1/approve", "", managerID)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, eligibility.StatusApproved, repo.reports["R1"].Status)

	rr = doRequest(router, http.MethodPost, "/reports/R1/pay", `{"paymentType":"cash"}`, adminID)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRequest(router, http.MethodPost, "/reports/R1/pay", `{`, adminID)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRequest(router, http.MethodPost, "/reports/R1/pay", `{"paymentType":"vbba"}`, adminID)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp reportResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, eligibility.StatusReimbursed, resp.Status)

	rr = doRequest(router, http.MethodGet, "/reports/R1/approvals", "", adminID)
	require.Equal(t, http.StatusOK, rr.Code)
	var logs []approvalResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &logs))
	require.Len(t, logs, 2)
}

func TestSubmitEndpoint(t *testing.T) {
	repo := newMemoryRepo()
	seedCorporate(repo)
	rec := repo.reports["R1"]
	rec.State = eligibility.StateDraft
	repo.reports["R1"] = rec
	router := newTestRouter(t, repo)

	rr := doRequest(router, http.MethodPost, "/reports/R1/submit", "", ownerID)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, eligibility.StateSubmitted, repo.reports["R1"].State)
}

func TestPayEndpointReplayedKey(t *testing.T) {
	repo := newMemoryRepo()
	seedCorporate(repo)
	router := newTestRouter(t, repo)

	rr := doRequest(router, http.MethodPost, "/reports/R1/approve", "", managerID)
	require.Equal(t, http.StatusOK, rr.Code)

	pay := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/reports/R1/pay", strings.NewReader(`{"paymentType":"elsewhere"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", "pay-R1")
		req = req.WithContext(shared.ContextWithSession(req.Context(), &shared.Session{ID: "s", AccountID: adminID}))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	require.Equal(t, http.StatusOK, pay().Code)
	require.Equal(t, http.StatusConflict, pay().Code)
	require.Equal(t, eligibility.StatusReimbursed, repo.reports["R1"].Status)
}
