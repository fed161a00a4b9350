package request

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/moneyreport/internal/platform/httpx"
	"github.com/odyssey-erp/moneyreport/internal/shared"
)

// Handler exposes the request start screen.
type Handler struct {
	logger *slog.Logger
	flow   *Flow
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, flow *Flow) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, flow: flow}
}

// MountRoutes registers request flow routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{iouType}/start", h.start)
	r.Post("/{iouType}/tab", h.selectTab)
	r.Delete("/draft", h.dismiss)
}

type tabRequest struct {
	Tab      string `json:"tab"`
	ReportID string `json:"reportID"`
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	accountID := shared.AccountIDFromContext(r.Context())
	iouType := chi.URLParam(r, "iouType")
	reportID := r.URL.Query().Get("reportID")
	if tab := r.URL.Query().Get("tab"); tab != "" {
		if _, err := ParseIOUType(iouType); err != nil {
			h.respondError(w, err)
			return
		}
		if _, err := h.flow.SelectTab(r.Context(), accountID, reportID, tab); err != nil {
			h.respondError(w, err)
			return
		}
	}
	page, err := h.flow.Start(r.Context(), accountID, iouType, reportID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) selectTab(w http.ResponseWriter, r *http.Request) {
	if _, err := ParseIOUType(chi.URLParam(r, "iouType")); err != nil {
		h.respondError(w, err)
		return
	}
	var req tabRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	draft, err := h.flow.SelectTab(r.Context(), shared.AccountIDFromContext(r.Context()), req.ReportID, req.Tab)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, draft)
}

func (h *Handler) dismiss(w http.ResponseWriter, r *http.Request) {
	if err := h.flow.Dismiss(r.Context(), shared.AccountIDFromContext(r.Context())); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnknownIOUType):
		err = fmt.Errorf("%w: %w", httpx.ErrNotFound, err)
	case errors.Is(err, ErrUnknownTab):
		err = fmt.Errorf("%w: %w", httpx.ErrValidation, err)
	case errors.Is(err, ErrSignInRequired):
		err = fmt.Errorf("%w: %w", httpx.ErrUnauthorized, err)
	default:
		h.logger.Error("request flow", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
