package reports

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/moneyreport/internal/eligibility"
	"github.com/odyssey-erp/moneyreport/internal/platform/httpx"
	"github.com/odyssey-erp/moneyreport/internal/shared"
)

// Handler exposes money report endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{reportID}/header", h.header)
	r.Get("/{reportID}/approvals", h.approvals)
	r.Post("/{reportID}/submit", h.submit)
	r.Post("/{reportID}/approve", h.approve)
	r.Post("/{reportID}/pay", h.pay)
}

type payRequest struct {
	PaymentType string `json:"paymentType" validate:"required,oneof=elsewhere expensify vbba"`
}

type reportResponse struct {
	ReportID string                   `json:"reportID"`
	State    eligibility.ReportState  `json:"state"`
	Status   eligibility.ReportStatus `json:"status"`
}

type approvalResponse struct {
	Action  shared.ApprovalAction `json:"action"`
	ActorID int64                 `json:"actorID"`
	Note    string                `json:"note,omitempty"`
	At      string                `json:"at"`
}

func (h *Handler) header(w http.ResponseWriter, r *http.Request) {
	viewer := eligibility.Viewer{AccountID: shared.AccountIDFromContext(r.Context())}
	header, err := h.service.Header(r.Context(), chi.URLParam(r, "reportID"), viewer)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, header)
}

func (h *Handler) approvals(w http.ResponseWriter, r *http.Request) {
	logs, err := h.service.History(r.Context(), chi.URLParam(r, "reportID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]approvalResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, approvalResponse{Action: l.Action, ActorID: l.ActorID, Note: l.Note, At: l.At.UTC().Format("2006-01-02T15:04:05Z")})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Submit(r.Context(), chi.URLParam(r, "reportID"), shared.AccountIDFromContext(r.Context()))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toReportResponse(rec))
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Approve(r.Context(), chi.URLParam(r, "reportID"), shared.AccountIDFromContext(r.Context()))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toReportResponse(rec))
}

func (h *Handler) pay(w http.ResponseWriter, r *http.Request) {
	var req payRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.respondError(w, fmt.Errorf("%w: %w", ErrInvalidPaymentType, err))
		return
	}
	rec, err := h.service.Pay(r.Context(), PayInput{
		ReportID:       chi.URLParam(r, "reportID"),
		ActorID:        shared.AccountIDFromContext(r.Context()),
		PaymentType:    PaymentType(req.PaymentType),
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toReportResponse(rec))
}

func toReportResponse(rec ReportRecord) reportResponse {
	return reportResponse{ReportID: rec.ReportID, State: rec.State, Status: rec.Status}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrReportNotFound):
		err = fmt.Errorf("%w: %w", httpx.ErrNotFound, err)
	case errors.Is(err, ErrSignInRequired):
		err = fmt.Errorf("%w: %w", httpx.ErrUnauthorized, err)
	case errors.Is(err, ErrActionNotAllowed):
		err = fmt.Errorf("%w: %w", httpx.ErrForbidden, err)
	case errors.Is(err, ErrInvalidPaymentType):
		err = fmt.Errorf("%w: %w", httpx.ErrValidation, err)
	case errors.Is(err, ErrDuplicateRequest):
		err = fmt.Errorf("%w: %w", httpx.ErrConflict, err)
	default:
		h.logger.Error("report request", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
