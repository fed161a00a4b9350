// Package auth exposes session endpoints for API clients.
package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/moneyreport/internal/platform/httpx"
	"github.com/odyssey-erp/moneyreport/internal/shared"
)

// Handler wires HTTP endpoints for session flows.
type Handler struct {
	logger         *slog.Logger
	sessionManager *shared.SessionManager
	validator      *validator.Validate
	allowIssue     bool
	secureCookie   bool
}

// NewHandler constructs a Handler instance. Sessions are normally issued by
// the identity service sharing the Redis keyspace; allowIssue enables the
// local issuing endpoint for development.
func NewHandler(logger *slog.Logger, sessions *shared.SessionManager, allowIssue, secureCookie bool) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		sessionManager: sessions,
		validator:      validator.New(),
		allowIssue:     allowIssue,
		secureCookie:   secureCookie,
	}
}

// MountRoutes registers session routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h.allowIssue {
		r.Post("/", h.issue)
	}
	r.Get("/current", h.current)
	r.Delete("/", h.revoke)
}

type issueRequest struct {
	AccountID int64 `json:"accountID" validate:"required,gt=0"`
}

type sessionResponse struct {
	Token     string    `json:"token"`
	AccountID int64     `json:"accountID"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "accountID must be positive")
		return
	}
	sess, err := h.sessionManager.Issue(r.Context(), req.AccountID)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
			return
		}
		h.logger.Error("issue session", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	expiresAt := sess.CreatedAt.Add(h.sessionManager.TTL())
	http.SetCookie(w, &http.Cookie{
		Name:     h.sessionManager.CookieName(),
		Value:    sess.ID,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	httpx.JSON(w, http.StatusCreated, sessionResponse{Token: sess.ID, AccountID: sess.AccountID, ExpiresAt: expiresAt})
}

func (h *Handler) current(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, sessionResponse{
		Token:     sess.ID,
		AccountID: sess.AccountID,
		ExpiresAt: sess.CreatedAt.Add(h.sessionManager.TTL()),
	})
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		if err := h.sessionManager.Revoke(r.Context(), sess.ID); err != nil {
			h.logger.Warn("revoke session", slog.Any("error", err))
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.sessionManager.CookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
	})
	w.WriteHeader(http.StatusNoContent)
}
