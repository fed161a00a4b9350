package forms

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/moneyreport/internal/platform/httpx"
)

// Handler serves form descriptors and validation.
type Handler struct {
	validator *Validator
}

// NewHandler builds Handler instance.
func NewHandler(v *Validator) *Handler {
	if v == nil {
		v = NewValidator()
	}
	return &Handler{validator: v}
}

// MountRoutes registers form routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/close-account", h.closeAccountFields)
	r.Post("/close-account/validate", h.validateCloseAccount)
}

type validationResponse struct {
	Valid  bool        `json:"valid"`
	Errors FieldErrors `json:"errors,omitempty"`
}

func (h *Handler) closeAccountFields(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, CloseAccountForm{}.Fields())
}

func (h *Handler) validateCloseAccount(w http.ResponseWriter, r *http.Request) {
	var form CloseAccountForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	_, err := h.validator.Validate(form)
	var fieldErrs FieldErrors
	switch {
	case err == nil:
		httpx.JSON(w, http.StatusOK, validationResponse{Valid: true})
	case errors.As(err, &fieldErrs):
		httpx.JSON(w, http.StatusUnprocessableEntity, validationResponse{Errors: fieldErrs})
	default:
		httpx.RespondError(w, err)
	}
}
