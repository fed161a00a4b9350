package forms

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func TestCloseAccountFieldIDs(t *testing.T) {
	fields := CloseAccountForm{}.Fields()
	ids := make([]string, 0, len(fields))
	for _, f := range fields {
		ids = append(ids, f.ID)
	}
	require.Equal(t, []string{"reasonForLeaving", "phoneOrEmail", "success"}, ids)
}

func TestValidate(t *testing.T) {
	v := NewValidator()

	cases := []struct {
		name    string
		form    CloseAccountForm
		invalid []string
	}{
		{name: "email", form: CloseAccountForm{PhoneOrEmail: "ana@example.com"}},
		{name: "phone", form: CloseAccountForm{PhoneOrEmail: "+14155552671", ReasonForLeaving: "moving on"}},
		{name: "trimmed", form: CloseAccountForm{PhoneOrEmail: "  ana@example.com "}},
		{name: "missing contact", form: CloseAccountForm{}, invalid: []string{FieldPhoneOrEmail}},
		{name: "bad contact", form: CloseAccountForm{PhoneOrEmail: "call me"}, invalid: []string{FieldPhoneOrEmail}},
		{
			name:    "long reason",
			form:    CloseAccountForm{PhoneOrEmail: "ana@example.com", ReasonForLeaving: strings.Repeat("x", ReasonMaxLength+1)},
			invalid: []string{FieldReasonForLeaving},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Validate(tc.form)
			if len(tc.invalid) == 0 {
				require.NoError(t, err)
				return
			}
			var fe FieldErrors
			require.ErrorAs(t, err, &fe)
			for _, id := range tc.invalid {
				require.Contains(t, fe, id)
			}
			require.Len(t, fe, len(tc.invalid))
		})
	}
}

func TestValidateEndpoint(t *testing.T) {
	r := chi.NewRouter()
	r.Route("/forms", NewHandler(nil).MountRoutes)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/forms/close-account/validate", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr
	}

	rr := post(`{"phoneOrEmail":"ana@example.com"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = post(`{"phoneOrEmail":""}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	var resp validationResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.False(t, resp.Valid)
	require.Equal(t, "is required", resp.Errors[FieldPhoneOrEmail])

	rr = post(`not json`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/forms/close-account", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}
