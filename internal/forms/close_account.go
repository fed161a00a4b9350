// Package forms describes input forms shared between clients and the server.
package forms

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field ids of the close-account form.
const (
	FieldReasonForLeaving = "reasonForLeaving"
	FieldPhoneOrEmail     = "phoneOrEmail"
	FieldSuccess          = "success"
)

// ReasonMaxLength bounds the free-text reason.
const ReasonMaxLength = 500

// FieldDescriptor describes one input of a form.
type FieldDescriptor struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Input     string `json:"input"`
	Required  bool   `json:"required"`
	MaxLength int    `json:"maxLength,omitempty"`
}

// CloseAccountForm is the payload of the close-account form.
type CloseAccountForm struct {
	ReasonForLeaving string `json:"reasonForLeaving" validate:"max=500"`
	PhoneOrEmail     string `json:"phoneOrEmail" validate:"required,email|e164"`
}

// Fields lists the inputs in display order.
func (CloseAccountForm) Fields() []FieldDescriptor {
	return []FieldDescriptor{
		{ID: FieldReasonForLeaving, Label: "Reason for leaving", Input: "textarea", MaxLength: ReasonMaxLength},
		{ID: FieldPhoneOrEmail, Label: "Default contact method", Input: "text", Required: true},
		{ID: FieldSuccess, Label: "", Input: "hidden"},
	}
}

// FieldErrors maps field ids to messages.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for id, msg := range e {
		parts = append(parts, id+": "+msg)
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// Validator checks form payloads.
type Validator struct {
	validate *validator.Validate
}

// NewValidator constructs a Validator that reports errors by JSON field id.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Validate trims the payload and returns FieldErrors on failure.
func (v *Validator) Validate(form CloseAccountForm) (CloseAccountForm, error) {
	form.ReasonForLeaving = strings.TrimSpace(form.ReasonForLeaving)
	form.PhoneOrEmail = strings.TrimSpace(form.PhoneOrEmail)
	err := v.validate.Struct(form)
	if err == nil {
		return form, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return form, err
	}
	out := FieldErrors{}
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}
	return form, out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "must be a valid email address or phone number"
	}
}
