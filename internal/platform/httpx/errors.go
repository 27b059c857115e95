// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// DetailKey carries errors that do not belong to a single field.
const DetailKey = "detail"

// FieldErrors is the body of every non-2xx response: field name to messages.
type FieldErrors map[string][]string

// Add appends msg to the messages of field.
func (f FieldErrors) Add(field, msg string) {
	f[field] = append(f[field], msg)
}

// Error implements error with a stable, key-sorted rendering.
func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+": "+strings.Join(f[k], ", "))
	}
	return strings.Join(lines, "\n")
}

// Unwrap lets FieldErrors match ErrValidation.
func (f FieldErrors) Unwrap() error {
	return ErrValidation
}

// Invalid builds a validation error for one field.
func Invalid(field, msg string) error {
	return FieldErrors{field: {msg}}
}

// fielder is implemented by domain errors that already know their field.
type fielder interface {
	FieldMessages() map[string][]string
}

// RespondError maps domain errors to HTTP responses carrying FieldErrors.
func RespondError(w http.ResponseWriter, err error) {
	var fe FieldErrors
	var fd fielder
	var ve validator.ValidationErrors
	switch {
	case errors.As(err, &fe):
		JSON(w, http.StatusBadRequest, fe)
	case errors.As(err, &fd):
		JSON(w, http.StatusBadRequest, FieldErrors(fd.FieldMessages()))
	case errors.As(err, &ve):
		JSON(w, http.StatusBadRequest, fromValidator(ve))
	case errors.Is(err, ErrNotFound):
		Detail(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, ErrDuplicate):
		Detail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrValidation):
		Detail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrForbidden):
		Detail(w, http.StatusForbidden, "You do not have permission to perform this action.")
	case errors.Is(err, ErrUnauthorized):
		Detail(w, http.StatusUnauthorized, "Authentication credentials were not provided or are invalid.")
	default:
		Detail(w, http.StatusInternalServerError, "internal error")
	}
}

func fromValidator(errs validator.ValidationErrors) FieldErrors {
	out := FieldErrors{}
	for _, e := range errs {
		out.Add(e.Field(), validationMessage(e))
	}
	return out
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "phone":
		return "Enter digits only, at most 15."
	case "min":
		return "Ensure this field has at least " + e.Param() + " characters."
	case "max":
		return "Ensure this field has no more than " + e.Param() + " characters."
	case "oneof":
		return "Must be one of: " + e.Param() + "."
	}
	return "Invalid value."
}
