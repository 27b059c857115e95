// Package pricing implements the line-item and adjustment ledgers shared by
// quotations and invoices, together with the version and status rules that
// govern how a priced snapshot is saved.
package pricing

import "errors"

var (
	// ErrValidation is the parent of every draft validation failure.
	ErrValidation = errors.New("validation failed")
	// ErrNotANumber indicates a numeric field received non-numeric input.
	ErrNotANumber = errors.New("value is not a number")
	// ErrIndexOutOfRange indicates a ledger position that does not exist.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrUnknownField indicates an update addressed a field the ledger does not own.
	ErrUnknownField = errors.New("unknown field")
)

// FieldError is a validation failure attached to a named field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Unwrap lets callers match any FieldError against ErrValidation.
func (e *FieldError) Unwrap() error {
	return ErrValidation
}

// FieldMessages renders the error in the field-map shape used by the API.
func (e *FieldError) FieldMessages() map[string][]string {
	return map[string][]string{e.Field: {e.Message}}
}

// Validation failures, checked in this order by ValidateSubmission and ValidateDraft.
var (
	ErrNoItems            = &FieldError{Field: "items", Message: "Please add at least one item."}
	ErrItemQuantity       = &FieldError{Field: "items", Message: "Please check your items for valid quantities and prices."}
	ErrItemUnitPrice      = &FieldError{Field: "items", Message: "Please check your items for valid quantities and prices."}
	ErrAdjustmentAmount   = &FieldError{Field: "adjustments", Message: "Please check your adjustments for valid amounts."}
	ErrAdjustmentCategory = &FieldError{Field: "adjustments", Message: "Please select an adjustment."}
	ErrInvalidDates       = &FieldError{Field: "issue_date", Message: "Please enter valid dates for the issue and expiry dates."}
	ErrExpiryNotAfter     = &FieldError{Field: "expiry_date", Message: "The expiry date must be later than the issue date."}
	ErrInvalidStatus      = &FieldError{Field: "status", Message: "Status is not valid for this document."}
)
