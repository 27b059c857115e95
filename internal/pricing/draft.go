package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of issue and expiry dates.
const DateLayout = "2006-01-02"

// Draft is the snapshot submitted for a version save.
type Draft struct {
	IssueDate       string           `json:"issue_date"`
	ExpiryDate      string           `json:"expiry_date"`
	Status          Status           `json:"status"`
	PaymentTerm     *int64           `json:"payment_term,omitempty"`
	Items           Items            `json:"items"`
	Adjustments     []AdjustmentLine `json:"adjustments"`
	CustomerNotes   string           `json:"customer_notes"`
	TermsConditions string           `json:"terms_conditions"`
	Attachments     []string         `json:"attachments"`
	Appendices      []string         `json:"appendices"`
}

// Totals are the derived money figures of a version.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal_price"`
	Total    decimal.Decimal `json:"total_price"`
}

// ComputeTotals returns the subtotal and subtotal plus adjustment sum.
func ComputeTotals(items Items, adjustmentSum decimal.Decimal) Totals {
	subtotal := items.Subtotal()
	return Totals{Subtotal: subtotal, Total: subtotal.Add(adjustmentSum)}
}

// Totals computes the figures the backend persists for the draft.
func (d Draft) Totals() Totals {
	return ComputeTotals(d.Items, SumLines(d.Adjustments))
}

// ParseDates parses both dates and requires expiry strictly after issue.
func ParseDates(issue, expiry string) (time.Time, time.Time, error) {
	issued, err := time.Parse(DateLayout, issue)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidDates
	}
	expires, err := time.Parse(DateLayout, expiry)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidDates
	}
	if !expires.After(issued) {
		return time.Time{}, time.Time{}, ErrExpiryNotAfter
	}
	return issued, expires, nil
}

// ValidateSubmission checks an in-progress edit before any network call. Rules
// run in order: items, adjustments, dates, status.
func ValidateSubmission(kind Kind, items Items, adjs Adjustments, issue, expiry string, status Status) error {
	if err := ValidateItems(items); err != nil {
		return err
	}
	if err := adjs.Validate(); err != nil {
		return err
	}
	if _, _, err := ParseDates(issue, expiry); err != nil {
		return err
	}
	return ValidateStatus(kind, status)
}

// ValidateDraft applies the same rules to a submitted draft.
func ValidateDraft(kind Kind, d Draft) error {
	if err := ValidateItems(d.Items); err != nil {
		return err
	}
	if err := ValidateAdjustmentLines(d.Adjustments); err != nil {
		return err
	}
	if _, _, err := ParseDates(d.IssueDate, d.ExpiryDate); err != nil {
		return err
	}
	return ValidateStatus(kind, d.Status)
}
