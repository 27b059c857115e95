// Package documents stores quotations and invoices together with their
// version history and status-change log. Every write re-runs the pricing
// rules so persisted totals always match the engine.
package documents

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/quotedesk/quotedesk/internal/pricing"
)

// AttachmentRef is an attachment as shown on a version.
type AttachmentRef struct {
	ID               string `json:"id" db:"id"`
	OriginalFilename string `json:"original_filename" db:"original_filename"`
	Description      string `json:"description" db:"description"`
}

// Version is one immutable-numbered snapshot of a document.
type Version struct {
	ID              int64                    `json:"id" db:"id"`
	DocumentID      int64                    `json:"document" db:"document_id"`
	Version         int                      `json:"version" db:"version"`
	IssueDate       string                   `json:"issue_date" db:"issue_date"`
	ExpiryDate      string                   `json:"expiry_date" db:"expiry_date"`
	Status          pricing.Status           `json:"status" db:"status"`
	PaymentTerm     *int64                   `json:"payment_term" db:"payment_term_id"`
	PaymentTermName *string                  `json:"payment_term_name,omitempty" db:"payment_term_name"`
	Items           pricing.Items            `json:"items" db:"items"`
	Adjustments     []pricing.AdjustmentLine `json:"adjustments" db:"adjustments"`
	SubtotalPrice   decimal.Decimal          `json:"subtotal_price" db:"subtotal_price"`
	TotalPrice      decimal.Decimal          `json:"total_price" db:"total_price"`
	CustomerNotes   string                   `json:"customer_notes" db:"customer_notes"`
	TermsConditions string                   `json:"terms_conditions" db:"terms_conditions"`
	AttachmentIDs   []string                 `json:"-" db:"attachments"`
	AppendixIDs     []string                 `json:"-" db:"appendices"`
	Attachments     []AttachmentRef          `json:"attachments" db:"-"`
	Appendices      []AttachmentRef          `json:"appendices,omitempty" db:"-"`
	CreatedBy       int64                    `json:"created_by" db:"created_by"`
	CreatedAt       time.Time                `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at" db:"updated_at"`
}

// Draft returns the version as an editable snapshot.
func (v Version) Draft() pricing.Draft {
	return pricing.Draft{
		IssueDate:       v.IssueDate,
		ExpiryDate:      v.ExpiryDate,
		Status:          v.Status,
		PaymentTerm:     v.PaymentTerm,
		Items:           v.Items,
		Adjustments:     v.Adjustments,
		CustomerNotes:   v.CustomerNotes,
		TermsConditions: v.TermsConditions,
		Attachments:     refIDs(v.Attachments, v.AttachmentIDs),
		Appendices:      refIDs(v.Appendices, v.AppendixIDs),
	}
}

func refIDs(refs []AttachmentRef, fallback []string) []string {
	if len(refs) == 0 {
		return append([]string(nil), fallback...)
	}
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.ID
	}
	return out
}

// InvoiceLink lists an invoice converted from a quotation.
type InvoiceLink struct {
	ID              int64     `json:"id" db:"id"`
	ReferenceNumber string    `json:"reference_number" db:"reference_number"`
	CreationDate    time.Time `json:"creation_date" db:"created_at"`
}

// Document is the aggregate returned by GET /quotations/{id} and /invoices/{id}.
type Document struct {
	ID                       int64                  `json:"id" db:"id"`
	Kind                     pricing.Kind           `json:"kind" db:"kind"`
	ReferenceNumber          string                 `json:"reference_number" db:"reference_number"`
	Customer                 int64                  `json:"customer" db:"customer_id"`
	CustomerDisplayName      string                 `json:"customer_display_name" db:"customer_display_name"`
	Signature                *int64                 `json:"signature,omitempty" db:"signature_id"`
	Quotation                *int64                 `json:"quotation,omitempty" db:"quotation_id"`
	QuotationReferenceNumber *string                `json:"quotation_reference_number,omitempty" db:"quotation_reference_number"`
	Versions                 []Version              `json:"versions" db:"-"`
	StatusChanges            []pricing.StatusChange `json:"status_changes" db:"-"`
	Invoices                 []InvoiceLink          `json:"invoices,omitempty" db:"-"`
	CreatedBy                int64                  `json:"created_by" db:"created_by"`
	CreatedAt                time.Time              `json:"creation_date" db:"created_at"`
	UpdatedAt                time.Time              `json:"updated_at" db:"updated_at"`
}

// Latest returns the highest numbered version.
func (d *Document) Latest() *Version {
	var latest *Version
	for i := range d.Versions {
		if latest == nil || d.Versions[i].Version > latest.Version {
			latest = &d.Versions[i]
		}
	}
	return latest
}

// FindVersion returns the version with the given number.
func (d *Document) FindVersion(number int) *Version {
	for i := range d.Versions {
		if d.Versions[i].Version == number {
			return &d.Versions[i]
		}
	}
	return nil
}

// VersionNumbers lists the numbers of all versions.
func (d *Document) VersionNumbers() []int {
	out := make([]int, len(d.Versions))
	for i, v := range d.Versions {
		out[i] = v.Version
	}
	return out
}

// Summary is one row of the document list.
type Summary struct {
	ID                  int64           `json:"id" db:"id"`
	ReferenceNumber     string          `json:"reference_number" db:"reference_number"`
	Customer            int64           `json:"customer" db:"customer_id"`
	CustomerName        string          `json:"customer_name" db:"customer_name"`
	LatestVersion       int             `json:"latest_version" db:"latest_version"`
	LatestVersionStatus pricing.Status  `json:"latest_version_status" db:"latest_version_status"`
	TotalPrice          decimal.Decimal `json:"total_price" db:"total_price"`
	CreationDate        time.Time       `json:"creation_date" db:"created_at"`
}

// StatusChangeRecord is a status change as persisted.
type StatusChangeRecord struct {
	DocumentID  int64
	ChangedByID int64
	Change      pricing.StatusChange
}
