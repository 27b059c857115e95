package documents

import (
	"github.com/quotedesk/quotedesk/internal/pricing"
	"github.com/quotedesk/quotedesk/internal/shared"
)

// CreateRequest is the body of POST /quotations and POST /invoices.
type CreateRequest struct {
	ReferenceNumber string                `json:"reference_number" validate:"max=50"`
	Customer        int64                 `json:"customer" validate:"required,gt=0"`
	Signature       *int64                `json:"signature,omitempty"`
	Quotation       *int64                `json:"quotation,omitempty"`
	NewAdjustments  []pricing.NewCategory `json:"new_adjustments"`
	pricing.Draft
}

// SaveVersionRequest is the body of the version endpoints. POST carries the
// document id in Quotation or Invoice; PATCH carries the version to overwrite.
type SaveVersionRequest struct {
	Quotation      *int64                `json:"quotation,omitempty"`
	Invoice        *int64                `json:"invoice,omitempty"`
	Version        *int                  `json:"version,omitempty"`
	NewAdjustments []pricing.NewCategory `json:"new_adjustments"`
	pricing.Draft
}

// DocumentID returns the document addressed by a POST body for kind.
func (r SaveVersionRequest) DocumentID(kind pricing.Kind) int64 {
	ref := r.Quotation
	if kind == pricing.KindInvoice {
		ref = r.Invoice
	}
	if ref == nil {
		return 0
	}
	return *ref
}

// ConvertRequest turns a quotation version into a new invoice.
type ConvertRequest struct {
	Version         int    `json:"version" validate:"required,gt=0"`
	ReferenceNumber string `json:"reference_number" validate:"max=50"`
	IssueDate       string `json:"issue_date,omitempty"`
	ExpiryDate      string `json:"expiry_date,omitempty"`
	PaymentTerm     *int64 `json:"payment_term,omitempty"`
}

// ListRequest filters the document list.
type ListRequest struct {
	shared.ListParams
	Customer *int64
	Status   pricing.Status
}

// UpdateHeaderRequest edits the document header fields that are not versioned.
type UpdateHeaderRequest struct {
	Customer  *int64 `json:"customer,omitempty" validate:"omitempty,gt=0"`
	Signature *int64 `json:"signature,omitempty"`
}
