package payments

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/quotedesk/quotedesk/internal/documents"
)

// Payment records money received against one invoice version. It never
// changes the invoice itself.
type Payment struct {
	ID                     int64                     `json:"id" db:"id"`
	Invoice                int64                     `json:"invoice_id" db:"invoice_id"`
	InvoiceVersion         int64                     `json:"invoice_version" db:"invoice_version_id"`
	InvoiceReferenceNumber string                    `json:"invoice_reference_number" db:"invoice_reference_number"`
	CustomerDisplayName    string                    `json:"customer_display_name" db:"customer_display_name"`
	PaymentNumber          string                    `json:"payment_number" db:"payment_number"`
	PaymentDate            string                    `json:"payment_date" db:"payment_date"`
	Amount                 decimal.Decimal           `json:"amount" db:"amount"`
	PaymentMethod          int64                     `json:"payment_method" db:"payment_method_id"`
	PaymentMethodName      string                    `json:"payment_method_name" db:"payment_method_name"`
	DepositTo              int64                     `json:"deposit_to" db:"deposit_to_id"`
	DepositToName          string                    `json:"deposit_to_name" db:"deposit_to_name"`
	ReferenceNumber        string                    `json:"reference_number" db:"reference_number"`
	Notes                  string                    `json:"notes" db:"notes"`
	DocumentIDs            []string                  `json:"-" db:"documents"`
	Documents              []documents.AttachmentRef `json:"documents" db:"-"`
	CreatedBy              int64                     `json:"created_by" db:"created_by"`
	CreatedAt              time.Time                 `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time                 `json:"updated_at" db:"updated_at"`
}

// InvoiceVersion is the slice of a document version a payment needs.
type InvoiceVersion struct {
	ID         int64           `db:"id"`
	DocumentID int64           `db:"document_id"`
	Kind       string          `db:"kind"`
	Version    int             `db:"version"`
	TotalPrice decimal.Decimal `db:"total_price"`
}
