package payments

import (
	"github.com/shopspring/decimal"

	"github.com/quotedesk/quotedesk/internal/shared"
)

type CreatePaymentRequest struct {
	Invoice         int64            `json:"invoice" validate:"required,gt=0"`
	InvoiceVersion  int64            `json:"invoice_version" validate:"required,gt=0"`
	PaymentNumber   string           `json:"payment_number" validate:"max=50"`
	PaymentDate     string           `json:"payment_date" validate:"required,datetime=2006-01-02"`
	Amount          *decimal.Decimal `json:"amount,omitempty"`
	PaymentMethod   int64            `json:"payment_method" validate:"required,gt=0"`
	DepositTo       int64            `json:"deposit_to" validate:"required,gt=0"`
	ReferenceNumber string           `json:"reference_number" validate:"max=100"`
	Notes           string           `json:"notes"`
	Documents       []string         `json:"documents" validate:"omitempty,dive,uuid"`
}

type UpdatePaymentRequest struct {
	PaymentDate     *string          `json:"payment_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Amount          *decimal.Decimal `json:"amount,omitempty"`
	PaymentMethod   *int64           `json:"payment_method,omitempty" validate:"omitempty,gt=0"`
	DepositTo       *int64           `json:"deposit_to,omitempty" validate:"omitempty,gt=0"`
	ReferenceNumber *string          `json:"reference_number,omitempty" validate:"omitempty,max=100"`
	Notes           *string          `json:"notes,omitempty"`
	Documents       *[]string        `json:"documents,omitempty" validate:"omitempty,dive,uuid"`
}

type ListPaymentsRequest struct {
	shared.ListParams
	Invoice *int64
}
