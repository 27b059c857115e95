package customers

import "github.com/quotedesk/quotedesk/internal/shared"

type CreateCustomerRequest struct {
	CompanyName     string  `json:"company_name" validate:"max=200"`
	DisplayName     string  `json:"display_name" validate:"required,max=200"`
	IsActive        *bool   `json:"is_active,omitempty"`
	BillingAddress  Address `json:"billing_address"`
	ShippingAddress Address `json:"shipping_address"`
	PrimaryContact  Contact `json:"primary_contact"`
	Remarks         string  `json:"remarks"`
}

type UpdateCustomerRequest struct {
	CompanyName     *string  `json:"company_name,omitempty" validate:"omitempty,max=200"`
	DisplayName     *string  `json:"display_name,omitempty" validate:"omitempty,min=1,max=200"`
	IsActive        *bool    `json:"is_active,omitempty"`
	BillingAddress  *Address `json:"billing_address,omitempty"`
	ShippingAddress *Address `json:"shipping_address,omitempty"`
	PrimaryContact  *Contact `json:"primary_contact,omitempty"`
	Remarks         *string  `json:"remarks,omitempty"`
}

type ListCustomersRequest struct {
	shared.ListParams
	IsActive *bool
}
