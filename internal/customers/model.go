package customers

import "time"

type Address struct {
	Attention    string `json:"attention"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
	Country      string `json:"country"`
}

type Contact struct {
	Salutation             string `json:"salutation"`
	FirstName              string `json:"first_name"`
	LastName               string `json:"last_name"`
	Email                  string `json:"email" validate:"omitempty,email"`
	WorkPhone              string `json:"work_phone" validate:"phone"`
	WorkPhoneCountryCode   string `json:"work_phone_country_code" validate:"omitempty,max=5"`
	MobilePhone            string `json:"mobile_phone" validate:"phone"`
	MobilePhoneCountryCode string `json:"mobile_phone_country_code" validate:"omitempty,max=5"`
	Fax                    string `json:"fax" validate:"phone"`
	FaxCountryCode         string `json:"fax_country_code" validate:"omitempty,max=5"`
}

type Customer struct {
	ID              int64     `json:"id" db:"id"`
	CompanyName     string    `json:"company_name" db:"company_name"`
	DisplayName     string    `json:"display_name" db:"display_name"`
	IsActive        bool      `json:"is_active" db:"is_active"`
	BillingAddress  Address   `json:"billing_address" db:"billing_address"`
	ShippingAddress Address   `json:"shipping_address" db:"shipping_address"`
	PrimaryContact  Contact   `json:"primary_contact" db:"primary_contact"`
	Remarks         string    `json:"remarks" db:"remarks"`
	CreatedBy       int64     `json:"created_by" db:"created_by"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Option is the compact form served by the dropdown endpoint.
type Option struct {
	ID          int64  `json:"id" db:"id"`
	DisplayName string `json:"display_name" db:"display_name"`
	CompanyName string `json:"company_name" db:"company_name"`
}
