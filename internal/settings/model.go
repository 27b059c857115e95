package settings

import "time"

type PaymentTerm struct {
	ID       int64  `json:"id" db:"id"`
	TermName string `json:"term_name" db:"term_name"`
	DaysDue  int    `json:"days_due" db:"days_due"`
}

type PaymentMethod struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
}

type AccountType struct {
	ID            int64  `json:"id" db:"id"`
	Name          string `json:"name" db:"name"`
	Description   string `json:"description" db:"description"`
	IsBankAccount bool   `json:"is_bank_account" db:"is_bank_account"`
}

// Account is a deposit account that payments are credited to.
type Account struct {
	ID              int64  `json:"id" db:"id"`
	AccountType     int64  `json:"account_type" db:"account_type_id"`
	AccountTypeName string `json:"account_type_name" db:"account_type_name"`
	Name            string `json:"name" db:"name"`
	AccountCode     string `json:"account_code" db:"account_code"`
	Description     string `json:"description" db:"description"`
	Currency        *int64 `json:"currency" db:"currency_id"`
	BankName        string `json:"bank_name" db:"bank_name"`
	BankCode        string `json:"bank_code" db:"bank_code"`
	AccountNumber   string `json:"account_number" db:"account_number"`
}

type Currency struct {
	ID     int64  `json:"id" db:"id"`
	Code   string `json:"code" db:"code"`
	Name   string `json:"name" db:"name"`
	Symbol string `json:"symbol" db:"symbol"`
}

// UserSignature is a signature image owned by a user, referenced by documents.
type UserSignature struct {
	ID             int64     `json:"id" db:"id"`
	UserID         int64     `json:"user" db:"user_id"`
	SignatureName  string    `json:"signature_name" db:"signature_name"`
	SignatureImage *string   `json:"signature_image" db:"attachment_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

type CompanyProfile struct {
	OrganizationName string    `json:"organization_name" db:"organization_name"`
	BaseCurrency     *int64    `json:"base_currency" db:"base_currency_id"`
	Location         string    `json:"location" db:"location"`
	Address          string    `json:"address" db:"address"`
	Phone            string    `json:"phone" db:"phone"`
	WebsiteURL       string    `json:"website_url" db:"website_url"`
	Logo             *string   `json:"logo" db:"logo_attachment_id"`
	DateFormat       string    `json:"date_format" db:"date_format"`
	TimeZone         string    `json:"time_zone" db:"time_zone"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// DropdownOption is the id/name pair served by the dropdown endpoints.
type DropdownOption struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}
