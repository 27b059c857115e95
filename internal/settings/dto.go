package settings

type PaymentTermRequest struct {
	TermName string `json:"term_name" validate:"required,max=100"`
	DaysDue  int    `json:"days_due" validate:"gte=0,lte=3650"`
}

type PaymentMethodRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type AccountTypeRequest struct {
	Name          string `json:"name" validate:"required,max=100"`
	Description   string `json:"description" validate:"max=500"`
	IsBankAccount bool   `json:"is_bank_account"`
}

type AccountRequest struct {
	AccountType   int64  `json:"account_type" validate:"required,gt=0"`
	Name          string `json:"name" validate:"required,max=150"`
	AccountCode   string `json:"account_code" validate:"max=50"`
	Description   string `json:"description" validate:"max=500"`
	Currency      *int64 `json:"currency,omitempty" validate:"omitempty,gt=0"`
	BankName      string `json:"bank_name" validate:"max=150"`
	BankCode      string `json:"bank_code" validate:"max=50"`
	AccountNumber string `json:"account_number" validate:"max=50"`
}

type UserSignatureRequest struct {
	SignatureName  string `json:"signature_name" validate:"required,max=150"`
	SignatureImage *string `json:"signature_image,omitempty" validate:"omitempty,uuid"`
}

type CompanyProfileRequest struct {
	OrganizationName string `json:"organization_name" validate:"required,max=200"`
	BaseCurrency     *int64 `json:"base_currency,omitempty" validate:"omitempty,gt=0"`
	Location         string `json:"location" validate:"max=100"`
	Address          string `json:"address" validate:"max=500"`
	Phone            string `json:"phone" validate:"phone"`
	WebsiteURL       string `json:"website_url" validate:"omitempty,url"`
	Logo             *string `json:"logo,omitempty" validate:"omitempty,uuid"`
	DateFormat       string `json:"date_format" validate:"omitempty,oneof=DD/MM/YYYY MM/DD/YYYY YYYY-MM-DD"`
	TimeZone         string `json:"time_zone" validate:"omitempty,max=64"`
}
