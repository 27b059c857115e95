package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/quotedesk/quotedesk/internal/platform/httpx"
	"github.com/quotedesk/quotedesk/internal/shared"
)

// Catalog is a CRUD service over one settings store. R is the request body
// accepted on create and update.
type Catalog[T any, R any] struct {
	store  Store[T]
	values func(ctx context.Context, req R) (map[string]any, error)
}

func (c *Catalog[T, R]) List(ctx context.Context, q Query) ([]T, int, error) {
	return c.store.List(ctx, q)
}

func (c *Catalog[T, R]) Options(ctx context.Context, filter map[string]any) ([]DropdownOption, error) {
	return c.store.Options(ctx, filter)
}

func (c *Catalog[T, R]) Get(ctx context.Context, id int64) (*T, error) {
	return c.store.Get(ctx, id)
}

func (c *Catalog[T, R]) Create(ctx context.Context, req R) (*T, error) {
	values, err := c.values(ctx, req)
	if err != nil {
		return nil, err
	}
	id, err := c.store.Create(ctx, values)
	if err != nil {
		return nil, err
	}
	return c.store.Get(ctx, id)
}

func (c *Catalog[T, R]) Update(ctx context.Context, id int64, req R) (*T, error) {
	if _, err := c.store.Get(ctx, id); err != nil {
		return nil, err
	}
	values, err := c.values(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := c.store.Update(ctx, id, values); err != nil {
		return nil, err
	}
	return c.store.Get(ctx, id)
}

func (c *Catalog[T, R]) Delete(ctx context.Context, id int64) error {
	return c.store.Delete(ctx, id)
}

// Service groups the settings catalogues and the company profile.
type Service struct {
	PaymentTerms   *Catalog[PaymentTerm, PaymentTermRequest]
	PaymentMethods *Catalog[PaymentMethod, PaymentMethodRequest]
	AccountTypes   *Catalog[AccountType, AccountTypeRequest]
	Accounts       *Catalog[Account, AccountRequest]
	Signatures     *Catalog[UserSignature, UserSignatureRequest]
	currencies     Store[Currency]
	company        CompanyRepository
}

func NewService(repos Repositories) *Service {
	return &Service{
		PaymentTerms: &Catalog[PaymentTerm, PaymentTermRequest]{
			store: repos.PaymentTerms,
			values: func(_ context.Context, req PaymentTermRequest) (map[string]any, error) {
				return map[string]any{"term_name": strings.TrimSpace(req.TermName), "days_due": req.DaysDue}, nil
			},
		},
		PaymentMethods: &Catalog[PaymentMethod, PaymentMethodRequest]{
			store: repos.PaymentMethods,
			values: func(_ context.Context, req PaymentMethodRequest) (map[string]any, error) {
				return map[string]any{"name": strings.TrimSpace(req.Name), "description": req.Description}, nil
			},
		},
		AccountTypes: &Catalog[AccountType, AccountTypeRequest]{
			store: repos.AccountTypes,
			values: func(_ context.Context, req AccountTypeRequest) (map[string]any, error) {
				return map[string]any{
					"name":            strings.TrimSpace(req.Name),
					"description":     req.Description,
					"is_bank_account": req.IsBankAccount,
				}, nil
			},
		},
		Accounts: &Catalog[Account, AccountRequest]{
			store:  repos.Accounts,
			values: accountValues(repos.AccountTypes),
		},
		Signatures: &Catalog[UserSignature, UserSignatureRequest]{
			store:  repos.Signatures,
			values: signatureValues,
		},
		currencies: repos.Currencies,
		company:    repos.Company,
	}
}

func accountValues(types Store[AccountType]) func(context.Context, AccountRequest) (map[string]any, error) {
	return func(ctx context.Context, req AccountRequest) (map[string]any, error) {
		accountType, err := types.Get(ctx, req.AccountType)
		if errors.Is(err, ErrNotFound) {
			return nil, httpx.Invalid("account_type", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", req.AccountType))
		}
		if err != nil {
			return nil, err
		}
		values := map[string]any{
			"account_type_id": req.AccountType,
			"name":            strings.TrimSpace(req.Name),
			"account_code":    req.AccountCode,
			"description":     req.Description,
			"currency_id":     req.Currency,
			"bank_name":       "",
			"bank_code":       "",
			"account_number":  "",
		}
		if accountType.IsBankAccount {
			if strings.TrimSpace(req.AccountNumber) == "" {
				return nil, httpx.Invalid("account_number", "This field is required for bank accounts.")
			}
			values["bank_name"] = req.BankName
			values["bank_code"] = req.BankCode
			values["account_number"] = strings.TrimSpace(req.AccountNumber)
		}
		return values, nil
	}
}

func signatureValues(ctx context.Context, req UserSignatureRequest) (map[string]any, error) {
	user, ok := shared.UserFromContext(ctx)
	if !ok {
		return nil, shared.ErrUnauthenticated
	}
	values := map[string]any{"user_id": user.ID, "signature_name": strings.TrimSpace(req.SignatureName)}
	if req.SignatureImage != nil {
		values["attachment_id"] = *req.SignatureImage
	}
	return values, nil
}

func (s *Service) CurrencyOptions(ctx context.Context) ([]Currency, error) {
	out, _, err := s.currencies.List(ctx, Query{ListParams: shared.ListParams{Page: 1, PageSize: 500, Ordering: []string{"code"}}})
	return out, err
}

func (s *Service) CompanyProfile(ctx context.Context) (*CompanyProfile, error) {
	return s.company.GetCompany(ctx)
}

func (s *Service) SaveCompanyProfile(ctx context.Context, req CompanyProfileRequest) (*CompanyProfile, error) {
	values := map[string]any{
		"organization_name":  strings.TrimSpace(req.OrganizationName),
		"base_currency_id":   req.BaseCurrency,
		"location":           req.Location,
		"address":            req.Address,
		"phone":              req.Phone,
		"website_url":        req.WebsiteURL,
		"logo_attachment_id": req.Logo,
		"date_format":        defaultString(req.DateFormat, "YYYY-MM-DD"),
		"time_zone":          defaultString(req.TimeZone, "UTC"),
	}
	if err := s.company.SaveCompany(ctx, values); err != nil {
		return nil, fmt.Errorf("save company profile: %w", err)
	}
	return s.company.GetCompany(ctx)
}

func defaultString(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
