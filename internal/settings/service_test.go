package settings

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotedesk/quotedesk/internal/platform/httpx"
	"github.com/quotedesk/quotedesk/internal/shared"
)

// memoryStore keeps rows as column maps and decodes them into T through build.
type memoryStore[T any] struct {
	rows   map[int64]map[string]any
	nextID int64
	build  func(id int64, row map[string]any) T
}

func newMemoryStore[T any](build func(id int64, row map[string]any) T) *memoryStore[T] {
	return &memoryStore[T]{rows: make(map[int64]map[string]any), build: build}
}

func (m *memoryStore[T]) matches(row, filter map[string]any) bool {
	for k, v := range filter {
		if row[k] != v {
			return false
		}
	}
	return true
}

func (m *memoryStore[T]) List(ctx context.Context, q Query) ([]T, int, error) {
	var out []T
	for id := int64(1); id <= m.nextID; id++ {
		if row, ok := m.rows[id]; ok && m.matches(row, q.Filter) {
			out = append(out, m.build(id, row))
		}
	}
	return out, len(out), nil
}

func (m *memoryStore[T]) Options(ctx context.Context, filter map[string]any) ([]DropdownOption, error) {
	var out []DropdownOption
	for id := int64(1); id <= m.nextID; id++ {
		if row, ok := m.rows[id]; ok && m.matches(row, filter) {
			name, _ := row["name"].(string)
			if name == "" {
				name, _ = row["signature_name"].(string)
			}
			out = append(out, DropdownOption{ID: id, Name: name})
		}
	}
	return out, nil
}

func (m *memoryStore[T]) Get(ctx context.Context, id int64) (*T, error) {
	row, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	v := m.build(id, row)
	return &v, nil
}

func (m *memoryStore[T]) Create(ctx context.Context, values map[string]any) (int64, error) {
	m.nextID++
	m.rows[m.nextID] = values
	return m.nextID, nil
}

func (m *memoryStore[T]) Update(ctx context.Context, id int64, values map[string]any) error {
	row, ok := m.rows[id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range values {
		row[k] = v
	}
	return nil
}

func (m *memoryStore[T]) Delete(ctx context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type memoryCompany struct {
	values map[string]any
}

func (m *memoryCompany) GetCompany(ctx context.Context) (*CompanyProfile, error) {
	if m.values == nil {
		return &CompanyProfile{DateFormat: "YYYY-MM-DD", TimeZone: "UTC"}, nil
	}
	return &CompanyProfile{
		OrganizationName: m.values["organization_name"].(string),
		DateFormat:       m.values["date_format"].(string),
		TimeZone:         m.values["time_zone"].(string),
	}, nil
}

func (m *memoryCompany) SaveCompany(ctx context.Context, values map[string]any) error {
	m.values = values
	return nil
}

func str(row map[string]any, k string) string {
	s, _ := row[k].(string)
	return s
}

func newMemoryRepositories() Repositories {
	return Repositories{
		PaymentTerms: newMemoryStore(func(id int64, row map[string]any) PaymentTerm {
			return PaymentTerm{ID: id, TermName: str(row, "term_name"), DaysDue: row["days_due"].(int)}
		}),
		PaymentMethods: newMemoryStore(func(id int64, row map[string]any) PaymentMethod {
			return PaymentMethod{ID: id, Name: str(row, "name"), Description: str(row, "description")}
		}),
		AccountTypes: newMemoryStore(func(id int64, row map[string]any) AccountType {
			return AccountType{ID: id, Name: str(row, "name"), IsBankAccount: row["is_bank_account"].(bool)}
		}),
		Accounts: newMemoryStore(func(id int64, row map[string]any) Account {
			return Account{ID: id, AccountType: row["account_type_id"].(int64), Name: str(row, "name"), AccountNumber: str(row, "account_number")}
		}),
		Currencies: newMemoryStore(func(id int64, row map[string]any) Currency {
			return Currency{ID: id, Code: str(row, "code"), Name: str(row, "name")}
		}),
		Signatures: newMemoryStore(func(id int64, row map[string]any) UserSignature {
			sig := UserSignature{ID: id, UserID: row["user_id"].(int64), SignatureName: str(row, "signature_name")}
			if v, ok := row["attachment_id"].(string); ok {
				sig.SignatureImage = &v
			}
			return sig
		}),
		Company: &memoryCompany{},
	}
}

func TestBankAccountRequiresNumber(t *testing.T) {
	svc := NewService(newMemoryRepositories())
	ctx := context.Background()

	bank, err := svc.AccountTypes.Create(ctx, AccountTypeRequest{Name: "Bank", IsBankAccount: true})
	require.NoError(t, err)
	cash, err := svc.AccountTypes.Create(ctx, AccountTypeRequest{Name: "Cash"})
	require.NoError(t, err)

	_, err = svc.Accounts.Create(ctx, AccountRequest{AccountType: bank.ID, Name: "Operating"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	acct, err := svc.Accounts.Create(ctx, AccountRequest{AccountType: bank.ID, Name: "Operating", AccountNumber: " 0012 "})
	require.NoError(t, err)
	assert.Equal(t, "0012", acct.AccountNumber)

	petty, err := svc.Accounts.Create(ctx, AccountRequest{AccountType: cash.ID, Name: "Petty", AccountNumber: "ignored"})
	require.NoError(t, err)
	assert.Empty(t, petty.AccountNumber)

	_, err = svc.Accounts.Create(ctx, AccountRequest{AccountType: 99, Name: "Ghost"})
	var fe httpx.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "account_type")
}

func TestSignatureKeepsImageWhenOmitted(t *testing.T) {
	svc := NewService(newMemoryRepositories())
	ctx := shared.ContextWithUser(context.Background(), shared.CurrentUser{ID: 5})
	image := "6f1c1c1e-6f43-4b7e-9a55-2d9c3f1f8a10"

	sig, err := svc.Signatures.Create(ctx, UserSignatureRequest{SignatureName: "Formal", SignatureImage: &image})
	require.NoError(t, err)
	assert.Equal(t, int64(5), sig.UserID)

	sig, err = svc.Signatures.Update(ctx, sig.ID, UserSignatureRequest{SignatureName: "Formal v2"})
	require.NoError(t, err)
	require.NotNil(t, sig.SignatureImage)
	assert.Equal(t, image, *sig.SignatureImage)
	assert.Equal(t, "Formal v2", sig.SignatureName)

	_, err = svc.Signatures.Create(context.Background(), UserSignatureRequest{SignatureName: "Anon"})
	require.ErrorIs(t, err, httpx.ErrUnauthorized)
}

func newTestRouter(svc *Service, user shared.CurrentUser) http.Handler {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithUser(req.Context(), user)))
		})
	})
	h.MountRoutes(r)
	return r
}

func TestPaymentTermRoutes(t *testing.T) {
	router := newTestRouter(NewService(newMemoryRepositories()), shared.CurrentUser{ID: 1})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payment-terms", strings.NewReader(`{"term_name":"Net 30","days_due":30}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payment-terms", strings.NewReader(`{"days_due":-1}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var errs map[string][]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errs))
	assert.Contains(t, errs, "term_name")
	assert.Contains(t, errs, "days_due")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payment-terms/dropdown", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payment-terms", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var page shared.Page[PaymentTerm]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	require.Equal(t, 1, page.Count)
	assert.Equal(t, "Net 30", page.Results[0].TermName)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/payment-terms/1", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSignatureDropdownIsScopedToCaller(t *testing.T) {
	repos := newMemoryRepositories()
	svc := NewService(repos)
	for _, uid := range []int64{1, 2} {
		ctx := shared.ContextWithUser(context.Background(), shared.CurrentUser{ID: uid})
		_, err := svc.Signatures.Create(ctx, UserSignatureRequest{SignatureName: "Sig"})
		require.NoError(t, err)
	}

	rec := httptest.NewRecorder()
	newTestRouter(svc, shared.CurrentUser{ID: 2}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/user-signatures/dropdown", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":2,"name":"Sig"}]`, rec.Body.String())
}

func TestCompanyProfileDefaults(t *testing.T) {
	svc := NewService(newMemoryRepositories())
	profile, err := svc.SaveCompanyProfile(context.Background(), CompanyProfileRequest{OrganizationName: " Acme "})
	require.NoError(t, err)
	assert.Equal(t, "Acme", profile.OrganizationName)
	assert.Equal(t, "YYYY-MM-DD", profile.DateFormat)
	assert.Equal(t, "UTC", profile.TimeZone)
}
