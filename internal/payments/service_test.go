package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotedesk/quotedesk/internal/numbering"
	"github.com/quotedesk/quotedesk/internal/platform/db"
	"github.com/quotedesk/quotedesk/internal/platform/httpx"
	"github.com/quotedesk/quotedesk/internal/shared"
)

type memoryRepo struct {
	versions map[int64]InvoiceVersion
	payments map[int64]*Payment
	nextID   int64
	failNext error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		versions: map[int64]InvoiceVersion{
			11: {ID: 11, DocumentID: 5, Kind: "invoice", Version: 1, TotalPrice: decimal.RequireFromString("150.25")},
			12: {ID: 12, DocumentID: 5, Kind: "invoice", Version: 2, TotalPrice: decimal.Zero},
			21: {ID: 21, DocumentID: 6, Kind: "quotation", Version: 1, TotalPrice: decimal.NewFromInt(10)},
		},
		payments: make(map[int64]*Payment),
	}
}

func (m *memoryRepo) InvoiceVersion(ctx context.Context, versionID int64) (*InvoiceVersion, error) {
	v, ok := m.versions[versionID]
	if !ok {
		return nil, ErrNotFound
	}
	return &v, nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (*Payment, error) {
	p, ok := m.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memoryRepo) List(ctx context.Context, req ListPaymentsRequest) ([]Payment, int, error) {
	var out []Payment
	for id := int64(1); id <= m.nextID; id++ {
		p, ok := m.payments[id]
		if !ok || (req.Invoice != nil && p.Invoice != *req.Invoice) {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Update(ctx context.Context, id int64, updates map[string]any) error {
	p, ok := m.payments[id]
	if !ok {
		return ErrNotFound
	}
	if v, ok := updates["amount"].(decimal.Decimal); ok {
		p.Amount = v
	}
	if v, ok := updates["notes"].(string); ok {
		p.Notes = v
	}
	return nil
}

func (m *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.payments[id]; !ok {
		return ErrNotFound
	}
	delete(m.payments, id)
	return nil
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, m)
}

func (m *memoryRepo) Create(ctx context.Context, p Payment) (int64, error) {
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return 0, err
	}
	m.nextID++
	p.ID = m.nextID
	m.payments[p.ID] = &p
	return p.ID, nil
}

func (m *memoryRepo) DB() db.DBTX { return nil }

type memoryKeys struct {
	ids map[string]int64
}

func (k *memoryKeys) CheckAndInsert(ctx context.Context, key, module string) error {
	if _, ok := k.ids[module+"/"+key]; ok {
		return shared.ErrIdempotencyConflict
	}
	k.ids[module+"/"+key] = 0
	return nil
}

func (k *memoryKeys) Complete(ctx context.Context, key, module string, id int64) error {
	k.ids[module+"/"+key] = id
	return nil
}

func (k *memoryKeys) Lookup(ctx context.Context, key, module string) (int64, error) {
	return k.ids[module+"/"+key], nil
}

func (k *memoryKeys) Delete(ctx context.Context, key, module string) error {
	delete(k.ids, module+"/"+key)
	return nil
}

type receiptNumbers struct{ n int }

func (r *receiptNumbers) Commit(ctx context.Context, q db.DBTX, t numbering.DocumentType, userID int64) (string, error) {
	r.n++
	return fmt.Sprintf("RCPT-JD-2610-%04d", r.n), nil
}

type paymentCounter struct{ n int }

func (c *paymentCounter) PaymentRecorded() { c.n++ }

var cashier = shared.CurrentUser{ID: 3, Name: "Sam Cashier"}

func baseRequest() CreatePaymentRequest {
	return CreatePaymentRequest{Invoice: 5, InvoiceVersion: 11, PaymentDate: "2026-10-12", PaymentMethod: 1, DepositTo: 2}
}

func newTestService() (*Service, *memoryRepo, *memoryKeys, *paymentCounter) {
	repo := newMemoryRepo()
	keys := &memoryKeys{ids: make(map[string]int64)}
	counter := &paymentCounter{}
	svc := NewService(repo, &receiptNumbers{}, keys, counter, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc, repo, keys, counter
}

func TestCreateDefaultsAmountToVersionTotal(t *testing.T) {
	svc, _, _, counter := newTestService()

	res, err := svc.Create(context.Background(), baseRequest(), cashier, "")
	require.NoError(t, err)
	assert.False(t, res.Replayed)
	assert.True(t, res.Payment.Amount.Equal(decimal.RequireFromString("150.25")))
	assert.Equal(t, "RCPT-JD-2610-0001", res.Payment.PaymentNumber)
	assert.Equal(t, []string{}, res.Payment.DocumentIDs)
	assert.Equal(t, 1, counter.n)
}

func TestCreateRejectsNonPositiveAmounts(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()

	req := baseRequest()
	req.InvoiceVersion = 12
	_, err := svc.Create(ctx, req, cashier, "")
	var fe httpx.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "amount")

	req = baseRequest()
	negative := decimal.NewFromInt(-5)
	req.Amount = &negative
	_, err = svc.Create(ctx, req, cashier, "")
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "amount")
	assert.Empty(t, repo.payments)
}

func TestCreateChecksVersionBelongsToInvoice(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	for _, req := range []CreatePaymentRequest{
		{Invoice: 9, InvoiceVersion: 11, PaymentDate: "2026-10-12", PaymentMethod: 1, DepositTo: 2},
		{Invoice: 6, InvoiceVersion: 21, PaymentDate: "2026-10-12", PaymentMethod: 1, DepositTo: 2},
		{Invoice: 5, InvoiceVersion: 99, PaymentDate: "2026-10-12", PaymentMethod: 1, DepositTo: 2},
	} {
		_, err := svc.Create(ctx, req, cashier, "")
		var fe httpx.FieldErrors
		require.ErrorAs(t, err, &fe)
		assert.Contains(t, fe, "invoice_version")
	}
}

func TestCreateHonoursIdempotencyKey(t *testing.T) {
	svc, repo, keys, counter := newTestService()
	ctx := context.Background()

	first, err := svc.Create(ctx, baseRequest(), cashier, "key-1")
	require.NoError(t, err)
	again, err := svc.Create(ctx, baseRequest(), cashier, "key-1")
	require.NoError(t, err)

	assert.True(t, again.Replayed)
	assert.Equal(t, first.Payment.ID, again.Payment.ID)
	assert.Len(t, repo.payments, 1)
	assert.Equal(t, 1, counter.n)

	keys.ids["payments/key-2"] = 0
	_, err = svc.Create(ctx, baseRequest(), cashier, "key-2")
	assert.ErrorIs(t, err, ErrInProgress)
}

func TestCreateReleasesKeyOnFailure(t *testing.T) {
	svc, repo, keys, _ := newTestService()
	ctx := context.Background()

	repo.failNext = errors.New("connection reset")
	_, err := svc.Create(ctx, baseRequest(), cashier, "key-3")
	require.Error(t, err)
	assert.NotContains(t, keys.ids, "payments/key-3")

	res, err := svc.Create(ctx, baseRequest(), cashier, "key-3")
	require.NoError(t, err)
	assert.False(t, res.Replayed)
}

func TestUpdateValidatesAmount(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()
	res, err := svc.Create(ctx, baseRequest(), cashier, "")
	require.NoError(t, err)

	zero := decimal.Zero
	_, err = svc.Update(ctx, res.Payment.ID, UpdatePaymentRequest{Amount: &zero})
	var fe httpx.FieldErrors
	require.ErrorAs(t, err, &fe)

	amount := decimal.RequireFromString("99.999")
	notes := "second instalment"
	p, err := svc.Update(ctx, res.Payment.ID, UpdatePaymentRequest{Amount: &amount, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "100", p.Amount.String())
	assert.Equal(t, notes, p.Notes)
}

func TestHandlerCreateAndReplay(t *testing.T) {
	svc, _, _, _ := newTestService()
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
	r := chi.NewRouter()
	h.MountRoutes(r)

	body := `{"invoice": 5, "invoice_version": 11, "payment_date": "2026-10-12", "payment_method": 1, "deposit_to": 2, "amount": "50"}`
	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(body))
		req.Header.Set(shared.IdempotencyHeader, "abc")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := send()
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created Payment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "50", created.Amount.String())

	rec = send()
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/invoices/5/payments", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var page shared.Page[Payment]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Count)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(`{"invoice": 5}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invoice_version")
}
