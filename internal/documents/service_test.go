package documents

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/quotedesk/quotedesk/internal/numbering"
	"github.com/quotedesk/quotedesk/internal/platform/cache"
	"github.com/quotedesk/quotedesk/internal/platform/httpx"
	"github.com/quotedesk/quotedesk/internal/pricing"
	"github.com/quotedesk/quotedesk/internal/shared"
)

var jane = shared.CurrentUser{ID: 1, Name: "Jane Doe"}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func sampleDraft() pricing.Draft {
	return pricing.Draft{
		IssueDate:  "2026-10-01",
		ExpiryDate: "2026-10-31",
		Items: pricing.Items{
			{Detail: "Widget", Quantity: dec("2"), UnitPrice: dec("5"), Discount: dec("1")},
			{Detail: "Bolt", Quantity: dec("1"), UnitPrice: dec("3")},
		},
		Adjustments: []pricing.AdjustmentLine{{Category: "tax", Amount: dec("1")}},
	}
}

type fixture struct {
	repo    *memoryRepo
	numbers *memoryNumbers
	metrics *countingRecorder
	svc     *Service
}

func newFixture(t *testing.T, locker Locker) *fixture {
	t.Helper()
	f := &fixture{repo: newMemoryRepo(), numbers: &memoryNumbers{}, metrics: &countingRecorder{}}
	f.svc = NewService(f.repo, f.numbers, locker, f.metrics, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	f.svc.now = func() time.Time { return time.Date(2026, 10, 5, 9, 30, 0, 0, time.UTC) }
	return f
}

func (f *fixture) createQuotation(t *testing.T) *Document {
	t.Helper()
	doc, err := f.svc.Create(context.Background(), pricing.KindQuotation, CreateRequest{Customer: 7, Draft: sampleDraft()}, jane)
	require.NoError(t, err)
	return doc
}

func fieldErrors(t *testing.T, err error) map[string][]string {
	t.Helper()
	var fe httpx.FieldErrors
	if errors.As(err, &fe) {
		return fe
	}
	var pe *pricing.FieldError
	require.ErrorAs(t, err, &pe)
	return pe.FieldMessages()
}

func TestCreateStoresFirstVersionWithTotals(t *testing.T) {
	f := newFixture(t, nil)
	doc := f.createQuotation(t)

	assert.Equal(t, "QT-JD-2610-0001", doc.ReferenceNumber)
	require.Len(t, doc.Versions, 1)
	v := doc.Versions[0]
	assert.Equal(t, 1, v.Version)
	assert.Equal(t, pricing.StatusPending, v.Status)
	assert.True(t, v.SubtotalPrice.Equal(dec("14")), v.SubtotalPrice.String())
	assert.True(t, v.TotalPrice.Equal(dec("15")), v.TotalPrice.String())
	assert.True(t, v.Items[0].TotalAmount.Equal(dec("9")))
	assert.Equal(t, 1, v.Items[1].Order)
	assert.Equal(t, "Tax", v.Adjustments[0].CategoryName)

	require.Len(t, doc.StatusChanges, 1)
	assert.Equal(t, "Jane Doe created version 1", doc.StatusChanges[0].Describe())
	assert.Equal(t, 1, f.metrics.saves["quotation/create"])
	assert.Equal(t, []numbering.DocumentType{numbering.DocumentQuotation}, f.numbers.committed)
}

func TestCreateKeepsSubmittedReferenceNumber(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	doc, err := f.svc.Create(ctx, pricing.KindQuotation, CreateRequest{ReferenceNumber: " QT-CUSTOM-1 ", Customer: 7, Draft: sampleDraft()}, jane)
	require.NoError(t, err)
	assert.Equal(t, "QT-CUSTOM-1", doc.ReferenceNumber)

	_, err = f.svc.Create(ctx, pricing.KindQuotation, CreateRequest{ReferenceNumber: "QT-CUSTOM-1", Customer: 8, Draft: sampleDraft()}, jane)
	assert.Contains(t, fieldErrors(t, err), "reference_number")
	assert.Len(t, f.numbers.committed, 1)

	_, err = f.svc.Create(ctx, pricing.KindInvoice, CreateRequest{ReferenceNumber: "QT-CUSTOM-1", Customer: 8, Draft: sampleDraft()}, jane)
	assert.NoError(t, err, "reference numbers are unique per kind")
}

func TestCreateRejectsInvalidDraftWithoutWrites(t *testing.T) {
	cases := map[string]struct {
		mutate func(*pricing.Draft)
		field  string
	}{
		"no items":         {func(d *pricing.Draft) { d.Items = nil }, "items"},
		"zero quantity":    {func(d *pricing.Draft) { d.Items[0].Quantity = decimal.Zero }, "items"},
		"zero adjustment":  {func(d *pricing.Draft) { d.Adjustments[0].Amount = decimal.Zero }, "adjustments"},
		"missing category": {func(d *pricing.Draft) { d.Adjustments[0].Category = "" }, "adjustments"},
		"expiry before":    {func(d *pricing.Draft) { d.ExpiryDate = d.IssueDate }, "expiry_date"},
		"unknown status":   {func(d *pricing.Draft) { d.Status = pricing.StatusPaid }, "status"},
		"pending category": {func(d *pricing.Draft) { d.Adjustments[0].Category = "new-1700000000000" }, "adjustments"},
		"unknown category": {func(d *pricing.Draft) { d.Adjustments[0].Category = "ghost" }, "adjustments"},
		"malformed date":   {func(d *pricing.Draft) { d.IssueDate = "05/10/2026" }, "issue_date"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, nil)
			draft := sampleDraft()
			tc.mutate(&draft)

			_, err := f.svc.Create(context.Background(), pricing.KindQuotation, CreateRequest{Customer: 7, Draft: draft}, jane)
			require.Error(t, err)
			assert.Contains(t, fieldErrors(t, err), tc.field)
			assert.Empty(t, f.repo.docs)
		})
	}
}

func TestCreateRejectsAppendicesOnInvoices(t *testing.T) {
	f := newFixture(t, nil)
	draft := sampleDraft()
	draft.Appendices = []string{"0b5d5f8e-4b7e-4a0e-9a51-1d4f3c1f2a10"}

	_, err := f.svc.Create(context.Background(), pricing.KindInvoice, CreateRequest{Customer: 7, Draft: draft}, jane)
	assert.Contains(t, fieldErrors(t, err), "appendices")
}

func TestCreateStoresNewCategoriesOnce(t *testing.T) {
	f := newFixture(t, nil)
	draft := sampleDraft()
	draft.Adjustments = []pricing.AdjustmentLine{
		{Category: "c0ffee00-0000-4000-8000-000000000001", Amount: dec("-2")},
		{Category: "c0ffee00-0000-4000-8000-000000000001", Amount: dec("4.50")},
	}
	req := CreateRequest{
		Customer:       7,
		NewAdjustments: []pricing.NewCategory{{ID: "c0ffee00-0000-4000-8000-000000000001", Name: "Handling"}},
		Draft:          draft,
	}

	doc, err := f.svc.Create(context.Background(), pricing.KindQuotation, req, jane)
	require.NoError(t, err)
	assert.Equal(t, "Handling", f.repo.categories["c0ffee00-0000-4000-8000-000000000001"])
	v := doc.Versions[0]
	assert.Equal(t, "Handling", v.Adjustments[1].CategoryName)
	assert.True(t, v.TotalPrice.Equal(dec("16.5")), v.TotalPrice.String())

	req.NewAdjustments[0].ID = "new-1"
	_, err = f.svc.Create(context.Background(), pricing.KindQuotation, req, jane)
	assert.Contains(t, fieldErrors(t, err), "new_adjustments")
}

func TestSaveNewAppendsMaxPlusOne(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	doc := f.createQuotation(t)

	draft := sampleDraft()
	v2, err := f.svc.SaveVersion(ctx, pricing.KindQuotation, doc.ID, pricing.SaveNew, SaveVersionRequest{Draft: draft}, jane)
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Version)

	draft.Status = pricing.StatusConfirmed
	v3, err := f.svc.SaveVersion(ctx, pricing.KindQuotation, doc.ID, pricing.SaveNew, SaveVersionRequest{Draft: draft}, jane)
	require.NoError(t, err)
	assert.Equal(t, 3, v3.Version)

	got, err := f.svc.Get(ctx, pricing.KindQuotation, doc.ID)
	require.NoError(t, err)
	require.Len(t, got.Versions, 3)
	assert.Equal(t, 3, got.Versions[0].Version, "newest first")
	require.Len(t, got.StatusChanges, 3)
	assert.Equal(t, "Jane Doe changed the status from Pending to Confirmed in version 3", got.StatusChanges[0].Describe())
	assert.Equal(t, "Jane Doe created version 2", got.StatusChanges[1].Describe())
	assert.Equal(t, 2, f.metrics.saves["quotation/new"])
}

func TestSaveCurrentKeepsVersionNumber(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	doc := f.createQuotation(t)
	one := 1

	draft := sampleDraft()
	draft.Items[1].Quantity = dec("3")
	saved, err := f.svc.SaveVersion(ctx, pricing.KindQuotation, doc.ID, pricing.SaveCurrent, SaveVersionRequest{Version: &one, Draft: draft}, jane)
	require.NoError(t, err)
	assert.Equal(t, 1, saved.Version)
	assert.True(t, saved.SubtotalPrice.Equal(dec("20")), saved.SubtotalPrice.String())

	got, err := f.svc.Get(ctx, pricing.KindQuotation, doc.ID)
	require.NoError(t, err)
	require.Len(t, got.Versions, 1)
	assert.Len(t, got.StatusChanges, 1, "unchanged status records nothing")

	draft.Status = pricing.StatusCancelled
	_, err = f.svc.SaveVersion(ctx, pricing.KindQuotation, doc.ID, pricing.SaveCurrent, SaveVersionRequest{Version: &one, Draft: draft}, jane)
	require.NoError(t, err)
	got, err = f.svc.Get(ctx, pricing.KindQuotation, doc.ID)
	require.NoError(t, err)
	require.Len(t, got.StatusChanges, 2)
	assert.Equal(t, pricing.StatusPending, got.StatusChanges[0].PreviousStatus)
	assert.Equal(t, pricing.StatusCancelled, got.StatusChanges[0].NewStatus)
	assert.Equal(t, 1, got.StatusChanges[0].Version)
}

func TestSaveCurrentRequiresExistingVersion(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	doc := f.createQuotation(t)

	_, err := f.svc.SaveVersion(ctx, pricing.KindQuotation, doc.ID, pricing.SaveCurrent, SaveVersionRequest{Draft: sampleDraft()}, jane)
	assert.Contains(t, fieldErrors(t, err), "version")

	nine := 9
	_, err = f.svc.SaveVersion(ctx, pricing.KindQuotation, doc.ID, pricing.SaveCurrent, SaveVersionRequest{Version: &nine, Draft: sampleDraft()}, jane)
	assert.Contains(t, fieldErrors(t, err), "version")

	_, err = f.svc.SaveVersion(ctx, pricing.KindInvoice, doc.ID, pricing.SaveNew, SaveVersionRequest{Draft: sampleDraft()}, jane)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPersistedTotalsRoundTrip(t *testing.T) {
	f := newFixture(t, nil)
	doc := f.createQuotation(t)

	v := doc.Versions[0]
	totals := v.Draft().Totals()
	assert.True(t, totals.Subtotal.Equal(v.SubtotalPrice))
	assert.True(t, totals.Total.Equal(v.TotalPrice))
}

func TestSaveVersionWaitsForDocumentLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	locker := cache.NewLocker(client, 10*time.Second, 0)
	f := newFixture(t, locker)
	ctx := context.Background()
	doc := f.createQuotation(t)

	err := locker.WithLock(ctx, shared.DocumentLockKey("quotation", doc.ID), func(ctx context.Context) error {
		_, err := f.svc.SaveVersion(ctx, pricing.KindQuotation, doc.ID, pricing.SaveNew, SaveVersionRequest{Draft: sampleDraft()}, jane)
		assert.ErrorIs(t, err, ErrBusy)
		return nil
	})
	require.NoError(t, err)

	saved, err := f.svc.SaveVersion(ctx, pricing.KindQuotation, doc.ID, pricing.SaveNew, SaveVersionRequest{Draft: sampleDraft()}, jane)
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Version)
}

func TestConvertToInvoice(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	quotation := f.createQuotation(t)
	term := int64(3)

	invoice, err := f.svc.ConvertToInvoice(ctx, quotation.ID, ConvertRequest{Version: 1, PaymentTerm: &term}, jane)
	require.NoError(t, err)
	assert.Equal(t, pricing.KindInvoice, invoice.Kind)
	assert.Equal(t, "INV-JD-2610-0002", invoice.ReferenceNumber)
	require.NotNil(t, invoice.Quotation)
	assert.Equal(t, quotation.ID, *invoice.Quotation)
	v := invoice.Versions[0]
	assert.Equal(t, pricing.StatusPending, v.Status)
	assert.Equal(t, &term, v.PaymentTerm)
	assert.True(t, v.TotalPrice.Equal(quotation.Versions[0].TotalPrice))
	assert.Len(t, v.Items, 2)

	got, err := f.svc.Get(ctx, pricing.KindQuotation, quotation.ID)
	require.NoError(t, err)
	require.Len(t, got.Invoices, 1)
	assert.Equal(t, invoice.ID, got.Invoices[0].ID)

	_, err = f.svc.ConvertToInvoice(ctx, quotation.ID, ConvertRequest{Version: 4}, jane)
	assert.Contains(t, fieldErrors(t, err), "version")
}

func TestExportXLSX(t *testing.T) {
	f := newFixture(t, nil)
	f.createQuotation(t)
	f.createQuotation(t)

	var buf bytes.Buffer
	require.NoError(t, f.svc.ExportXLSX(context.Background(), pricing.KindQuotation, ListRequest{}, &buf))

	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, exportHeadings, rows[0])
	assert.Equal(t, "QT-JD-2610-0001", rows[1][0])
	assert.Equal(t, "Pending", rows[1][3])
	assert.Equal(t, "15", rows[1][4])
}
