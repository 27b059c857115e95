package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotedesk/quotedesk/internal/documents"
	"github.com/quotedesk/quotedesk/internal/pricing"
)

type fakeBackend struct {
	mu        sync.Mutex
	docs      map[int64]*documents.Document
	cats      []pricing.Category
	saves     []documents.SaveVersionRequest
	saveErr   error
	nextDocID int64
}

func newFakeBackend() *fakeBackend {
	doc := &documents.Document{
		ID:              1,
		Kind:            pricing.KindQuotation,
		ReferenceNumber: "QT-JD-2610-0001",
		Versions: []documents.Version{
			version(2, pricing.StatusConfirmed, "5"),
			version(1, pricing.StatusPending, "2"),
		},
	}
	return &fakeBackend{
		docs:      map[int64]*documents.Document{1: doc},
		cats:      []pricing.Category{{ID: "tax", Name: "Tax"}},
		nextDocID: 2,
	}
}

func version(n int, status pricing.Status, qty string) documents.Version {
	items := pricing.Items{{Detail: "Widget", Quantity: decimal.RequireFromString(qty), UnitPrice: decimal.NewFromInt(3)}}.Normalize()
	lines := []pricing.AdjustmentLine{{Category: "tax", Amount: decimal.NewFromInt(1)}}
	totals := pricing.ComputeTotals(items, pricing.SumLines(lines))
	return documents.Version{
		ID: int64(10 + n), DocumentID: 1, Version: n,
		IssueDate: "2026-10-01", ExpiryDate: "2026-10-31", Status: status,
		Items: items, Adjustments: lines,
		SubtotalPrice: totals.Subtotal, TotalPrice: totals.Total,
	}
}

func (f *fakeBackend) GetDocument(ctx context.Context, kind pricing.Kind, id int64) (*documents.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok || doc.Kind != kind {
		return nil, errors.New("not found")
	}
	cp := *doc
	cp.Versions = append([]documents.Version(nil), doc.Versions...)
	return &cp, nil
}

func (f *fakeBackend) ListCategories(ctx context.Context) ([]pricing.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pricing.Category(nil), f.cats...), nil
}

func (f *fakeBackend) store(d pricing.Draft, created []pricing.NewCategory) documents.Version {
	for _, nc := range created {
		f.cats = append(f.cats, pricing.Category{ID: nc.ID, Name: nc.Name})
	}
	totals := d.Totals()
	return documents.Version{
		IssueDate: d.IssueDate, ExpiryDate: d.ExpiryDate, Status: d.Status,
		Items: d.Items, Adjustments: d.Adjustments,
		SubtotalPrice: totals.Subtotal, TotalPrice: totals.Total,
	}
}

func (f *fakeBackend) SaveVersion(ctx context.Context, kind pricing.Kind, mode pricing.SaveMode, documentID int64, body documents.SaveVersionRequest) (*documents.Version, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, body)
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	doc := f.docs[documentID]
	v := f.store(body.Draft, body.NewAdjustments)
	v.DocumentID = documentID
	if mode == pricing.SaveNew {
		v.Version = pricing.NextVersion(doc.VersionNumbers())
		doc.Versions = append([]documents.Version{v}, doc.Versions...)
		return &v, nil
	}
	existing := doc.FindVersion(*body.Version)
	if existing == nil {
		return nil, errors.New("no such version")
	}
	v.Version = existing.Version
	*existing = v
	return &v, nil
}

func (f *fakeBackend) CreateDocument(ctx context.Context, kind pricing.Kind, body documents.CreateRequest) (*documents.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.store(body.Draft, body.NewAdjustments)
	v.Version = 1
	doc := &documents.Document{
		ID: f.nextDocID, Kind: kind, Customer: body.Customer,
		ReferenceNumber: fmt.Sprintf("INV-JD-2610-%04d", f.nextDocID),
		Versions:        []documents.Version{v},
	}
	f.docs[doc.ID] = doc
	f.nextDocID++
	return doc, nil
}

func openSession(t *testing.T, backend *fakeBackend) *Session {
	t.Helper()
	s, err := Open(context.Background(), backend, pricing.KindQuotation, 1)
	require.NoError(t, err)
	return s
}

func TestOpenMirrorsLatestVersion(t *testing.T) {
	s := openSession(t, newFakeBackend())

	assert.Equal(t, 2, s.ActiveVersion())
	assert.Equal(t, pricing.StatusConfirmed, s.Fields().Status)
	assert.Equal(t, "Tax", s.CategoryName(0))
	assert.Equal(t, "16", s.Totals().Total.String())

	require.NoError(t, s.SelectVersion(1))
	assert.Equal(t, 1, s.ActiveVersion())
	assert.Equal(t, "7", s.Totals().Total.String())
	assert.ErrorIs(t, s.SelectVersion(5), pricing.ErrIndexOutOfRange)
}

func TestMutationsRecomputeTotals(t *testing.T) {
	s := openSession(t, newFakeBackend())

	s.AddItem()
	require.NoError(t, s.UpdateItem(1, pricing.FieldQuantity, "2"))
	require.NoError(t, s.UpdateItem(1, pricing.FieldUnitPrice, "$1,000.50"))
	assert.Equal(t, "2016", s.Totals().Subtotal.String())

	err := s.UpdateItem(1, pricing.FieldQuantity, "two")
	assert.ErrorIs(t, err, pricing.ErrNotANumber)
	assert.Equal(t, "2", s.Items()[1].Quantity.String())

	require.NoError(t, s.RemoveItem(0))
	assert.Equal(t, 0, s.Items()[0].Order)
	assert.Equal(t, "2002", s.Totals().Total.String())
}

func TestRemoveOutOfRangeKeepsLedgers(t *testing.T) {
	s := openSession(t, newFakeBackend())
	items, adjs := len(s.Items()), len(s.Adjustments())

	assert.ErrorIs(t, s.RemoveItem(items), pricing.ErrIndexOutOfRange)
	assert.ErrorIs(t, s.RemoveAdjustment(-1), pricing.ErrIndexOutOfRange)
	assert.ErrorIs(t, s.UpdateAdjustmentAmount(adjs, "3"), pricing.ErrIndexOutOfRange)
	assert.Len(t, s.Items(), items)
	assert.Len(t, s.Adjustments(), adjs)

	s.AddAdjustment()
	assert.Len(t, s.Adjustments(), adjs+1)
	require.NoError(t, s.RemoveAdjustment(adjs))
	assert.Len(t, s.Adjustments(), adjs)
}

func TestSubmitRejectsInvalidStateLocally(t *testing.T) {
	backend := newFakeBackend()
	s := openSession(t, backend)

	s.AddAdjustment()
	_, err := s.Submit(context.Background(), pricing.SaveNew)
	assert.ErrorIs(t, err, pricing.ErrAdjustmentAmount)

	require.NoError(t, s.UpdateAdjustmentAmount(1, "-2"))
	_, err = s.Submit(context.Background(), pricing.SaveNew)
	assert.ErrorIs(t, err, pricing.ErrAdjustmentCategory)

	require.NoError(t, s.RemoveAdjustment(1))
	f := s.Fields()
	f.ExpiryDate = f.IssueDate
	s.SetFields(f)
	_, err = s.Submit(context.Background(), pricing.SaveCurrent)
	assert.ErrorIs(t, err, pricing.ErrExpiryNotAfter)

	assert.Empty(t, backend.saves)
}

func TestSubmitNewResolvesPendingCategories(t *testing.T) {
	backend := newFakeBackend()
	s := openSession(t, backend)
	s.newID = func() string { return "3f1c" }

	p := s.CreateCategory("Freight")
	s.AddAdjustment()
	require.NoError(t, s.UpdateAdjustmentAmount(1, "4"))
	require.NoError(t, s.SelectCategory(1, p.LocalID))
	assert.Equal(t, "Freight", s.CategoryName(1))
	assert.ErrorIs(t, s.SelectCategory(1, "nope"), ErrUnknownCategory)

	saved, err := s.Submit(context.Background(), pricing.SaveNew)
	require.NoError(t, err)
	assert.Equal(t, 3, saved.Version)
	assert.Equal(t, 3, s.ActiveVersion())

	require.Len(t, backend.saves, 1)
	body := backend.saves[0]
	assert.Equal(t, []pricing.NewCategory{{ID: "3f1c", Name: "Freight"}}, body.NewAdjustments)
	for _, line := range body.Adjustments {
		assert.False(t, pricing.IsPendingID(line.Category))
	}
	assert.Nil(t, body.Version)

	assert.Empty(t, s.Categories().Pending)
	assert.Equal(t, "Freight", s.CategoryName(1))
	assert.True(t, saved.TotalPrice.Equal(s.Totals().Total))
}

func TestSubmitCurrentKeepsVersionNumber(t *testing.T) {
	backend := newFakeBackend()
	s := openSession(t, backend)
	require.NoError(t, s.SelectVersion(1))

	f := s.Fields()
	f.Status = pricing.StatusCancelled
	s.SetFields(f)
	saved, err := s.Submit(context.Background(), pricing.SaveCurrent)
	require.NoError(t, err)

	assert.Equal(t, 1, saved.Version)
	assert.Equal(t, 1, s.ActiveVersion())
	assert.Len(t, s.Document().Versions, 2)
	require.NotNil(t, backend.saves[0].Version)
	assert.Equal(t, 1, *backend.saves[0].Version)
	assert.Equal(t, pricing.StatusCancelled, s.Fields().Status)
}

func TestBackendErrorLeavesStateUntouched(t *testing.T) {
	backend := newFakeBackend()
	backend.saveErr = errors.New("items: Please add at least one item.")
	s := openSession(t, backend)
	p := s.CreateCategory("Freight")
	s.AddAdjustment()
	require.NoError(t, s.UpdateAdjustmentAmount(1, "4"))
	require.NoError(t, s.SelectCategory(1, p.LocalID))
	before := s.Totals()

	_, err := s.Submit(context.Background(), pricing.SaveNew)
	require.Error(t, err)
	assert.Equal(t, 2, s.ActiveVersion())
	assert.Len(t, s.Categories().Pending, 1)
	assert.Equal(t, before, s.Totals())
	assert.Equal(t, p, s.Adjustments()[1].Category)

	backend.saveErr = nil
	_, err = s.Submit(context.Background(), pricing.SaveNew)
	require.NoError(t, err)
	first, second := backend.saves[0].NewAdjustments, backend.saves[1].NewAdjustments
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.NotEqual(t, first[0].ID, second[0].ID)
}

func TestCreateDocument(t *testing.T) {
	backend := newFakeBackend()
	draft := pricing.Draft{
		IssueDate:  "2026-10-19",
		ExpiryDate: "2026-11-18",
		Items: pricing.Items{{Detail: "Consulting", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(120)}},
	}

	s, err := Create(context.Background(), backend, pricing.KindInvoice, Header{Customer: 7}, draft)
	require.NoError(t, err)
	assert.Equal(t, 1, s.ActiveVersion())
	assert.Equal(t, "INV-JD-2610-0002", s.Document().ReferenceNumber)
	assert.Equal(t, pricing.StatusPending, s.Fields().Status)
	assert.Equal(t, "1200", s.Totals().Total.String())

	_, err = Create(context.Background(), backend, pricing.KindInvoice, Header{Customer: 7}, pricing.Draft{})
	assert.ErrorIs(t, err, pricing.ErrNoItems)
}

func TestSubmitBeforeCreate(t *testing.T) {
	s, err := New(context.Background(), newFakeBackend(), pricing.KindQuotation)
	require.NoError(t, err)
	_, err = s.Submit(context.Background(), pricing.SaveNew)
	assert.ErrorIs(t, err, ErrNoDocument)
}

func TestPendingIDsAreUnique(t *testing.T) {
	s, err := New(context.Background(), newFakeBackend(), pricing.KindQuotation)
	require.NoError(t, err)
	fixed := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	a := s.CreateCategory("A")
	b := s.CreateCategory("B")
	assert.NotEqual(t, a.LocalID, b.LocalID)
	assert.True(t, pricing.IsPendingID(a.LocalID))
}
