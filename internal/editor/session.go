// Package editor is the headless editing session for a quotation or invoice.
// It mirrors one version into the pricing ledgers, recomputes totals after
// every change and submits the result as an overwrite or a new version.
package editor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/quotedesk/quotedesk/internal/documents"
	"github.com/quotedesk/quotedesk/internal/pricing"
)

var (
	// ErrNoDocument is returned when saving a version before the document exists.
	ErrNoDocument = errors.New("document has not been created yet")
	// ErrUnknownCategory is returned when selecting an option that is not offered.
	ErrUnknownCategory = errors.New("unknown adjustment category")
	// ErrReload wraps a failed reload after a successful save.
	ErrReload = errors.New("saved, but reloading the document failed")
)

// Backend is the part of the API the session needs. *client.Client implements it.
type Backend interface {
	GetDocument(ctx context.Context, kind pricing.Kind, id int64) (*documents.Document, error)
	ListCategories(ctx context.Context) ([]pricing.Category, error)
	SaveVersion(ctx context.Context, kind pricing.Kind, mode pricing.SaveMode, documentID int64, body documents.SaveVersionRequest) (*documents.Version, error)
	CreateDocument(ctx context.Context, kind pricing.Kind, body documents.CreateRequest) (*documents.Document, error)
}

// Fields are the non-ledger values of the version being edited.
type Fields struct {
	IssueDate       string
	ExpiryDate      string
	Status          pricing.Status
	PaymentTerm     *int64
	CustomerNotes   string
	TermsConditions string
	Attachments     []string
	Appendices      []string
}

// Header identifies a document created by Create.
type Header struct {
	ReferenceNumber string
	Customer        int64
	Signature       *int64
	Quotation       *int64
}

// Session holds the editing state of one document.
type Session struct {
	backend Backend
	kind    pricing.Kind

	doc     *documents.Document
	version int

	options pricing.CategoryOptions
	items   pricing.Items
	adjs    pricing.Adjustments
	fields  Fields

	now   func() time.Time
	newID func() string
}

func newSession(backend Backend, kind pricing.Kind) *Session {
	return &Session{
		backend: backend,
		kind:    kind,
		fields:  Fields{Status: kind.DefaultStatus()},
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Open loads a document and the category list concurrently and mirrors the
// latest version.
func Open(ctx context.Context, backend Backend, kind pricing.Kind, id int64) (*Session, error) {
	s := newSession(backend, kind)
	doc, cats, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.doc = doc
	s.options = pricing.CategoryOptions{Confirmed: cats}
	if latest := doc.Latest(); latest != nil {
		s.mirror(latest)
	}
	return s, nil
}

// New starts an empty session for a document that does not exist yet.
func New(ctx context.Context, backend Backend, kind pricing.Kind) (*Session, error) {
	s := newSession(backend, kind)
	cats, err := backend.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	s.options = pricing.CategoryOptions{Confirmed: cats}
	return s, nil
}

func (s *Session) load(ctx context.Context, id int64) (*documents.Document, []pricing.Category, error) {
	var (
		doc  *documents.Document
		cats []pricing.Category
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := s.backend.GetDocument(ctx, s.kind, id)
		if err != nil {
			return fmt.Errorf("load %s %d: %w", s.kind, id, err)
		}
		doc = d
		return nil
	})
	g.Go(func() error {
		c, err := s.backend.ListCategories(ctx)
		if err != nil {
			return fmt.Errorf("load categories: %w", err)
		}
		cats = c
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return doc, cats, nil
}

func (s *Session) mirror(v *documents.Version) {
	d := v.Draft()
	s.version = v.Version
	s.items = append(pricing.Items(nil), d.Items...).Normalize()
	s.adjs = pricing.AdjustmentsFromLines(d.Adjustments)
	s.fields = Fields{
		IssueDate:       d.IssueDate,
		ExpiryDate:      d.ExpiryDate,
		Status:          d.Status,
		PaymentTerm:     d.PaymentTerm,
		CustomerNotes:   d.CustomerNotes,
		TermsConditions: d.TermsConditions,
		Attachments:     d.Attachments,
		Appendices:      d.Appendices,
	}
}

// Document returns the loaded aggregate, or nil before Create.
func (s *Session) Document() *documents.Document { return s.doc }

// Kind returns the document kind being edited.
func (s *Session) Kind() pricing.Kind { return s.kind }

// ActiveVersion returns the version number mirrored into the ledgers, 0 when none.
func (s *Session) ActiveVersion() int { return s.version }

// SelectVersion mirrors the version at index of Document().Versions.
func (s *Session) SelectVersion(index int) error {
	if s.doc == nil {
		return ErrNoDocument
	}
	if index < 0 || index >= len(s.doc.Versions) {
		return fmt.Errorf("select version %d: %w", index, pricing.ErrIndexOutOfRange)
	}
	s.mirror(&s.doc.Versions[index])
	return nil
}

// Items returns the item ledger.
func (s *Session) Items() pricing.Items { return s.items }

// Adjustments returns the adjustment ledger.
func (s *Session) Adjustments() pricing.Adjustments { return s.adjs }

// Fields returns the dates, status and texts being edited.
func (s *Session) Fields() Fields { return s.fields }

// SetFields replaces the dates, status and texts being edited.
func (s *Session) SetFields(f Fields) { s.fields = f }

// Categories returns the confirmed and pending category options.
func (s *Session) Categories() pricing.CategoryOptions { return s.options }

// CategoryName returns the display name of the category on adjustment index.
func (s *Session) CategoryName(index int) string {
	if index < 0 || index >= len(s.adjs) {
		return ""
	}
	return s.options.Name(s.adjs[index].Category)
}

// Totals recomputes the subtotal and total of the current ledgers.
func (s *Session) Totals() pricing.Totals {
	return pricing.ComputeTotals(s.items, s.adjs.Sum())
}
