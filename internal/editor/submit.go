package editor

import (
	"context"
	"fmt"

	"github.com/quotedesk/quotedesk/internal/documents"
	"github.com/quotedesk/quotedesk/internal/pricing"
)

// validate runs the local rules. Nothing is sent when it fails.
func (s *Session) validate() error {
	return pricing.ValidateSubmission(s.kind, s.items, s.adjs, s.fields.IssueDate, s.fields.ExpiryDate, s.fields.Status)
}

// snapshot resolves pending categories with a fresh Resolver and builds the
// draft to submit.
func (s *Session) snapshot() (pricing.Draft, []pricing.NewCategory, error) {
	lines, created, err := pricing.NewResolverWithIDs(s.newID).Resolve(s.adjs)
	if err != nil {
		return pricing.Draft{}, nil, err
	}
	draft := pricing.Draft{
		IssueDate:       s.fields.IssueDate,
		ExpiryDate:      s.fields.ExpiryDate,
		Status:          s.fields.Status,
		PaymentTerm:     s.fields.PaymentTerm,
		Items:           s.items.Normalize(),
		Adjustments:     lines,
		CustomerNotes:   s.fields.CustomerNotes,
		TermsConditions: s.fields.TermsConditions,
		Attachments:     nonNil(s.fields.Attachments),
		Appendices:      nonNil(s.fields.Appendices),
	}
	if s.kind != pricing.KindInvoice {
		draft.PaymentTerm = nil
	}
	return draft, created, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

// Submit saves the edited snapshot. SaveCurrent overwrites the active version;
// SaveNew appends one and makes it active. On any error before the save
// succeeds the session state is left untouched.
func (s *Session) Submit(ctx context.Context, mode pricing.SaveMode) (*documents.Version, error) {
	if s.doc == nil {
		return nil, ErrNoDocument
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	draft, created, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	body := documents.SaveVersionRequest{NewAdjustments: created, Draft: draft}
	if mode == pricing.SaveCurrent {
		version := s.version
		body.Version = &version
	}
	saved, err := s.backend.SaveVersion(ctx, s.kind, mode, s.doc.ID, body)
	if err != nil {
		return nil, err
	}

	target := s.version
	if mode == pricing.SaveNew {
		target = saved.Version
	}
	if err := s.reload(ctx, s.doc.ID, target); err != nil {
		return saved, err
	}
	return saved, nil
}

// Create stores the session as version 1 of a new document and switches the
// session to it.
func (s *Session) Create(ctx context.Context, header Header) (*documents.Document, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	draft, created, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	doc, err := s.backend.CreateDocument(ctx, s.kind, documents.CreateRequest{
		ReferenceNumber: header.ReferenceNumber,
		Customer:        header.Customer,
		Signature:       header.Signature,
		Quotation:       header.Quotation,
		NewAdjustments:  created,
		Draft:           draft,
	})
	if err != nil {
		return nil, err
	}
	if err := s.reload(ctx, doc.ID, 1); err != nil {
		return doc, err
	}
	return s.doc, nil
}

// Create opens a new session, loads draft into it and creates the document.
func Create(ctx context.Context, backend Backend, kind pricing.Kind, header Header, draft pricing.Draft) (*Session, error) {
	s, err := New(ctx, backend, kind)
	if err != nil {
		return nil, err
	}
	if draft.Status == "" {
		draft.Status = kind.DefaultStatus()
	}
	s.mirror(&documents.Version{
		IssueDate:       draft.IssueDate,
		ExpiryDate:      draft.ExpiryDate,
		Status:          draft.Status,
		PaymentTerm:     draft.PaymentTerm,
		Items:           draft.Items,
		Adjustments:     draft.Adjustments,
		CustomerNotes:   draft.CustomerNotes,
		TermsConditions: draft.TermsConditions,
		AttachmentIDs:   draft.Attachments,
		AppendixIDs:     draft.Appendices,
	})
	s.version = 0
	if _, err := s.Create(ctx, header); err != nil {
		return nil, err
	}
	return s, nil
}

// reload fetches the document and categories again and mirrors version
// number target. Resolved pending categories are dropped from the options.
func (s *Session) reload(ctx context.Context, id int64, target int) error {
	doc, cats, err := s.load(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReload, err)
	}
	s.doc = doc
	s.options = pricing.CategoryOptions{Confirmed: cats}
	v := doc.FindVersion(target)
	if v == nil {
		v = doc.Latest()
	}
	if v != nil {
		s.mirror(v)
	}
	return nil
}
