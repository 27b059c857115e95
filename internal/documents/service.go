package documents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/quotedesk/quotedesk/internal/adjustments"
	"github.com/quotedesk/quotedesk/internal/numbering"
	"github.com/quotedesk/quotedesk/internal/platform/cache"
	"github.com/quotedesk/quotedesk/internal/platform/db"
	"github.com/quotedesk/quotedesk/internal/platform/httpx"
	"github.com/quotedesk/quotedesk/internal/pricing"
	"github.com/quotedesk/quotedesk/internal/shared"
)

var (
	// ErrDuplicateReference indicates a reference number already used by a document of the same kind.
	ErrDuplicateReference = fmt.Errorf("reference number already in use: %w", shared.ErrDuplicate)
	// ErrHasPayments blocks deleting an invoice with recorded payments.
	ErrHasPayments = fmt.Errorf("invoice has recorded payments: %w", shared.ErrDuplicate)
	// ErrBusy is returned when another save holds the document lock.
	ErrBusy = errors.New("document is being saved by another request")
)

// Numberer consumes reference numbers.
type Numberer interface {
	Commit(ctx context.Context, q db.DBTX, t numbering.DocumentType, userID int64) (string, error)
}

// Locker serialises saves of one document across server instances.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(context.Context) error) error
}

// Recorder receives save counts.
type Recorder interface {
	VersionSaved(kind, mode string)
}

type Service struct {
	repo    Repository
	numbers Numberer
	locker  Locker
	metrics Recorder
	audit   shared.Auditor
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(repo Repository, numbers Numberer, locker Locker, metrics Recorder, audit shared.Auditor, logger *slog.Logger) *Service {
	if audit == nil {
		audit = shared.NopAuditor{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		numbers: numbers,
		locker:  locker,
		metrics: metrics,
		audit:   audit,
		logger:  logger,
		now:     time.Now,
	}
}

func documentType(kind pricing.Kind) numbering.DocumentType {
	if kind == pricing.KindInvoice {
		return numbering.DocumentInvoice
	}
	return numbering.DocumentQuotation
}

// prepare applies defaults, runs the pricing rules and rejects anything the
// engine would not have produced.
func prepare(kind pricing.Kind, d pricing.Draft, newCats []pricing.NewCategory) (pricing.Draft, error) {
	if d.Status == "" {
		d.Status = kind.DefaultStatus()
	}
	if err := pricing.ValidateDraft(kind, d); err != nil {
		return d, err
	}
	for _, line := range d.Adjustments {
		if pricing.IsPendingID(line.Category) {
			return d, httpx.Invalid("adjustments", "Adjustment categories must be created before saving.")
		}
	}
	if err := adjustments.CheckNew(newCats); err != nil {
		return d, err
	}
	if kind == pricing.KindInvoice {
		if len(d.Appendices) > 0 {
			return d, httpx.Invalid("appendices", "Appendices are only available on quotations.")
		}
	} else {
		d.PaymentTerm = nil
	}
	d.Items = d.Items.Normalize()
	lines := make([]pricing.AdjustmentLine, len(d.Adjustments))
	for i, line := range d.Adjustments {
		lines[i] = pricing.AdjustmentLine{Category: line.Category, Amount: line.Amount, Order: i}
	}
	d.Adjustments = lines
	if d.Attachments == nil {
		d.Attachments = []string{}
	}
	if d.Appendices == nil {
		d.Appendices = []string{}
	}
	return d, nil
}

func versionFrom(d pricing.Draft, documentID int64, number int, createdBy int64) Version {
	totals := d.Totals()
	return Version{
		DocumentID:      documentID,
		Version:         number,
		IssueDate:       d.IssueDate,
		ExpiryDate:      d.ExpiryDate,
		Status:          d.Status,
		PaymentTerm:     d.PaymentTerm,
		Items:           d.Items,
		Adjustments:     d.Adjustments,
		SubtotalPrice:   totals.Subtotal,
		TotalPrice:      totals.Total,
		CustomerNotes:   d.CustomerNotes,
		TermsConditions: d.TermsConditions,
		AttachmentIDs:   d.Attachments,
		AppendixIDs:     d.Appendices,
		CreatedBy:       createdBy,
	}
}

// storeCategories creates the new categories and checks every line points at an existing one.
func storeCategories(ctx context.Context, tx TxRepository, d pricing.Draft, newCats []pricing.NewCategory) error {
	if err := tx.EnsureCategories(ctx, newCats); err != nil {
		return err
	}
	seen := make(map[string]bool)
	var ids []string
	for _, line := range d.Adjustments {
		if !seen[line.Category] {
			seen[line.Category] = true
			ids = append(ids, line.Category)
		}
	}
	missing, err := tx.MissingCategories(ctx, ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return httpx.Invalid("adjustments", "Unknown price adjustment: "+strings.Join(missing, ", ")+".")
	}
	return nil
}

// Create stores a new document with version 1.
func (s *Service) Create(ctx context.Context, kind pricing.Kind, req CreateRequest, user shared.CurrentUser) (*Document, error) {
	draft, err := prepare(kind, req.Draft, req.NewAdjustments)
	if err != nil {
		return nil, err
	}
	reference := strings.TrimSpace(req.ReferenceNumber)
	doc := Document{
		Kind:      kind,
		Customer:  req.Customer,
		Signature: req.Signature,
		CreatedBy: user.ID,
	}
	if kind == pricing.KindInvoice {
		doc.Quotation = req.Quotation
		doc.Signature = nil
	}

	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if reference != "" {
			exists, err := tx.ReferenceExists(ctx, kind, reference)
			if err != nil {
				return err
			}
			if exists {
				return httpx.Invalid("reference_number", fmt.Sprintf("%s with this reference number already exists.", kind))
			}
		}
		if s.numbers != nil {
			next, err := s.numbers.Commit(ctx, tx.DB(), documentType(kind), user.ID)
			if err != nil {
				return fmt.Errorf("commit number: %w", err)
			}
			if reference == "" {
				reference = next
			}
		}
		if reference == "" {
			return httpx.Invalid("reference_number", "This field may not be blank.")
		}
		if err := storeCategories(ctx, tx, draft, req.NewAdjustments); err != nil {
			return err
		}

		doc.ReferenceNumber = reference
		id, err = tx.CreateDocument(ctx, doc)
		if err != nil {
			return err
		}
		if _, err := tx.InsertVersion(ctx, versionFrom(draft, id, 1, user.ID)); err != nil {
			return err
		}
		return tx.InsertStatusChange(ctx, StatusChangeRecord{
			DocumentID:  id,
			ChangedByID: user.ID,
			Change:      pricing.InitialStatusChange(draft.Status, 1, user.Name, s.now()),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", kind, err)
	}

	s.countSave(kind, "create")
	s.record(ctx, user, "create", kind, id, map[string]any{"reference_number": reference})
	return s.repo.Get(ctx, kind, id)
}

// SaveVersion overwrites a version (SaveCurrent) or appends max+1 (SaveNew).
// Saves of one document are serialised by a distributed lock.
func (s *Service) SaveVersion(ctx context.Context, kind pricing.Kind, documentID int64, mode pricing.SaveMode, req SaveVersionRequest, user shared.CurrentUser) (*Version, error) {
	if documentID <= 0 {
		return nil, httpx.Invalid(string(kind), "This field is required.")
	}
	if mode == pricing.SaveCurrent && (req.Version == nil || *req.Version <= 0) {
		return nil, httpx.Invalid("version", "This field is required.")
	}
	draft, err := prepare(kind, req.Draft, req.NewAdjustments)
	if err != nil {
		return nil, err
	}

	var saved Version
	save := func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			doc, err := tx.Lock(ctx, kind, documentID)
			if err != nil {
				return err
			}
			if err := storeCategories(ctx, tx, draft, req.NewAdjustments); err != nil {
				return err
			}

			var previous pricing.Status
			switch mode {
			case pricing.SaveCurrent:
				existing := doc.FindVersion(*req.Version)
				if existing == nil {
					return httpx.Invalid("version", fmt.Sprintf("Version %d does not exist.", *req.Version))
				}
				previous = existing.Status
				saved = versionFrom(draft, documentID, existing.Version, existing.CreatedBy)
				saved.ID = existing.ID
				saved.CreatedAt = existing.CreatedAt
				if err := tx.UpdateVersion(ctx, saved); err != nil {
					return err
				}
			case pricing.SaveNew:
				if latest := doc.Latest(); latest != nil {
					previous = latest.Status
				} else {
					previous = draft.Status
				}
				saved = versionFrom(draft, documentID, pricing.NextVersion(doc.VersionNumbers()), user.ID)
				if saved.ID, err = tx.InsertVersion(ctx, saved); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown save mode %q", mode)
			}

			change, ok := pricing.StatusChangeFor(mode, previous, draft.Status, saved.Version, user.Name, s.now())
			if !ok {
				return nil
			}
			return tx.InsertStatusChange(ctx, StatusChangeRecord{DocumentID: documentID, ChangedByID: user.ID, Change: change})
		})
	}

	key := shared.DocumentLockKey(string(kind), documentID)
	if s.locker != nil {
		err = s.locker.WithLock(ctx, key, save)
	} else {
		err = save(ctx)
	}
	if errors.Is(err, cache.ErrLocked) {
		return nil, ErrBusy
	}
	if err != nil {
		return nil, fmt.Errorf("save %s %d: %w", kind, documentID, err)
	}

	s.countSave(kind, string(mode))
	s.record(ctx, user, "save_version", kind, documentID, map[string]any{"version": saved.Version, "mode": string(mode)})
	return &saved, nil
}

func (s *Service) Get(ctx context.Context, kind pricing.Kind, id int64) (*Document, error) {
	return s.repo.Get(ctx, kind, id)
}

func (s *Service) List(ctx context.Context, kind pricing.Kind, req ListRequest) ([]Summary, int, error) {
	if req.Status != "" {
		if err := pricing.ValidateStatus(kind, req.Status); err != nil {
			return nil, 0, err
		}
	}
	return s.repo.List(ctx, kind, req)
}

// UpdateHeader changes the customer or signature of a document.
func (s *Service) UpdateHeader(ctx context.Context, kind pricing.Kind, id int64, req UpdateHeaderRequest) (*Document, error) {
	updates := make(map[string]any)
	if req.Customer != nil {
		updates["customer_id"] = *req.Customer
	}
	if req.Signature != nil && kind == pricing.KindQuotation {
		updates["signature_id"] = *req.Signature
	}
	if len(updates) > 0 {
		if err := s.repo.UpdateHeader(ctx, kind, id, updates); err != nil {
			return nil, fmt.Errorf("update %s: %w", kind, err)
		}
	}
	return s.repo.Get(ctx, kind, id)
}

func (s *Service) Delete(ctx context.Context, kind pricing.Kind, id int64, user shared.CurrentUser) error {
	if err := s.repo.Delete(ctx, kind, id); err != nil {
		return err
	}
	s.record(ctx, user, "delete", kind, id, nil)
	return nil
}

// ConvertToInvoice creates an invoice whose first version copies the pricing
// of one quotation version.
func (s *Service) ConvertToInvoice(ctx context.Context, quotationID int64, req ConvertRequest, user shared.CurrentUser) (*Document, error) {
	quotation, err := s.repo.Get(ctx, pricing.KindQuotation, quotationID)
	if err != nil {
		return nil, err
	}
	source := quotation.FindVersion(req.Version)
	if source == nil {
		return nil, httpx.Invalid("version", fmt.Sprintf("Version %d does not exist.", req.Version))
	}

	draft := source.Draft()
	draft.Status = pricing.KindInvoice.DefaultStatus()
	draft.Appendices = nil
	draft.PaymentTerm = req.PaymentTerm
	if req.IssueDate != "" {
		draft.IssueDate = req.IssueDate
	}
	if req.ExpiryDate != "" {
		draft.ExpiryDate = req.ExpiryDate
	}
	return s.Create(ctx, pricing.KindInvoice, CreateRequest{
		ReferenceNumber: req.ReferenceNumber,
		Customer:        quotation.Customer,
		Quotation:       &quotation.ID,
		Draft:           draft,
	}, user)
}

func (s *Service) countSave(kind pricing.Kind, mode string) {
	if s.metrics != nil {
		s.metrics.VersionSaved(string(kind), mode)
	}
}

func (s *Service) record(ctx context.Context, user shared.CurrentUser, action string, kind pricing.Kind, id int64, meta map[string]any) {
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  user.ID,
		Action:   action,
		Entity:   string(kind),
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
		At:       s.now(),
	})
	if err != nil {
		s.logger.Warn("audit document", slog.String("action", action), slog.Any("error", err))
	}
}
