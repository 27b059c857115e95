package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quotedesk/quotedesk/internal/numbering"
	"github.com/quotedesk/quotedesk/internal/platform/db"
	"github.com/quotedesk/quotedesk/internal/platform/httpx"
	"github.com/quotedesk/quotedesk/internal/pricing"
	"github.com/quotedesk/quotedesk/internal/shared"
)

// idempotencyModule scopes payment keys in the idempotency store.
const idempotencyModule = "payments"

var (
	ErrDuplicateNumber  = httpx.Invalid("payment_number", "payment with this payment number already exists.")
	ErrUnknownReference = httpx.Invalid(httpx.DetailKey, "Payment method or deposit account does not exist.")
	// ErrInProgress is returned when a request with the same idempotency key has not finished yet.
	ErrInProgress = errors.New("a request with this idempotency key is still being processed")
)

// Idempotency remembers processed request keys.
type Idempotency interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Complete(ctx context.Context, key, module string, resourceID int64) error
	Lookup(ctx context.Context, key, module string) (int64, error)
	Delete(ctx context.Context, key, module string) error
}

// Numberer consumes receipt numbers.
type Numberer interface {
	Commit(ctx context.Context, q db.DBTX, t numbering.DocumentType, userID int64) (string, error)
}

// Recorder receives payment counts.
type Recorder interface {
	PaymentRecorded()
}

type Service struct {
	repo    Repository
	numbers Numberer
	keys    Idempotency
	metrics Recorder
	logger  *slog.Logger
}

func NewService(repo Repository, numbers Numberer, keys Idempotency, metrics Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, numbers: numbers, keys: keys, metrics: metrics, logger: logger}
}

// CreateResult tells the handler whether the payment was created by this call.
type CreateResult struct {
	Payment  *Payment
	Replayed bool
}

// Create records a payment. A repeated idempotency key returns the payment
// created by the first request instead of recording a second one.
func (s *Service) Create(ctx context.Context, req CreatePaymentRequest, user shared.CurrentUser, key string) (*CreateResult, error) {
	key = strings.TrimSpace(key)
	if key != "" && s.keys != nil {
		err := s.keys.CheckAndInsert(ctx, key, idempotencyModule)
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			id, err := s.keys.Lookup(ctx, key, idempotencyModule)
			if err != nil {
				return nil, fmt.Errorf("lookup idempotency key: %w", err)
			}
			if id == 0 {
				return nil, ErrInProgress
			}
			p, err := s.repo.Get(ctx, id)
			if err != nil {
				return nil, err
			}
			return &CreateResult{Payment: p, Replayed: true}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("register idempotency key: %w", err)
		}
	}

	p, err := s.create(ctx, req, user)
	if key != "" && s.keys != nil {
		if err != nil {
			if derr := s.keys.Delete(ctx, key, idempotencyModule); derr != nil {
				s.logger.Warn("release idempotency key", slog.String("key", key), slog.Any("error", derr))
			}
		} else if cerr := s.keys.Complete(ctx, key, idempotencyModule, p.ID); cerr != nil {
			s.logger.Warn("complete idempotency key", slog.String("key", key), slog.Any("error", cerr))
		}
	}
	if err != nil {
		return nil, err
	}
	return &CreateResult{Payment: p}, nil
}

func (s *Service) create(ctx context.Context, req CreatePaymentRequest, user shared.CurrentUser) (*Payment, error) {
	version, err := s.repo.InvoiceVersion(ctx, req.InvoiceVersion)
	if errors.Is(err, ErrNotFound) {
		return nil, httpx.Invalid("invoice_version", "Invoice version does not exist.")
	}
	if err != nil {
		return nil, err
	}
	if version.Kind != string(pricing.KindInvoice) || version.DocumentID != req.Invoice {
		return nil, httpx.Invalid("invoice_version", "Version does not belong to this invoice.")
	}

	amount := version.TotalPrice
	if req.Amount != nil {
		amount = *req.Amount
	}
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	if _, err := time.Parse(pricing.DateLayout, req.PaymentDate); err != nil {
		return nil, httpx.Invalid("payment_date", "Date has wrong format. Use YYYY-MM-DD.")
	}

	p := Payment{
		Invoice:         req.Invoice,
		InvoiceVersion:  req.InvoiceVersion,
		PaymentNumber:   strings.TrimSpace(req.PaymentNumber),
		PaymentDate:     req.PaymentDate,
		Amount:          pricing.Round2(amount),
		PaymentMethod:   req.PaymentMethod,
		DepositTo:       req.DepositTo,
		ReferenceNumber: strings.TrimSpace(req.ReferenceNumber),
		Notes:           req.Notes,
		DocumentIDs:     req.Documents,
		CreatedBy:       user.ID,
	}
	if p.DocumentIDs == nil {
		p.DocumentIDs = []string{}
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if s.numbers != nil {
			next, err := s.numbers.Commit(ctx, tx.DB(), numbering.DocumentReceipt, user.ID)
			if err != nil {
				return fmt.Errorf("commit receipt number: %w", err)
			}
			if p.PaymentNumber == "" {
				p.PaymentNumber = next
			}
		}
		if p.PaymentNumber == "" {
			return httpx.Invalid("payment_number", "This field may not be blank.")
		}
		p.ID, err = tx.Create(ctx, p)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	if s.metrics != nil {
		s.metrics.PaymentRecorded()
	}
	return s.repo.Get(ctx, p.ID)
}

func checkAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return httpx.Invalid("amount", "Ensure this value is greater than 0.")
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Payment, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListPaymentsRequest) ([]Payment, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdatePaymentRequest) (*Payment, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	updates := make(map[string]any)
	if req.PaymentDate != nil {
		updates["payment_date"] = *req.PaymentDate
	}
	if req.Amount != nil {
		if err := checkAmount(*req.Amount); err != nil {
			return nil, err
		}
		updates["amount"] = pricing.Round2(*req.Amount)
	}
	if req.PaymentMethod != nil {
		updates["payment_method_id"] = *req.PaymentMethod
	}
	if req.DepositTo != nil {
		updates["deposit_to_id"] = *req.DepositTo
	}
	if req.ReferenceNumber != nil {
		updates["reference_number"] = strings.TrimSpace(*req.ReferenceNumber)
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.Documents != nil {
		docs := *req.Documents
		if docs == nil {
			docs = []string{}
		}
		updates["documents"] = docs
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, fmt.Errorf("update payment: %w", err)
		}
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
