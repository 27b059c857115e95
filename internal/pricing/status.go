package pricing

import (
	"fmt"
	"strings"
)

// Kind distinguishes the two document families sharing the pricing engine.
type Kind string

const (
	KindQuotation Kind = "quotation"
	KindInvoice   Kind = "invoice"
)

// ParseKind accepts a kind in any case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown document kind %q", s)
	}
	return k, nil
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindQuotation || k == KindInvoice
}

// Status is the lifecycle state recorded on a document version.
type Status string

const (
	StatusPending     Status = "pending"
	StatusConfirmed   Status = "confirmed"
	StatusCancelled   Status = "cancelled"
	StatusPaid        Status = "paid"
	StatusPartialPaid Status = "partial_paid"
)

var kindStatuses = map[Kind][]Status{
	KindQuotation: {StatusPending, StatusConfirmed, StatusCancelled},
	KindInvoice:   {StatusPending, StatusPaid, StatusPartialPaid, StatusCancelled},
}

// Statuses lists the statuses a document of this kind may carry.
func (k Kind) Statuses() []Status {
	out := make([]Status, len(kindStatuses[k]))
	copy(out, kindStatuses[k])
	return out
}

// DefaultStatus is the status given to a new document.
func (k Kind) DefaultStatus() Status {
	return StatusPending
}

// ValidateStatus checks membership only; any transition between valid
// statuses is allowed.
func ValidateStatus(kind Kind, status Status) error {
	for _, s := range kindStatuses[kind] {
		if s == status {
			return nil
		}
	}
	return ErrInvalidStatus
}

// Label renders a status for humans, e.g. "partial_paid" as "Partial Paid".
func (s Status) Label() string {
	parts := strings.Split(string(s), "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
