// Package numbering suggests reference numbers for quotations, invoices and
// payment receipts. Suggestions are advisory; the number stored on a record
// is whatever the client submits.
package numbering

import (
	"fmt"
	"strings"
	"time"

	"github.com/quotedesk/quotedesk/internal/platform/httpx"
)

type DocumentType string

const (
	DocumentQuotation DocumentType = "QUOTATION"
	DocumentInvoice   DocumentType = "INVOICE"
	DocumentReceipt   DocumentType = "RECEIPT"
)

var prefixes = map[DocumentType]string{
	DocumentQuotation: "QT",
	DocumentInvoice:   "INV",
	DocumentReceipt:   "RCPT",
}

func ParseDocumentType(s string) (DocumentType, error) {
	t := DocumentType(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := prefixes[t]; !ok {
		return "", httpx.Invalid("document_type", fmt.Sprintf("\"%s\" is not a valid choice.", s))
	}
	return t, nil
}

// Key identifies one numbering sequence. Sequences restart every month.
type Key struct {
	Type   DocumentType
	UserID int64
	Period string
}

func NewKey(t DocumentType, userID int64, at time.Time) Key {
	return Key{Type: t, UserID: userID, Period: at.Format("0601")}
}

// Format renders PREFIX-CODE-YYMM-NNNN, e.g. QT-JD-2610-0007.
func Format(key Key, code string, seq int) string {
	return fmt.Sprintf("%s-%s-%s-%04d", prefixes[key.Type], code, key.Period, seq)
}

// fallbackCode is used for users without a custom code.
func fallbackCode(userID int64) string {
	return fmt.Sprintf("U%d", userID)
}
