package pricing

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Adjustment is a signed modifier applied after the item subtotal.
type Adjustment struct {
	Category CategoryRef
	Amount   decimal.Decimal
	Order    int
}

// AdjustmentLine is the persisted form of an adjustment. Category always holds
// a confirmed category id.
type AdjustmentLine struct {
	Category     string          `json:"price_adjustment"`
	CategoryName string          `json:"price_adjustment_name,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Order        int             `json:"order"`
}

// Adjustments is an ordered adjustment ledger with the same copy-on-write
// discipline as Items.
type Adjustments []Adjustment

// AdjustmentsFromLines mirrors persisted lines into a ledger.
func AdjustmentsFromLines(lines []AdjustmentLine) Adjustments {
	out := make(Adjustments, len(lines))
	for i, line := range lines {
		out[i] = Adjustment{Amount: line.Amount, Order: i}
		if line.Category != "" {
			out[i].Category = Confirmed{ID: line.Category}
		}
	}
	return out
}

func (adjs Adjustments) clone() Adjustments {
	out := make(Adjustments, len(adjs))
	copy(out, adjs)
	return out
}

// Add appends an entry with no category and a zero amount.
func (adjs Adjustments) Add() Adjustments {
	return append(adjs.clone(), Adjustment{Amount: decimal.Zero, Order: len(adjs)})
}

// Remove drops the entry at index and renumbers the remaining orders.
func (adjs Adjustments) Remove(index int) (Adjustments, error) {
	if index < 0 || index >= len(adjs) {
		return adjs, fmt.Errorf("remove adjustment %d: %w", index, ErrIndexOutOfRange)
	}
	out := make(Adjustments, 0, len(adjs)-1)
	out = append(out, adjs[:index]...)
	out = append(out, adjs[index+1:]...)
	for i := range out {
		out[i].Order = i
	}
	return out, nil
}

// UpdateAmount stores raw only when it parses as a number.
func (adjs Adjustments) UpdateAmount(index int, raw string) (Adjustments, error) {
	if index < 0 || index >= len(adjs) {
		return adjs, fmt.Errorf("update adjustment %d: %w", index, ErrIndexOutOfRange)
	}
	value, err := ParseAmount(raw)
	if err != nil {
		return adjs, fmt.Errorf("update adjustment %d amount: %w", index, err)
	}
	out := adjs.clone()
	out[index].Amount = value
	return out, nil
}

// SelectCategory stores ref on the entry at index.
func (adjs Adjustments) SelectCategory(index int, ref CategoryRef) (Adjustments, error) {
	if index < 0 || index >= len(adjs) {
		return adjs, fmt.Errorf("select adjustment %d: %w", index, ErrIndexOutOfRange)
	}
	out := adjs.clone()
	out[index].Category = ref
	return out, nil
}

// Sum adds up every adjustment amount.
func (adjs Adjustments) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, a := range adjs {
		sum = sum.Add(a.Amount)
	}
	return sum
}

// Validate rejects zero amounts first, then entries with no category.
func (adjs Adjustments) Validate() error {
	for _, a := range adjs {
		if a.Amount.IsZero() {
			return ErrAdjustmentAmount
		}
	}
	for _, a := range adjs {
		if a.Category == nil {
			return ErrAdjustmentCategory
		}
	}
	return nil
}

// ValidateAdjustmentLines applies the ledger rules to persisted lines.
func ValidateAdjustmentLines(lines []AdjustmentLine) error {
	for _, l := range lines {
		if l.Amount.IsZero() {
			return ErrAdjustmentAmount
		}
	}
	for _, l := range lines {
		if strings.TrimSpace(l.Category) == "" {
			return ErrAdjustmentCategory
		}
	}
	return nil
}

// SumLines adds up the amounts of persisted lines.
func SumLines(lines []AdjustmentLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Amount)
	}
	return sum
}

// NewCategory is a category the backend must create before saving the lines
// that reference it.
type NewCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Resolver rewrites pending category references into real ids. Use one
// Resolver per submission attempt.
type Resolver struct {
	newID  func() string
	issued map[string]NewCategory
}

// NewResolver returns a Resolver that issues UUIDv4 ids.
func NewResolver() *Resolver {
	return NewResolverWithIDs(uuid.NewString)
}

// NewResolverWithIDs returns a Resolver using a custom id source.
func NewResolverWithIDs(newID func() string) *Resolver {
	return &Resolver{newID: newID, issued: make(map[string]NewCategory)}
}

// Resolve converts the ledger into persisted lines. A pending category gets
// one real id for the lifetime of the Resolver and is reported in the
// returned NewCategory list only by the call that issued it.
func (r *Resolver) Resolve(adjs Adjustments) ([]AdjustmentLine, []NewCategory, error) {
	lines := make([]AdjustmentLine, 0, len(adjs))
	var created []NewCategory
	for i, a := range adjs {
		line := AdjustmentLine{Amount: a.Amount, Order: i}
		switch ref := a.Category.(type) {
		case Confirmed:
			line.Category = ref.ID
		case Pending:
			nc, ok := r.issued[ref.LocalID]
			if !ok {
				name := strings.TrimSpace(ref.Name)
				if name == "" {
					name = DefaultCategoryName
				}
				nc = NewCategory{ID: r.newID(), Name: name}
				r.issued[ref.LocalID] = nc
				created = append(created, nc)
			}
			line.Category = nc.ID
			line.CategoryName = nc.Name
		default:
			return nil, nil, ErrAdjustmentCategory
		}
		lines = append(lines, line)
	}
	return lines, created, nil
}
