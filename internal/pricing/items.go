package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Field names a mutable attribute of a line item.
type Field string

const (
	FieldDetail    Field = "item_detail"
	FieldQuantity  Field = "quantity"
	FieldUnitPrice Field = "unit_price"
	FieldDiscount  Field = "discount"
)

// LineItem is one priced row of a document version.
type LineItem struct {
	Detail      string          `json:"item_detail"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Order       int             `json:"order"`
}

// LineTotal returns round2(quantity * unit_price - discount).
func LineTotal(item LineItem) decimal.Decimal {
	return Round2(item.Quantity.Mul(item.UnitPrice).Sub(item.Discount))
}

// Items is an ordered line-item ledger. Every mutation returns a new ledger and
// leaves the receiver untouched.
type Items []LineItem

func (items Items) clone() Items {
	out := make(Items, len(items))
	copy(out, items)
	return out
}

// Add appends an empty item at the end of the ledger.
func (items Items) Add() Items {
	out := items.clone()
	return append(out, LineItem{Order: len(items)})
}

// Remove drops the item at index and renumbers the remaining orders to 0..n-1.
func (items Items) Remove(index int) (Items, error) {
	if index < 0 || index >= len(items) {
		return items, fmt.Errorf("remove item %d: %w", index, ErrIndexOutOfRange)
	}
	out := make(Items, 0, len(items)-1)
	out = append(out, items[:index]...)
	out = append(out, items[index+1:]...)
	for i := range out {
		out[i].Order = i
	}
	return out, nil
}

// Update sets one field of the item at index. Numeric fields that do not parse
// leave the ledger unchanged.
func (items Items) Update(index int, field Field, raw string) (Items, error) {
	if index < 0 || index >= len(items) {
		return items, fmt.Errorf("update item %d: %w", index, ErrIndexOutOfRange)
	}
	out := items.clone()
	item := out[index]
	switch field {
	case FieldDetail:
		item.Detail = raw
		out[index] = item
		return out, nil
	case FieldQuantity, FieldUnitPrice, FieldDiscount:
	default:
		return items, fmt.Errorf("update item %d: %q: %w", index, field, ErrUnknownField)
	}

	value, err := ParseAmount(raw)
	if err != nil {
		return items, fmt.Errorf("update item %d %s: %w", index, field, err)
	}
	switch field {
	case FieldQuantity:
		item.Quantity = value
	case FieldUnitPrice:
		item.UnitPrice = value
	case FieldDiscount:
		item.Discount = value
	}
	item.TotalAmount = LineTotal(item)
	out[index] = item
	return out, nil
}

// Normalize recomputes every derived total and renumbers orders densely.
func (items Items) Normalize() Items {
	out := items.clone()
	for i := range out {
		out[i].Order = i
		out[i].TotalAmount = LineTotal(out[i])
	}
	return out
}

// Subtotal sums quantity * unit_price + discount over all items, unrounded.
//
// The discount is added here while LineTotal subtracts it. Persisted documents
// depend on this formula, so it must not be reconciled silently.
func (items Items) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Quantity.Mul(item.UnitPrice).Add(item.Discount))
	}
	return sum
}

// ValidateItems reports the first rule the ledger breaks.
func ValidateItems(items Items) error {
	if len(items) == 0 {
		return ErrNoItems
	}
	for _, item := range items {
		if !item.Quantity.IsPositive() {
			return ErrItemQuantity
		}
		if !item.UnitPrice.IsPositive() {
			return ErrItemUnitPrice
		}
	}
	return nil
}
