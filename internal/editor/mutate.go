package editor

import (
	"fmt"

	"github.com/quotedesk/quotedesk/internal/pricing"
)

// AddItem appends an empty item row.
func (s *Session) AddItem() {
	s.items = s.items.Add()
}

// RemoveItem drops the item at index and renumbers the rest.
func (s *Session) RemoveItem(index int) error {
	items, err := s.items.Remove(index)
	if err != nil {
		return err
	}
	s.items = items
	return nil
}

// UpdateItem sets one item field. Non-numeric input for a numeric field
// leaves the ledger unchanged and returns pricing.ErrNotANumber.
func (s *Session) UpdateItem(index int, field pricing.Field, raw string) error {
	items, err := s.items.Update(index, field, raw)
	if err != nil {
		return err
	}
	s.items = items
	return nil
}

// AddAdjustment appends an empty adjustment row.
func (s *Session) AddAdjustment() {
	s.adjs = s.adjs.Add()
}

// RemoveAdjustment drops the adjustment at index.
func (s *Session) RemoveAdjustment(index int) error {
	adjs, err := s.adjs.Remove(index)
	if err != nil {
		return err
	}
	s.adjs = adjs
	return nil
}

// UpdateAdjustmentAmount sets the amount of one adjustment from user input.
func (s *Session) UpdateAdjustmentAmount(index int, raw string) error {
	adjs, err := s.adjs.UpdateAmount(index, raw)
	if err != nil {
		return err
	}
	s.adjs = adjs
	return nil
}

// SelectCategory points adjustment index at a confirmed or pending option id.
func (s *Session) SelectCategory(index int, optionID string) error {
	ref, ok := s.options.Lookup(optionID)
	if !ok {
		return fmt.Errorf("%q: %w", optionID, ErrUnknownCategory)
	}
	adjs, err := s.adjs.SelectCategory(index, ref)
	if err != nil {
		return err
	}
	s.adjs = adjs
	return nil
}

// CreateCategory adds a pending category to the option list. It is created
// on the server by the next successful submission that uses it.
func (s *Session) CreateCategory(name string) pricing.Pending {
	options, p := s.options.CreatePending(name, s.now())
	s.options = options
	return p
}
