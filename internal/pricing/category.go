package pricing

import (
	"fmt"
	"strings"
	"time"
)

// PendingPrefix marks locally issued category ids that the backend has never seen.
const PendingPrefix = "new-"

// DefaultCategoryName is used for a pending category created without a name.
const DefaultCategoryName = "New Adjustment"

// Category is a named adjustment kind known to the backend.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CategoryRef is the category reference held by an adjustment entry. It is
// either Confirmed or Pending; a nil CategoryRef means no category was chosen.
type CategoryRef interface {
	categoryRef()
	// Key is the identifier shown in option lists.
	Key() string
}

// Confirmed references a category that already exists on the backend.
type Confirmed struct {
	ID string
}

func (Confirmed) categoryRef() {}

// Key implements CategoryRef.
func (c Confirmed) Key() string { return c.ID }

// Pending references a category created locally during editing.
type Pending struct {
	LocalID string
	Name    string
}

func (Pending) categoryRef() {}

// Key implements CategoryRef.
func (p Pending) Key() string { return p.LocalID }

// IsPendingID reports whether id was issued locally.
func IsPendingID(id string) bool {
	return strings.HasPrefix(id, PendingPrefix)
}

// CategoryOptions is the option list offered when picking an adjustment category.
type CategoryOptions struct {
	Confirmed []Category
	Pending   []Pending
}

// CreatePending adds a locally scoped category and returns it. Ids take the
// form new-<unix millis> and stay unique within the option list.
func (o CategoryOptions) CreatePending(name string, now time.Time) (CategoryOptions, Pending) {
	base := fmt.Sprintf("%s%d", PendingPrefix, now.UnixMilli())
	id := base
	for n := 2; o.has(id); n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	p := Pending{LocalID: id, Name: strings.TrimSpace(name)}

	out := CategoryOptions{
		Confirmed: o.Confirmed,
		Pending:   make([]Pending, 0, len(o.Pending)+1),
	}
	out.Pending = append(out.Pending, o.Pending...)
	out.Pending = append(out.Pending, p)
	return out, p
}

// Lookup resolves an option id into a category reference.
func (o CategoryOptions) Lookup(id string) (CategoryRef, bool) {
	for _, p := range o.Pending {
		if p.LocalID == id {
			return p, true
		}
	}
	for _, c := range o.Confirmed {
		if c.ID == id {
			return Confirmed{ID: c.ID}, true
		}
	}
	return nil, false
}

// Name returns the display name for a reference.
func (o CategoryOptions) Name(ref CategoryRef) string {
	switch r := ref.(type) {
	case Pending:
		return r.Name
	case Confirmed:
		for _, c := range o.Confirmed {
			if c.ID == r.ID {
				return c.Name
			}
		}
	}
	return ""
}

func (o CategoryOptions) has(id string) bool {
	_, ok := o.Lookup(id)
	return ok
}
