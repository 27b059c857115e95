package documents

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/quotedesk/quotedesk/internal/numbering"
	"github.com/quotedesk/quotedesk/internal/platform/db"
	"github.com/quotedesk/quotedesk/internal/pricing"
)

// memoryRepo keeps documents in maps. WithTx snapshots the state and restores
// it when the callback fails.
type memoryRepo struct {
	mu         sync.Mutex
	docs       map[int64]*Document
	categories map[string]string
	nextDoc    int64
	nextVer    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		docs:       make(map[int64]*Document),
		categories: map[string]string{"tax": "Tax", "freight": "Freight"},
	}
}

type memoryState struct {
	Docs       map[int64]*Document
	Categories map[string]string
	NextDoc    int64
	NextVer    int64
}

func (m *memoryRepo) snapshot() []byte {
	raw, _ := json.Marshal(memoryState{Docs: m.docs, Categories: m.categories, NextDoc: m.nextDoc, NextVer: m.nextVer})
	return raw
}

func (m *memoryRepo) restore(raw []byte) {
	var st memoryState
	_ = json.Unmarshal(raw, &st)
	if st.Docs == nil {
		st.Docs = make(map[int64]*Document)
	}
	m.docs, m.categories, m.nextDoc, m.nextVer = st.Docs, st.Categories, st.NextDoc, st.NextVer
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := m.snapshot()
	if err := fn(ctx, m); err != nil {
		m.restore(saved)
		return err
	}
	return nil
}

func (m *memoryRepo) clone(d *Document) *Document {
	raw, _ := json.Marshal(d)
	var out Document
	_ = json.Unmarshal(raw, &out)
	for i := range out.Versions {
		v := &out.Versions[i]
		v.AttachmentIDs = refIDs(v.Attachments, nil)
		v.AppendixIDs = refIDs(v.Appendices, nil)
		for j := range v.Adjustments {
			v.Adjustments[j].CategoryName = m.categories[v.Adjustments[j].Category]
		}
	}
	sort.Slice(out.Versions, func(i, j int) bool { return out.Versions[i].Version > out.Versions[j].Version })
	if out.Kind == pricing.KindQuotation {
		for _, other := range m.docs {
			if other.Quotation != nil && *other.Quotation == d.ID {
				out.Invoices = append(out.Invoices, InvoiceLink{ID: other.ID, ReferenceNumber: other.ReferenceNumber})
			}
		}
	}
	return &out
}

func (m *memoryRepo) Get(ctx context.Context, kind pricing.Kind, id int64) (*Document, error) {
	d, ok := m.docs[id]
	if !ok || d.Kind != kind {
		return nil, ErrNotFound
	}
	return m.clone(d), nil
}

func (m *memoryRepo) Lock(ctx context.Context, kind pricing.Kind, id int64) (*Document, error) {
	return m.Get(ctx, kind, id)
}

func (m *memoryRepo) List(ctx context.Context, kind pricing.Kind, req ListRequest) ([]Summary, int, error) {
	var out []Summary
	for _, d := range m.docs {
		if d.Kind != kind {
			continue
		}
		latest := m.clone(d).Latest()
		if req.Status != "" && latest.Status != req.Status {
			continue
		}
		out = append(out, Summary{
			ID:                  d.ID,
			ReferenceNumber:     d.ReferenceNumber,
			Customer:            d.Customer,
			CustomerName:        d.CustomerDisplayName,
			LatestVersion:       latest.Version,
			LatestVersionStatus: latest.Status,
			TotalPrice:          latest.TotalPrice,
			CreationDate:        d.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *memoryRepo) UpdateHeader(ctx context.Context, kind pricing.Kind, id int64, updates map[string]any) error {
	d, ok := m.docs[id]
	if !ok || d.Kind != kind {
		return ErrNotFound
	}
	if v, ok := updates["customer_id"].(int64); ok {
		d.Customer = v
	}
	if v, ok := updates["signature_id"].(int64); ok {
		d.Signature = &v
	}
	return nil
}

func (m *memoryRepo) Delete(ctx context.Context, kind pricing.Kind, id int64) error {
	d, ok := m.docs[id]
	if !ok || d.Kind != kind {
		return ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *memoryRepo) ReferenceExists(ctx context.Context, kind pricing.Kind, reference string) (bool, error) {
	for _, d := range m.docs {
		if d.Kind == kind && d.ReferenceNumber == reference {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryRepo) CreateDocument(ctx context.Context, d Document) (int64, error) {
	m.nextDoc++
	d.ID = m.nextDoc
	d.CreatedAt = time.Now()
	d.CustomerDisplayName = "Customer"
	m.docs[d.ID] = &d
	return d.ID, nil
}

func (m *memoryRepo) InsertVersion(ctx context.Context, v Version) (int64, error) {
	d, ok := m.docs[v.DocumentID]
	if !ok {
		return 0, ErrNotFound
	}
	for _, existing := range d.Versions {
		if existing.Version == v.Version {
			return 0, ErrDuplicateReference
		}
	}
	m.nextVer++
	v.ID = m.nextVer
	v.Attachments = resolveRefs(v.AttachmentIDs, nil)
	v.Appendices = resolveRefs(v.AppendixIDs, nil)
	d.Versions = append(d.Versions, v)
	return v.ID, nil
}

func (m *memoryRepo) UpdateVersion(ctx context.Context, v Version) error {
	d, ok := m.docs[v.DocumentID]
	if !ok {
		return ErrNotFound
	}
	for i := range d.Versions {
		if d.Versions[i].Version == v.Version {
			v.Attachments = resolveRefs(v.AttachmentIDs, nil)
			v.Appendices = resolveRefs(v.AppendixIDs, nil)
			d.Versions[i] = v
			return nil
		}
	}
	return ErrNotFound
}

func (m *memoryRepo) InsertStatusChange(ctx context.Context, rec StatusChangeRecord) error {
	d, ok := m.docs[rec.DocumentID]
	if !ok {
		return ErrNotFound
	}
	d.StatusChanges = append([]pricing.StatusChange{rec.Change}, d.StatusChanges...)
	return nil
}

func (m *memoryRepo) EnsureCategories(ctx context.Context, cats []pricing.NewCategory) error {
	for _, c := range cats {
		if _, ok := m.categories[c.ID]; !ok {
			m.categories[c.ID] = c.Name
		}
	}
	return nil
}

func (m *memoryRepo) MissingCategories(ctx context.Context, ids []string) ([]string, error) {
	var missing []string
	for _, id := range ids {
		if _, ok := m.categories[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (m *memoryRepo) DB() db.DBTX { return nil }

type memoryNumbers struct {
	committed []numbering.DocumentType
}

func (n *memoryNumbers) Commit(ctx context.Context, q db.DBTX, t numbering.DocumentType, userID int64) (string, error) {
	n.committed = append(n.committed, t)
	key := numbering.NewKey(t, userID, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))
	return numbering.Format(key, "JD", len(n.committed)), nil
}

type countingRecorder struct {
	saves map[string]int
}

func (c *countingRecorder) VersionSaved(kind, mode string) {
	if c.saves == nil {
		c.saves = make(map[string]int)
	}
	c.saves[kind+"/"+mode]++
}
