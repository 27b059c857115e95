package documents

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quotedesk/quotedesk/internal/adjustments"
	"github.com/quotedesk/quotedesk/internal/platform/db"
	"github.com/quotedesk/quotedesk/internal/pricing"
	"github.com/quotedesk/quotedesk/internal/shared"
)

var ErrNotFound = shared.ErrNotFound

// Repository reads documents and opens write transactions.
type Repository interface {
	Get(ctx context.Context, kind pricing.Kind, id int64) (*Document, error)
	List(ctx context.Context, kind pricing.Kind, req ListRequest) ([]Summary, int, error)
	UpdateHeader(ctx context.Context, kind pricing.Kind, id int64, updates map[string]any) error
	Delete(ctx context.Context, kind pricing.Kind, id int64) error
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the writes of a version save. All calls share one transaction.
type TxRepository interface {
	Lock(ctx context.Context, kind pricing.Kind, id int64) (*Document, error)
	ReferenceExists(ctx context.Context, kind pricing.Kind, reference string) (bool, error)
	CreateDocument(ctx context.Context, d Document) (int64, error)
	InsertVersion(ctx context.Context, v Version) (int64, error)
	UpdateVersion(ctx context.Context, v Version) error
	InsertStatusChange(ctx context.Context, rec StatusChangeRecord) error
	EnsureCategories(ctx context.Context, cats []pricing.NewCategory) error
	MissingCategories(ctx context.Context, ids []string) ([]string, error)
	DB() db.DBTX
}

type queries struct {
	db db.DBTX
}

type repository struct {
	*queries
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{queries: &queries{db: pool}, pool: pool}
}

// WithTx runs fn inside a repeatable-read transaction.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &queries{db: tx})
	})
}

func (q *queries) DB() db.DBTX {
	return q.db
}

const headerQuery = `SELECT d.id, d.kind, d.reference_number, d.customer_id,
	c.display_name AS customer_display_name, d.signature_id, d.quotation_id,
	src.reference_number AS quotation_reference_number, d.created_by, d.created_at, d.updated_at
	FROM documents d
	JOIN customers c ON c.id = d.customer_id
	LEFT JOIN documents src ON src.id = d.quotation_id
	WHERE d.id = $1 AND d.kind = $2`

const versionQuery = `SELECT v.id, v.document_id, v.version,
	to_char(v.issue_date, 'YYYY-MM-DD') AS issue_date, to_char(v.expiry_date, 'YYYY-MM-DD') AS expiry_date,
	v.status, v.payment_term_id, pt.term_name AS payment_term_name, v.items, v.adjustments,
	v.subtotal_price, v.total_price, v.customer_notes, v.terms_conditions, v.attachments, v.appendices,
	v.created_by, v.created_at, v.updated_at
	FROM document_versions v
	LEFT JOIN payment_terms pt ON pt.id = v.payment_term_id
	WHERE v.document_id = $1
	ORDER BY v.version DESC`

func (q *queries) Get(ctx context.Context, kind pricing.Kind, id int64) (*Document, error) {
	return q.load(ctx, kind, id, false)
}

// Lock loads the aggregate and holds a row lock on the document until the transaction ends.
func (q *queries) Lock(ctx context.Context, kind pricing.Kind, id int64) (*Document, error) {
	return q.load(ctx, kind, id, true)
}

func (q *queries) load(ctx context.Context, kind pricing.Kind, id int64, lock bool) (*Document, error) {
	query := headerQuery
	if lock {
		query += " FOR UPDATE OF d"
	}
	var d Document
	if err := pgxscan.Get(ctx, q.db, &d, query, id, kind); err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s %d: %w", kind, id, err)
	}
	if err := pgxscan.Select(ctx, q.db, &d.Versions, versionQuery, id); err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	if err := pgxscan.Select(ctx, q.db, &d.StatusChanges, `SELECT previous_status, new_status, version,
		changed_by, change_date FROM status_changes WHERE document_id = $1 ORDER BY change_date DESC, id DESC`, id); err != nil {
		return nil, fmt.Errorf("list status changes: %w", err)
	}
	if kind == pricing.KindQuotation {
		if err := pgxscan.Select(ctx, q.db, &d.Invoices, `SELECT id, reference_number, created_at
			FROM documents WHERE quotation_id = $1 AND kind = 'invoice' ORDER BY created_at`, id); err != nil {
			return nil, fmt.Errorf("list converted invoices: %w", err)
		}
	}
	if err := q.decorate(ctx, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// decorate fills attachment metadata and adjustment category names.
func (q *queries) decorate(ctx context.Context, d *Document) error {
	var fileIDs, categoryIDs []string
	for _, v := range d.Versions {
		fileIDs = append(fileIDs, v.AttachmentIDs...)
		fileIDs = append(fileIDs, v.AppendixIDs...)
		for _, a := range v.Adjustments {
			categoryIDs = append(categoryIDs, a.Category)
		}
	}

	files := make(map[string]AttachmentRef)
	if len(fileIDs) > 0 {
		var refs []AttachmentRef
		if err := pgxscan.Select(ctx, q.db, &refs, `SELECT id::text AS id, original_filename, description
			FROM attachments WHERE id::text = ANY($1::text[])`, fileIDs); err != nil {
			return fmt.Errorf("load attachments: %w", err)
		}
		for _, r := range refs {
			files[r.ID] = r
		}
	}
	names := make(map[string]string)
	if len(categoryIDs) > 0 {
		var cats []adjustments.Category
		if err := pgxscan.Select(ctx, q.db, &cats, `SELECT id, name, created_at FROM price_adjustments
			WHERE id = ANY($1::text[])`, categoryIDs); err != nil {
			return fmt.Errorf("load price adjustments: %w", err)
		}
		for _, c := range cats {
			names[c.ID] = c.Name
		}
	}

	for i := range d.Versions {
		v := &d.Versions[i]
		v.Attachments = resolveRefs(v.AttachmentIDs, files)
		if d.Kind == pricing.KindQuotation {
			v.Appendices = resolveRefs(v.AppendixIDs, files)
		}
		for j := range v.Adjustments {
			v.Adjustments[j].CategoryName = names[v.Adjustments[j].Category]
		}
	}
	return nil
}

func resolveRefs(ids []string, files map[string]AttachmentRef) []AttachmentRef {
	out := make([]AttachmentRef, 0, len(ids))
	for _, id := range ids {
		if ref, ok := files[id]; ok {
			out = append(out, ref)
		} else {
			out = append(out, AttachmentRef{ID: id})
		}
	}
	return out
}

var orderColumns = map[string]string{
	"reference_number":      "d.reference_number",
	"latest_version":        "lv.version",
	"customer_name":         "c.display_name",
	"latest_version_status": "lv.status",
	"total_price":           "lv.total_price",
	"creation_date":         "d.created_at",
}

func listFrom(b sq.SelectBuilder, kind pricing.Kind, req ListRequest) sq.SelectBuilder {
	b = b.From("documents d").
		Join("customers c ON c.id = d.customer_id").
		JoinClause(`JOIN LATERAL (SELECT version, status, total_price FROM document_versions
			WHERE document_id = d.id ORDER BY version DESC LIMIT 1) lv ON true`).
		Where(sq.Eq{"d.kind": kind})
	if req.Customer != nil {
		b = b.Where(sq.Eq{"d.customer_id": *req.Customer})
	}
	if req.Status != "" {
		b = b.Where(sq.Eq{"lv.status": req.Status})
	}
	if req.Search != "" {
		pattern := "%" + req.Search + "%"
		b = b.Where(sq.Or{sq.ILike{"d.reference_number": pattern}, sq.ILike{"c.display_name": pattern}})
	}
	return b
}

// List returns one page of summaries. A zero PageSize returns every row.
func (q *queries) List(ctx context.Context, kind pricing.Kind, req ListRequest) ([]Summary, int, error) {
	countSQL, countArgs, err := listFrom(db.Builder.Select("COUNT(*)"), kind, req).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := q.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %ss: %w", kind, err)
	}

	query := listFrom(db.Builder.Select("d.id", "d.reference_number", "d.customer_id",
		"c.display_name AS customer_name", "lv.version AS latest_version",
		"lv.status AS latest_version_status", "lv.total_price", "d.created_at"), kind, req).
		OrderBy(req.OrderBy(orderColumns, "d.created_at DESC", "d.id DESC")...)
	if req.PageSize > 0 {
		query = query.Limit(uint64(req.PageSize)).Offset(req.Offset())
	}
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var out []Summary
	if err := pgxscan.Select(ctx, q.db, &out, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("list %ss: %w", kind, err)
	}
	return out, total, nil
}

func (q *queries) UpdateHeader(ctx context.Context, kind pricing.Kind, id int64, updates map[string]any) error {
	sql, args, err := db.Builder.Update("documents").SetMap(updates).
		Set("updated_at", sq.Expr("NOW()")).Where(sq.Eq{"id": id, "kind": kind}).ToSql()
	if err != nil {
		return err
	}
	tag, err := q.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (q *queries) Delete(ctx context.Context, kind pricing.Kind, id int64) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM documents WHERE id = $1 AND kind = $2`, id, kind)
	if err != nil {
		if db.IsCode(err, db.CodeForeignKeyViolation) {
			return ErrHasPayments
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (q *queries) ReferenceExists(ctx context.Context, kind pricing.Kind, reference string) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM documents WHERE kind = $1 AND reference_number = $2)`,
		kind, reference,
	).Scan(&exists)
	return exists, err
}

func (q *queries) CreateDocument(ctx context.Context, d Document) (int64, error) {
	sql, args, err := db.Builder.Insert("documents").
		Columns("kind", "reference_number", "customer_id", "signature_id", "quotation_id", "created_by").
		Values(d.Kind, d.ReferenceNumber, d.Customer, d.Signature, d.Quotation, d.CreatedBy).
		Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, err
	}
	var id int64
	if err := q.db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		if db.IsUniqueViolation(err) {
			return 0, ErrDuplicateReference
		}
		return 0, fmt.Errorf("insert document: %w", err)
	}
	return id, nil
}

func parseDates(v Version) (time.Time, time.Time, error) {
	issue, err := time.Parse(pricing.DateLayout, v.IssueDate)
	if err != nil {
		return time.Time{}, time.Time{}, pricing.ErrInvalidDates
	}
	expiry, err := time.Parse(pricing.DateLayout, v.ExpiryDate)
	if err != nil {
		return time.Time{}, time.Time{}, pricing.ErrInvalidDates
	}
	return issue, expiry, nil
}

func (q *queries) InsertVersion(ctx context.Context, v Version) (int64, error) {
	issue, expiry, err := parseDates(v)
	if err != nil {
		return 0, err
	}
	sql, args, err := db.Builder.Insert("document_versions").
		Columns("document_id", "version", "issue_date", "expiry_date", "status", "payment_term_id",
			"items", "adjustments", "subtotal_price", "total_price", "customer_notes", "terms_conditions",
			"attachments", "appendices", "created_by").
		Values(v.DocumentID, v.Version, issue, expiry, v.Status, v.PaymentTerm,
			v.Items, v.Adjustments, v.SubtotalPrice, v.TotalPrice, v.CustomerNotes, v.TermsConditions,
			v.AttachmentIDs, v.AppendixIDs, v.CreatedBy).
		Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, err
	}
	var id int64
	if err := q.db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		if db.IsUniqueViolation(err) {
			return 0, fmt.Errorf("version %d of document %d: %w", v.Version, v.DocumentID, shared.ErrDuplicate)
		}
		return 0, fmt.Errorf("insert version: %w", err)
	}
	return id, nil
}

func (q *queries) UpdateVersion(ctx context.Context, v Version) error {
	issue, expiry, err := parseDates(v)
	if err != nil {
		return err
	}
	sql, args, err := db.Builder.Update("document_versions").SetMap(map[string]any{
		"issue_date":       issue,
		"expiry_date":      expiry,
		"status":           v.Status,
		"payment_term_id":  v.PaymentTerm,
		"items":            v.Items,
		"adjustments":      v.Adjustments,
		"subtotal_price":   v.SubtotalPrice,
		"total_price":      v.TotalPrice,
		"customer_notes":   v.CustomerNotes,
		"terms_conditions": v.TermsConditions,
		"attachments":      v.AttachmentIDs,
		"appendices":       v.AppendixIDs,
		"updated_at":       sq.Expr("NOW()"),
	}).Where(sq.Eq{"document_id": v.DocumentID, "version": v.Version}).ToSql()
	if err != nil {
		return err
	}
	tag, err := q.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update version: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (q *queries) InsertStatusChange(ctx context.Context, rec StatusChangeRecord) error {
	c := rec.Change
	_, err := q.db.Exec(ctx, `INSERT INTO status_changes
		(document_id, version, previous_status, new_status, changed_by, changed_by_id, change_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.DocumentID, c.Version, c.PreviousStatus, c.NewStatus, c.ChangedBy, rec.ChangedByID, c.ChangeDate)
	if err != nil {
		return fmt.Errorf("insert status change: %w", err)
	}
	return nil
}

func (q *queries) EnsureCategories(ctx context.Context, cats []pricing.NewCategory) error {
	return adjustments.NewTxRepository(q.db).Ensure(ctx, cats)
}

// MissingCategories returns the ids that have no price adjustment row.
func (q *queries) MissingCategories(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var missing []string
	err := pgxscan.Select(ctx, q.db, &missing, `SELECT want FROM unnest($1::text[]) AS want
		WHERE NOT EXISTS (SELECT 1 FROM price_adjustments WHERE id = want)`, ids)
	if err != nil {
		return nil, fmt.Errorf("check price adjustments: %w", err)
	}
	return missing, nil
}
