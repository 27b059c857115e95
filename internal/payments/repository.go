package payments

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quotedesk/quotedesk/internal/documents"
	"github.com/quotedesk/quotedesk/internal/platform/db"
	"github.com/quotedesk/quotedesk/internal/shared"
)

var ErrNotFound = shared.ErrNotFound

type Repository interface {
	InvoiceVersion(ctx context.Context, versionID int64) (*InvoiceVersion, error)
	Get(ctx context.Context, id int64) (*Payment, error)
	List(ctx context.Context, req ListPaymentsRequest) ([]Payment, int, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	Delete(ctx context.Context, id int64) error
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository creates a payment inside the transaction that also consumes its number.
type TxRepository interface {
	Create(ctx context.Context, p Payment) (int64, error)
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

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &queries{db: tx})
	})
}

func (q *queries) DB() db.DBTX {
	return q.db
}

func (q *queries) InvoiceVersion(ctx context.Context, versionID int64) (*InvoiceVersion, error) {
	var v InvoiceVersion
	err := pgxscan.Get(ctx, q.db, &v, `SELECT v.id, v.document_id, d.kind, v.version, v.total_price
		FROM document_versions v JOIN documents d ON d.id = v.document_id WHERE v.id = $1`, versionID)
	if pgxscan.NotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

var paymentColumns = []string{
	"p.id", "p.invoice_id", "p.invoice_version_id", "d.reference_number AS invoice_reference_number",
	"c.display_name AS customer_display_name", "p.payment_number",
	"to_char(p.payment_date, 'YYYY-MM-DD') AS payment_date", "p.amount",
	"p.payment_method_id", "m.name AS payment_method_name", "p.deposit_to_id", "a.name AS deposit_to_name",
	"p.reference_number", "p.notes", "p.documents", "p.created_by", "p.created_at", "p.updated_at",
}

var orderColumns = map[string]string{
	"payment_number": "p.payment_number",
	"payment_date":   "p.payment_date",
	"amount":         "p.amount",
	"created_at":     "p.created_at",
}

func paymentsFrom(b sq.SelectBuilder) sq.SelectBuilder {
	return b.From("payments p").
		Join("documents d ON d.id = p.invoice_id").
		Join("customers c ON c.id = d.customer_id").
		Join("payment_methods m ON m.id = p.payment_method_id").
		Join("accounts a ON a.id = p.deposit_to_id")
}

func (q *queries) Get(ctx context.Context, id int64) (*Payment, error) {
	sql, args, err := paymentsFrom(db.Builder.Select(paymentColumns...)).Where(sq.Eq{"p.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	var p Payment
	if err := pgxscan.Get(ctx, q.db, &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	out := []Payment{p}
	if err := q.attachDocuments(ctx, out); err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (q *queries) List(ctx context.Context, req ListPaymentsRequest) ([]Payment, int, error) {
	where := sq.And{}
	if req.Invoice != nil {
		where = append(where, sq.Eq{"p.invoice_id": *req.Invoice})
	}
	if req.Search != "" {
		pattern := "%" + req.Search + "%"
		where = append(where, sq.Or{
			sq.ILike{"p.payment_number": pattern},
			sq.ILike{"p.reference_number": pattern},
			sq.ILike{"d.reference_number": pattern},
		})
	}

	countSQL, countArgs, err := paymentsFrom(db.Builder.Select("COUNT(*)")).Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := q.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}

	sql, args, err := paymentsFrom(db.Builder.Select(paymentColumns...)).Where(where).
		OrderBy(req.OrderBy(orderColumns, "p.payment_date DESC", "p.id DESC")...).
		Limit(uint64(req.PageSize)).Offset(req.Offset()).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var out []Payment
	if err := pgxscan.Select(ctx, q.db, &out, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}
	if err := q.attachDocuments(ctx, out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (q *queries) attachDocuments(ctx context.Context, payments []Payment) error {
	var ids []string
	for _, p := range payments {
		ids = append(ids, p.DocumentIDs...)
	}
	refs := make(map[string]documents.AttachmentRef)
	if len(ids) > 0 {
		var rows []documents.AttachmentRef
		if err := pgxscan.Select(ctx, q.db, &rows, `SELECT id::text AS id, original_filename, description
			FROM attachments WHERE id::text = ANY($1::text[])`, ids); err != nil {
			return fmt.Errorf("load payment documents: %w", err)
		}
		for _, r := range rows {
			refs[r.ID] = r
		}
	}
	for i := range payments {
		payments[i].Documents = make([]documents.AttachmentRef, 0, len(payments[i].DocumentIDs))
		for _, id := range payments[i].DocumentIDs {
			ref, ok := refs[id]
			if !ok {
				ref = documents.AttachmentRef{ID: id}
			}
			payments[i].Documents = append(payments[i].Documents, ref)
		}
	}
	return nil
}

func (q *queries) Create(ctx context.Context, p Payment) (int64, error) {
	date, err := time.Parse("2006-01-02", p.PaymentDate)
	if err != nil {
		return 0, fmt.Errorf("payment date %q: %w", p.PaymentDate, err)
	}
	sql, args, err := db.Builder.Insert("payments").
		Columns("invoice_id", "invoice_version_id", "payment_number", "payment_date", "amount",
			"payment_method_id", "deposit_to_id", "reference_number", "notes", "documents", "created_by").
		Values(p.Invoice, p.InvoiceVersion, p.PaymentNumber, date, p.Amount,
			p.PaymentMethod, p.DepositTo, p.ReferenceNumber, p.Notes, p.DocumentIDs, p.CreatedBy).
		Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, err
	}
	var id int64
	if err := q.db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, translate(err)
	}
	return id, nil
}

func (q *queries) Update(ctx context.Context, id int64, updates map[string]any) error {
	if raw, ok := updates["payment_date"].(string); ok {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return fmt.Errorf("payment date %q: %w", raw, err)
		}
		updates["payment_date"] = date
	}
	sql, args, err := db.Builder.Update("payments").SetMap(updates).
		Set("updated_at", sq.Expr("NOW()")).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	tag, err := q.db.Exec(ctx, sql, args...)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (q *queries) Delete(ctx context.Context, id int64) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func translate(err error) error {
	switch {
	case db.IsUniqueViolation(err):
		return ErrDuplicateNumber
	case db.IsCode(err, db.CodeForeignKeyViolation):
		return ErrUnknownReference
	}
	return err
}
