package customers

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quotedesk/quotedesk/internal/platform/db"
	"github.com/quotedesk/quotedesk/internal/shared"
)

var ErrNotFound = shared.ErrNotFound

type Repository interface {
	Get(ctx context.Context, id int64) (*Customer, error)
	List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error)
	Options(ctx context.Context) ([]Option, error)
	Create(ctx context.Context, customer Customer) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db db.DBTX
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

var customerColumns = []string{
	"id", "company_name", "display_name", "is_active", "billing_address", "shipping_address",
	"primary_contact", "remarks", "created_by", "created_at", "updated_at",
}

var orderColumns = map[string]string{
	"id":           "id",
	"company_name": "company_name",
	"display_name": "display_name",
	"created_at":   "created_at",
}

func (r *repository) Get(ctx context.Context, id int64) (*Customer, error) {
	sql, args, err := db.Builder.Select(customerColumns...).From("customers").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	var c Customer
	if err := pgxscan.Get(ctx, r.db, &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	where := sq.And{}
	if req.IsActive != nil {
		where = append(where, sq.Eq{"is_active": *req.IsActive})
	}
	if req.Search != "" {
		pattern := "%" + req.Search + "%"
		where = append(where, sq.Or{
			sq.ILike{"display_name": pattern},
			sq.ILike{"company_name": pattern},
			sq.Expr("primary_contact->>'email' ILIKE ?", pattern),
		})
	}

	countSQL, countArgs, err := db.Builder.Select("COUNT(*)").From("customers").Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	sql, args, err := db.Builder.Select(customerColumns...).From("customers").Where(where).
		OrderBy(req.OrderBy(orderColumns, "display_name", "id")...).
		Limit(uint64(req.PageSize)).Offset(req.Offset()).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var out []Customer
	if err := pgxscan.Select(ctx, r.db, &out, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	return out, total, nil
}

func (r *repository) Options(ctx context.Context) ([]Option, error) {
	var out []Option
	err := pgxscan.Select(ctx, r.db, &out,
		`SELECT id, display_name, company_name FROM customers WHERE is_active ORDER BY display_name, id`)
	return out, err
}

func (r *repository) Create(ctx context.Context, c Customer) (int64, error) {
	sql, args, err := db.Builder.Insert("customers").
		Columns("company_name", "display_name", "is_active", "billing_address", "shipping_address",
			"primary_contact", "remarks", "created_by").
		Values(c.CompanyName, c.DisplayName, c.IsActive, c.BillingAddress, c.ShippingAddress,
			c.PrimaryContact, c.Remarks, c.CreatedBy).
		Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, err
	}
	var id int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert customer: %w", err)
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	sql, args, err := db.Builder.Update("customers").SetMap(updates).
		Set("updated_at", sq.Expr("NOW()")).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		if db.IsCode(err, db.CodeForeignKeyViolation) {
			return fmt.Errorf("customer %d is referenced by documents: %w", id, shared.ErrDuplicate)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
