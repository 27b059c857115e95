package adjustments

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quotedesk/quotedesk/internal/platform/db"
	"github.com/quotedesk/quotedesk/internal/pricing"
	"github.com/quotedesk/quotedesk/internal/shared"
)

var ErrNotFound = shared.ErrNotFound

type Repository interface {
	List(ctx context.Context, search string) ([]Category, error)
	Get(ctx context.Context, id string) (*Category, error)
	Create(ctx context.Context, c Category) (*Category, error)
	Ensure(ctx context.Context, cats []pricing.NewCategory) error
}

type repository struct {
	db db.DBTX
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

// NewTxRepository binds the repository to an open transaction.
func NewTxRepository(q db.DBTX) Repository {
	return &repository{db: q}
}

func (r *repository) List(ctx context.Context, search string) ([]Category, error) {
	query := db.Builder.Select("id", "name", "created_at").From("price_adjustments").OrderBy("name", "id")
	if search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	var out []Category
	if err := pgxscan.Select(ctx, r.db, &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list price adjustments: %w", err)
	}
	return out, nil
}

func (r *repository) Get(ctx context.Context, id string) (*Category, error) {
	var c Category
	err := pgxscan.Get(ctx, r.db, &c, `SELECT id, name, created_at FROM price_adjustments WHERE id = $1`, id)
	if pgxscan.NotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) Create(ctx context.Context, c Category) (*Category, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO price_adjustments (id, name) VALUES ($1, $2) RETURNING created_at`,
		c.ID, c.Name,
	).Scan(&c.CreatedAt)
	if db.IsUniqueViolation(err) {
		return nil, fmt.Errorf("price adjustment %s: %w", c.ID, shared.ErrDuplicate)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Ensure inserts categories that do not exist yet. Existing ids are left untouched.
func (r *repository) Ensure(ctx context.Context, cats []pricing.NewCategory) error {
	if len(cats) == 0 {
		return nil
	}
	query := db.Builder.Insert("price_adjustments").Columns("id", "name").Suffix("ON CONFLICT (id) DO NOTHING")
	for _, c := range cats {
		if c.ID == "" {
			return errors.New("price adjustment id required")
		}
		query = query.Values(c.ID, c.Name)
	}
	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("ensure price adjustments: %w", err)
	}
	return nil
}
