package users

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
	Get(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, req ListUsersRequest) ([]User, int, error)
	Create(ctx context.Context, u User) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	Delete(ctx context.Context, id int64) error
	Groups(ctx context.Context) ([]Group, error)
	TouchLogin(ctx context.Context, id int64) error
}

type repository struct {
	db db.DBTX
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

var userColumns = []string{
	"u.id", "u.username", "u.email", "u.first_name", "u.last_name", "u.group_id",
	"COALESCE(g.name, '') AS group_name", "u.is_active", "u.password_hash", "u.custom_code",
	"u.job_title", "u.default_quotation_signature", "u.last_login", "u.date_joined",
}

func selectUsers() sq.SelectBuilder {
	return db.Builder.Select(userColumns...).From("users u").LeftJoin("groups g ON g.id = u.group_id")
}

func (r *repository) one(ctx context.Context, where sq.Sqlizer) (*User, error) {
	sql, args, err := selectUsers().Where(where).ToSql()
	if err != nil {
		return nil, err
	}
	var u User
	if err := pgxscan.Get(ctx, r.db, &u, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*User, error) {
	return r.one(ctx, sq.Eq{"u.id": id})
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.one(ctx, sq.Expr("LOWER(u.email) = LOWER(?)", email))
}

var orderColumns = map[string]string{
	"id":          "u.id",
	"username":    "u.username",
	"email":       "u.email",
	"first_name":  "u.first_name",
	"date_joined": "u.date_joined",
}

func (r *repository) List(ctx context.Context, req ListUsersRequest) ([]User, int, error) {
	where := sq.And{}
	if req.IsActive != nil {
		where = append(where, sq.Eq{"u.is_active": *req.IsActive})
	}
	if req.Search != "" {
		pattern := "%" + req.Search + "%"
		where = append(where, sq.Or{
			sq.ILike{"u.username": pattern},
			sq.ILike{"u.email": pattern},
			sq.ILike{"u.first_name": pattern},
			sq.ILike{"u.last_name": pattern},
		})
	}
	countSQL, countArgs, err := db.Builder.Select("COUNT(*)").From("users u").Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	sql, args, err := selectUsers().Where(where).
		OrderBy(req.OrderBy(orderColumns, "u.id")...).
		Limit(uint64(req.PageSize)).Offset(req.Offset()).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var out []User
	if err := pgxscan.Select(ctx, r.db, &out, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return out, total, nil
}

func (r *repository) Create(ctx context.Context, u User) (int64, error) {
	sql, args, err := db.Builder.Insert("users").
		Columns("username", "email", "first_name", "last_name", "group_id", "is_active", "password_hash",
			"custom_code", "job_title", "default_quotation_signature").
		Values(u.Username, u.Email, u.FirstName, u.LastName, u.Group, u.IsActive, u.PasswordHash,
			u.CustomCode, u.JobTitle, u.DefaultQuotationSignature).
		Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, err
	}
	var id int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, translate(err)
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	sql, args, err := db.Builder.Update("users").SetMap(updates).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Groups(ctx context.Context) ([]Group, error) {
	var out []Group
	err := pgxscan.Select(ctx, r.db, &out, `SELECT id, name FROM groups ORDER BY name`)
	return out, err
}

func (r *repository) TouchLogin(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET last_login = NOW() WHERE id = $1`, id)
	return err
}

func translate(err error) error {
	switch {
	case db.IsUniqueViolation(err):
		return fmt.Errorf("a user with that username or email already exists: %w", shared.ErrDuplicate)
	case db.IsCode(err, db.CodeForeignKeyViolation):
		return fmt.Errorf("user is still referenced: %w", shared.ErrDuplicate)
	}
	return err
}
