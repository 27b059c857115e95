package settings

import (
	"context"
	"fmt"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quotedesk/quotedesk/internal/platform/db"
	"github.com/quotedesk/quotedesk/internal/shared"
)

var ErrNotFound = shared.ErrNotFound

// Query narrows a list call. Filter keys are column names of the base table.
type Query struct {
	shared.ListParams
	Filter map[string]any
}

// Store is the persistence contract shared by the settings catalogues.
type Store[T any] interface {
	List(ctx context.Context, q Query) ([]T, int, error)
	Options(ctx context.Context, filter map[string]any) ([]DropdownOption, error)
	Get(ctx context.Context, id int64) (*T, error)
	Create(ctx context.Context, values map[string]any) (int64, error)
	Update(ctx context.Context, id int64, values map[string]any) error
	Delete(ctx context.Context, id int64) error
}

type CompanyRepository interface {
	GetCompany(ctx context.Context) (*CompanyProfile, error)
	SaveCompany(ctx context.Context, values map[string]any) error
}

type table struct {
	name       string
	from       string
	alias      string
	columns    []string
	optionName string
	search     []string
	order      map[string]string
}

func (t table) col(c string) string {
	if t.alias == "" {
		return c
	}
	return t.alias + "." + c
}

type pgStore[T any] struct {
	db db.DBTX
	t  table
}

func (s *pgStore[T]) where(filter map[string]any) sq.And {
	where := sq.And{}
	for k, v := range filter {
		where = append(where, sq.Eq{s.t.col(k): v})
	}
	return where
}

func (s *pgStore[T]) List(ctx context.Context, q Query) ([]T, int, error) {
	where := s.where(q.Filter)
	if q.Search != "" && len(s.t.search) > 0 {
		or := sq.Or{}
		for _, c := range s.t.search {
			or = append(or, sq.ILike{c: "%" + q.Search + "%"})
		}
		where = append(where, or)
	}

	countSQL, countArgs, err := db.Builder.Select("COUNT(*)").From(s.t.from).Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := s.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", s.t.name, err)
	}

	sql, args, err := db.Builder.Select(s.t.columns...).From(s.t.from).Where(where).
		OrderBy(q.OrderBy(s.t.order, s.t.col("id"))...).
		Limit(uint64(q.PageSize)).Offset(q.Offset()).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var out []T
	if err := pgxscan.Select(ctx, s.db, &out, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", s.t.name, err)
	}
	return out, total, nil
}

func (s *pgStore[T]) Options(ctx context.Context, filter map[string]any) ([]DropdownOption, error) {
	sql, args, err := db.Builder.Select(s.t.col("id")+" AS id", s.t.optionName+" AS name").
		From(s.t.from).Where(s.where(filter)).OrderBy(s.t.optionName).ToSql()
	if err != nil {
		return nil, err
	}
	var out []DropdownOption
	if err := pgxscan.Select(ctx, s.db, &out, sql, args...); err != nil {
		return nil, fmt.Errorf("%s options: %w", s.t.name, err)
	}
	return out, nil
}

func (s *pgStore[T]) Get(ctx context.Context, id int64) (*T, error) {
	sql, args, err := db.Builder.Select(s.t.columns...).From(s.t.from).Where(sq.Eq{s.t.col("id"): id}).ToSql()
	if err != nil {
		return nil, err
	}
	var out T
	if err := pgxscan.Get(ctx, s.db, &out, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (s *pgStore[T]) Create(ctx context.Context, values map[string]any) (int64, error) {
	sql, args, err := db.Builder.Insert(s.t.name).SetMap(values).Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, err
	}
	var id int64
	if err := s.db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, translate(s.t.name, err)
	}
	return id, nil
}

func (s *pgStore[T]) Update(ctx context.Context, id int64, values map[string]any) error {
	sql, args, err := db.Builder.Update(s.t.name).SetMap(values).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return translate(s.t.name, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *pgStore[T]) Delete(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM "+s.t.name+" WHERE id = $1", id)
	if err != nil {
		return translate(s.t.name, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func translate(name string, err error) error {
	switch {
	case db.IsUniqueViolation(err):
		return fmt.Errorf("%s already exists: %w", name, shared.ErrDuplicate)
	case db.IsCode(err, db.CodeForeignKeyViolation):
		return fmt.Errorf("%s is still referenced: %w", name, shared.ErrDuplicate)
	}
	return err
}

// Repositories bundles the postgres stores.
type Repositories struct {
	PaymentTerms   Store[PaymentTerm]
	PaymentMethods Store[PaymentMethod]
	AccountTypes   Store[AccountType]
	Accounts       Store[Account]
	Currencies     Store[Currency]
	Signatures     Store[UserSignature]
	Company        CompanyRepository
}

func NewRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		PaymentTerms: &pgStore[PaymentTerm]{db: pool, t: table{
			name: "payment_terms", from: "payment_terms",
			columns:    []string{"id", "term_name", "days_due"},
			optionName: "term_name",
			search:     []string{"term_name"},
			order:      map[string]string{"term_name": "term_name", "days_due": "days_due"},
		}},
		PaymentMethods: &pgStore[PaymentMethod]{db: pool, t: table{
			name: "payment_methods", from: "payment_methods",
			columns:    []string{"id", "name", "description"},
			optionName: "name",
			search:     []string{"name"},
			order:      map[string]string{"name": "name"},
		}},
		AccountTypes: &pgStore[AccountType]{db: pool, t: table{
			name: "account_types", from: "account_types",
			columns:    []string{"id", "name", "description", "is_bank_account"},
			optionName: "name",
			search:     []string{"name"},
			order:      map[string]string{"name": "name"},
		}},
		Accounts: &pgStore[Account]{db: pool, t: table{
			name: "accounts", alias: "a",
			from: "accounts a JOIN account_types t ON t.id = a.account_type_id",
			columns: []string{"a.id", "a.account_type_id", "t.name AS account_type_name", "a.name", "a.account_code",
				"a.description", "a.currency_id", "a.bank_name", "a.bank_code", "a.account_number"},
			optionName: "a.name",
			search:     []string{"a.name", "a.account_code", "a.bank_name"},
			order:      map[string]string{"name": "a.name", "account_code": "a.account_code"},
		}},
		Currencies: &pgStore[Currency]{db: pool, t: table{
			name: "currencies", from: "currencies",
			columns:    []string{"id", "code", "name", "symbol"},
			optionName: "name",
			search:     []string{"code", "name"},
			order:      map[string]string{"code": "code", "name": "name"},
		}},
		Signatures: &pgStore[UserSignature]{db: pool, t: table{
			name: "user_signatures", from: "user_signatures",
			columns:    []string{"id", "user_id", "signature_name", "attachment_id", "created_at"},
			optionName: "signature_name",
			search:     []string{"signature_name"},
			order:      map[string]string{"signature_name": "signature_name", "created_at": "created_at"},
		}},
		Company: &companyRepository{db: pool},
	}
}

type companyRepository struct {
	db db.DBTX
}

func (r *companyRepository) GetCompany(ctx context.Context) (*CompanyProfile, error) {
	var p CompanyProfile
	err := pgxscan.Get(ctx, r.db, &p, `SELECT organization_name, base_currency_id, location, address, phone,
		website_url, logo_attachment_id, date_format, time_zone, updated_at FROM company_profile WHERE id = 1`)
	if pgxscan.NotFound(err) {
		return &CompanyProfile{DateFormat: "YYYY-MM-DD", TimeZone: "UTC"}, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveCompany upserts the single company profile row.
func (r *companyRepository) SaveCompany(ctx context.Context, values map[string]any) error {
	cols := make([]string, 0, len(values))
	for k := range values {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	vals := []any{1}
	assignments := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		vals = append(vals, values[c])
		assignments = append(assignments, c+" = EXCLUDED."+c)
	}
	assignments = append(assignments, "updated_at = NOW()")
	sql, args, err := db.Builder.Insert("company_profile").
		Columns(append([]string{"id"}, cols...)...).Values(vals...).
		Suffix("ON CONFLICT (id) DO UPDATE SET " + strings.Join(assignments, ", ")).ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, sql, args...)
	return err
}
