package numbering

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quotedesk/quotedesk/internal/platform/db"
	"github.com/quotedesk/quotedesk/internal/shared"
)

type Repository interface {
	UserCode(ctx context.Context, userID int64) (string, error)
	Current(ctx context.Context, key Key) (int, error)
	// Advance bumps the sequence using q, which may be an open transaction.
	Advance(ctx context.Context, q db.DBTX, key Key) (int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) UserCode(ctx context.Context, userID int64) (string, error) {
	var code string
	err := r.pool.QueryRow(ctx, `SELECT custom_code FROM users WHERE id = $1`, userID).Scan(&code)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", shared.ErrNotFound
	}
	return code, err
}

func (r *repository) Current(ctx context.Context, key Key) (int, error) {
	var seq int
	err := r.pool.QueryRow(ctx,
		`SELECT seq FROM document_sequences WHERE doc_type = $1 AND user_id = $2 AND period = $3`,
		string(key.Type), key.UserID, key.Period,
	).Scan(&seq)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return seq, err
}

func (r *repository) Advance(ctx context.Context, q db.DBTX, key Key) (int, error) {
	if q == nil {
		q = r.pool
	}
	var seq int
	err := q.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, user_id, period, seq)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (doc_type, user_id, period) DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq`,
		string(key.Type), key.UserID, key.Period,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("advance sequence: %w", err)
	}
	return seq, nil
}
