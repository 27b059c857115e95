package attachments

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quotedesk/quotedesk/internal/platform/db"
	"github.com/quotedesk/quotedesk/internal/shared"
)

var ErrNotFound = shared.ErrNotFound

type Repository interface {
	Create(ctx context.Context, a Attachment) (*Attachment, error)
	Get(ctx context.Context, id string) (*Attachment, error)
	Orphans(ctx context.Context, before time.Time, limit int) ([]Attachment, error)
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db db.DBTX
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const attachmentColumns = `id, object_key, original_filename, content_type, size_bytes, description,
	document_type, reference_number, uploaded_by, created_at`

func (r *repository) Create(ctx context.Context, a Attachment) (*Attachment, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO attachments (id, object_key, original_filename, content_type,
		size_bytes, description, document_type, reference_number, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING created_at`,
		a.ID, a.ObjectKey, a.OriginalFilename, a.ContentType, a.SizeBytes, a.Description,
		a.DocumentType, a.ReferenceNumber, a.UploadedBy,
	).Scan(&a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert attachment: %w", err)
	}
	return &a, nil
}

func (r *repository) Get(ctx context.Context, id string) (*Attachment, error) {
	var a Attachment
	err := pgxscan.Get(ctx, r.db, &a, `SELECT `+attachmentColumns+` FROM attachments WHERE id = $1`, id)
	if pgxscan.NotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Orphans lists uploads created before the cutoff that no version, payment,
// signature or company profile refers to.
func (r *repository) Orphans(ctx context.Context, before time.Time, limit int) ([]Attachment, error) {
	var out []Attachment
	err := pgxscan.Select(ctx, r.db, &out, `SELECT `+attachmentColumns+` FROM attachments a
		WHERE a.created_at < $1
		  AND NOT EXISTS (SELECT 1 FROM document_versions v
		                  WHERE a.id::text = ANY(v.attachments) OR a.id::text = ANY(v.appendices))
		  AND NOT EXISTS (SELECT 1 FROM payments p WHERE a.id::text = ANY(p.documents))
		  AND NOT EXISTS (SELECT 1 FROM user_signatures s WHERE s.attachment_id = a.id)
		  AND NOT EXISTS (SELECT 1 FROM company_profile c WHERE c.logo_attachment_id = a.id)
		ORDER BY a.created_at
		LIMIT $2`, before, limit)
	if err != nil {
		return nil, fmt.Errorf("list orphan attachments: %w", err)
	}
	return out, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM attachments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
