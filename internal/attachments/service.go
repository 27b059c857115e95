package attachments

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quotedesk/quotedesk/internal/platform/httpx"
)

// DocumentTypes accepted in the document_type form field.
var DocumentTypes = []string{"quotation", "appendix", "invoice", "payment", "signature", "logo"}

// ErrTooLarge is returned when an upload exceeds the configured limit.
var ErrTooLarge = errors.New("attachments: file too large")

const sniffLen = 512

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

type Service struct {
	repo     Repository
	store    BlobStore
	maxBytes int64
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, store BlobStore, maxBytes int64, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, store: store, maxBytes: maxBytes, logger: logger, now: time.Now}
}

// Upload sniffs the content type, rejects disallowed types, writes the blob
// and records its metadata.
func (s *Service) Upload(ctx context.Context, in UploadInput, body io.Reader) (*Attachment, error) {
	if in.DocumentType != "" && !contains(DocumentTypes, in.DocumentType) {
		return nil, httpx.Invalid("document_type", fmt.Sprintf("\"%s\" is not a valid choice.", in.DocumentType))
	}
	name := strings.TrimSpace(in.Filename)
	if name == "" {
		return nil, httpx.Invalid("file", "No file was submitted.")
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return nil, httpx.Invalid("file", "The submitted file is empty.")
	}
	contentType := DetectContentType(name, head)
	if !Allowed(contentType) {
		return nil, httpx.Invalid("file", fmt.Sprintf("File type %s is not allowed.", contentType))
	}

	counter := &countingReader{r: io.MultiReader(bytes.NewReader(head), body)}
	var reader io.Reader = counter
	if s.maxBytes > 0 {
		reader = &limitReader{r: counter, remaining: s.maxBytes}
	}

	now := s.now().UTC()
	id := uuid.NewString()
	key := path.Join("attachments", now.Format("2006"), now.Format("01"), id+"-"+sanitize(name))
	if err := s.store.Put(ctx, key, contentType, reader); err != nil {
		_ = s.store.Delete(ctx, key)
		if errors.Is(err, ErrTooLarge) {
			return nil, httpx.Invalid("file", fmt.Sprintf("File exceeds %d bytes.", s.maxBytes))
		}
		return nil, fmt.Errorf("store attachment: %w", err)
	}

	att, err := s.repo.Create(ctx, Attachment{
		ID:               id,
		ObjectKey:        key,
		OriginalFilename: name,
		ContentType:      contentType,
		SizeBytes:        counter.n,
		Description:      strings.TrimSpace(in.Description),
		DocumentType:     in.DocumentType,
		ReferenceNumber:  strings.TrimSpace(in.ReferenceNumber),
		UploadedBy:       in.UploadedBy,
	})
	if err != nil {
		_ = s.store.Delete(ctx, key)
		return nil, err
	}
	return att, nil
}

// Open returns the metadata and a reader over the stored bytes. Callers close the reader.
func (s *Service) Open(ctx context.Context, id string) (*Attachment, io.ReadCloser, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil, ErrNotFound
	}
	att, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Open(ctx, att.ObjectKey)
	if errors.Is(err, ErrBlobNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open attachment %s: %w", id, err)
	}
	return att, rc, nil
}

// Sweep removes unreferenced uploads older than maxAge and reports how many were removed.
func (s *Service) Sweep(ctx context.Context, maxAge time.Duration, batch int) (int, error) {
	if batch <= 0 {
		batch = 100
	}
	orphans, err := s.repo.Orphans(ctx, s.now().Add(-maxAge), batch)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, a := range orphans {
		if err := s.store.Delete(ctx, a.ObjectKey); err != nil {
			s.logger.Warn("delete orphan blob", slog.String("id", a.ID), slog.Any("error", err))
			continue
		}
		if err := s.repo.Delete(ctx, a.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return removed, fmt.Errorf("delete attachment %s: %w", a.ID, err)
		}
		removed++
	}
	return removed, nil
}

func sanitize(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeName.ReplaceAllString(name, "_")
	if len(name) > 100 {
		name = name[len(name)-100:]
	}
	return name
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

type limitReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, ErrTooLarge
	}
	return n, err
}
