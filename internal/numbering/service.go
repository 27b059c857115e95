package numbering

import (
	"context"
	"strings"
	"time"

	"github.com/quotedesk/quotedesk/internal/platform/db"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) code(ctx context.Context, userID int64) (string, error) {
	code, err := s.repo.UserCode(ctx, userID)
	if err != nil {
		return "", err
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return fallbackCode(userID), nil
	}
	return code, nil
}

// Peek returns the number the next record of this type would get without consuming it.
func (s *Service) Peek(ctx context.Context, t DocumentType, userID int64) (string, error) {
	code, err := s.code(ctx, userID)
	if err != nil {
		return "", err
	}
	key := NewKey(t, userID, s.now())
	seq, err := s.repo.Current(ctx, key)
	if err != nil {
		return "", err
	}
	return Format(key, code, seq+1), nil
}

// Commit consumes the next number. q may be the transaction creating the record.
func (s *Service) Commit(ctx context.Context, q db.DBTX, t DocumentType, userID int64) (string, error) {
	code, err := s.code(ctx, userID)
	if err != nil {
		return "", err
	}
	key := NewKey(t, userID, s.now())
	seq, err := s.repo.Advance(ctx, q, key)
	if err != nil {
		return "", err
	}
	return Format(key, code, seq), nil
}
