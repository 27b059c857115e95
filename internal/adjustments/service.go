package adjustments

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/quotedesk/quotedesk/internal/platform/httpx"
	"github.com/quotedesk/quotedesk/internal/pricing"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, search string) ([]Category, error) {
	return s.repo.List(ctx, strings.TrimSpace(search))
}

func (s *Service) Create(ctx context.Context, req CreateCategoryRequest) (*Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, httpx.Invalid("name", "This field may not be blank.")
	}
	id := strings.TrimSpace(req.ID)
	if pricing.IsPendingID(id) {
		return nil, httpx.Invalid("id", "Temporary category ids cannot be stored.")
	}
	if id == "" {
		id = uuid.NewString()
	}
	return s.repo.Create(ctx, Category{ID: id, Name: name})
}

// Ensure creates the categories introduced alongside a version save.
func (s *Service) Ensure(ctx context.Context, cats []pricing.NewCategory) error {
	if err := CheckNew(cats); err != nil {
		return err
	}
	return s.repo.Ensure(ctx, cats)
}

// CheckNew rejects categories still carrying a local placeholder id or no id at all.
func CheckNew(cats []pricing.NewCategory) error {
	for _, c := range cats {
		if strings.TrimSpace(c.ID) == "" {
			return httpx.Invalid("new_adjustments", "Category id is required.")
		}
		if pricing.IsPendingID(c.ID) {
			return httpx.Invalid("new_adjustments", "Temporary category ids cannot be stored.")
		}
	}
	return nil
}
