package customers

import (
	"context"
	"fmt"
	"strings"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req CreateCustomerRequest, createdBy int64) (*Customer, error) {
	customer := Customer{
		CompanyName:     strings.TrimSpace(req.CompanyName),
		DisplayName:     strings.TrimSpace(req.DisplayName),
		IsActive:        true,
		BillingAddress:  req.BillingAddress,
		ShippingAddress: req.ShippingAddress,
		PrimaryContact:  req.PrimaryContact,
		Remarks:         req.Remarks,
		CreatedBy:       createdBy,
	}
	if req.IsActive != nil {
		customer.IsActive = *req.IsActive
	}

	id, err := s.repo.Create(ctx, customer)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateCustomerRequest) (*Customer, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}

	updates := make(map[string]any)
	if req.CompanyName != nil {
		updates["company_name"] = strings.TrimSpace(*req.CompanyName)
	}
	if req.DisplayName != nil {
		updates["display_name"] = strings.TrimSpace(*req.DisplayName)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.BillingAddress != nil {
		updates["billing_address"] = *req.BillingAddress
	}
	if req.ShippingAddress != nil {
		updates["shipping_address"] = *req.ShippingAddress
	}
	if req.PrimaryContact != nil {
		updates["primary_contact"] = *req.PrimaryContact
	}
	if req.Remarks != nil {
		updates["remarks"] = *req.Remarks
	}
	if len(updates) == 0 {
		return existing, nil
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Customer, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Options(ctx context.Context) ([]Option, error) {
	return s.repo.Options(ctx)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
