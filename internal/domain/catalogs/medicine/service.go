package medicine

import (
	"context"
	"fmt"
	"time"

	"pharmstock/internal/core/tx"
	"pharmstock/internal/domain"
	"pharmstock/pkg/numerator"
)

// Service provides business logic for the Medicine catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Medicine]
	repo      Repository
	numerator *numerator.Service
}

// NewService creates a new Medicine service.
func NewService(repo Repository, txManager tx.Manager, num *numerator.Service) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Medicine]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "medicine",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      num,
	}

	base.Hooks().On(domain.BeforeCreate, svc.prepareForCreate)

	return svc
}

// prepareForCreate generates the SKU when none is provided.
func (s *Service) prepareForCreate(ctx context.Context, m *Medicine) error {
	if m.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.CodeConfig("MED"),
			&numerator.Options{Strategy: numerator.StrategyCached}, time.Now())
		if err != nil {
			return fmt.Errorf("generate sku: %w", err)
		}
		m.Code = code
	}
	return nil
}
