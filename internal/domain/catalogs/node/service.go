package node

import (
	"context"
	"fmt"
	"time"

	"pharmstock/internal/core/tx"
	"pharmstock/internal/domain"
	"pharmstock/pkg/numerator"
)

// Service provides business logic for the Node catalog.
type Service struct {
	*domain.CatalogService[*Node]
	repo      Repository
	numerator *numerator.Service
}

// NewService creates a new Node service.
func NewService(repo Repository, txManager tx.Manager, num *numerator.Service) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Node]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "node",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      num,
	}

	base.Hooks().On(domain.BeforeCreate, svc.prepareForCreate)

	return svc
}

// prepareForCreate generates the node code when none is provided.
func (s *Service) prepareForCreate(ctx context.Context, n *Node) error {
	if n.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.CodeConfig("NODE"),
			&numerator.Options{Strategy: numerator.StrategyCached}, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		n.Code = code
	}
	return nil
}
