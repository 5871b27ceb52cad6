package reports

import (
	"context"
	"fmt"
	"time"
)

// DefaultNearExpiryHorizon is used when the caller does not specify one.
const DefaultNearExpiryHorizon = 90 * 24 * time.Hour

// Service provides report generation operations.
type Service struct {
	repo Repository
}

// NewService creates a new reports service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetStockValue generates the asset value report.
func (s *Service) GetStockValue(ctx context.Context, filter StockValueFilter) (*StockValueReport, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}

	report, err := s.repo.GetStockValueReport(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get stock value report: %w", err)
	}
	return report, nil
}

// GetNearExpiry generates the near-expiry report.
func (s *Service) GetNearExpiry(ctx context.Context, filter NearExpiryFilter) (*NearExpiryReport, error) {
	if filter.Horizon <= 0 {
		filter.Horizon = DefaultNearExpiryHorizon
	}
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}

	report, err := s.repo.GetNearExpiryReport(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get near expiry report: %w", err)
	}
	return report, nil
}

// GetDistribution generates the per-node stock distribution report.
func (s *Service) GetDistribution(ctx context.Context, filter DistributionFilter) (*DistributionReport, error) {
	report, err := s.repo.GetDistributionReport(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get distribution report: %w", err)
	}
	return report, nil
}
