package reports

import (
	"context"
)

// Repository defines report data access interface.
type Repository interface {
	GetStockValueReport(ctx context.Context, filter StockValueFilter) (*StockValueReport, error)
	GetNearExpiryReport(ctx context.Context, filter NearExpiryFilter) (*NearExpiryReport, error)
	GetDistributionReport(ctx context.Context, filter DistributionFilter) (*DistributionReport, error)
}
