// Package reports provides aggregate views over batches and the ledger.
package reports

import (
	"time"

	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
)

// --- Stock Value Report ---

// StockValueFilter defines filter for the stock value report.
type StockValueFilter struct {
	NodeIDs     []id.ID
	MedicineIDs []id.ID

	// ExcludeZero drops rows with no remaining stock
	ExcludeZero bool

	Limit  int
	Offset int
}

// StockValueItem is one (medicine, node) row valued at batch unit cost.
type StockValueItem struct {
	NodeID       id.ID          `json:"nodeId"`
	NodeName     string         `json:"nodeName"`
	MedicineID   id.ID          `json:"medicineId"`
	MedicineName string         `json:"medicineName"`
	MedicineSKU  string         `json:"medicineSku"`
	Quantity     types.Quantity `json:"quantity"`
	TotalValue   types.Money    `json:"totalValue"`
}

// StockValueReport is the full asset value report.
type StockValueReport struct {
	AsOfDate   time.Time        `json:"asOfDate"`
	Items      []StockValueItem `json:"items"`
	TotalItems int              `json:"totalItems"`

	TotalQuantity types.Quantity `json:"totalQuantity"`
	TotalValue    types.Money    `json:"totalValue"`
}

// --- Near-Expiry Report ---

// NearExpiryFilter defines filter for the near-expiry report.
type NearExpiryFilter struct {
	// Horizon is how far ahead to look for expiring batches
	Horizon time.Duration

	NodeIDs     []id.ID
	MedicineIDs []id.ID

	Limit  int
	Offset int
}

// NearExpiryItem is one batch expiring within the horizon.
type NearExpiryItem struct {
	BatchID      id.ID          `json:"batchId"`
	BatchNumber  string         `json:"batchNumber"`
	NodeID       id.ID          `json:"nodeId"`
	NodeName     string         `json:"nodeName"`
	MedicineID   id.ID          `json:"medicineId"`
	MedicineName string         `json:"medicineName"`
	ExpiryDate   time.Time      `json:"expiryDate"`
	DaysLeft     int            `json:"daysLeft"`
	Quantity     types.Quantity `json:"quantity"`
	Value        types.Money    `json:"value"`
}

// NearExpiryReport lists stock at risk of expiring unused.
type NearExpiryReport struct {
	Cutoff     time.Time        `json:"cutoff"`
	Items      []NearExpiryItem `json:"items"`
	TotalItems int              `json:"totalItems"`

	TotalQuantity types.Quantity `json:"totalQuantity"`
	TotalValue    types.Money    `json:"totalValue"`
}

// --- Distribution Report ---

// DistributionFilter defines filter for the per-node distribution report.
type DistributionFilter struct {
	MedicineIDs []id.ID

	// Region limits the report to nodes in one region
	Region string
}

// DistributionItem aggregates stock for one node.
type DistributionItem struct {
	NodeID        id.ID          `json:"nodeId"`
	NodeName      string         `json:"nodeName"`
	NodeType      string         `json:"nodeType"`
	Region        string         `json:"region,omitempty"`
	MedicineCount int            `json:"medicineCount"`
	BatchCount    int            `json:"batchCount"`
	TotalQuantity types.Quantity `json:"totalQuantity"`
	TotalValue    types.Money    `json:"totalValue"`
}

// DistributionReport shows how stock spreads across the node network.
type DistributionReport struct {
	AsOfDate time.Time          `json:"asOfDate"`
	Items    []DistributionItem `json:"items"`

	TotalQuantity types.Quantity `json:"totalQuantity"`
	TotalValue    types.Money    `json:"totalValue"`
}
