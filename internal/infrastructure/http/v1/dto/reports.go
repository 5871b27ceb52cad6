package dto

// --- Report Request DTOs ---

// StockValueReportRequest filters the asset value report.
type StockValueReportRequest struct {
	NodeIDs     []string `form:"nodeIds"`
	MedicineIDs []string `form:"medicineIds"`
	ExcludeZero *bool    `form:"excludeZero"`
	Limit       int      `form:"limit"`
	Offset      int      `form:"offset"`
}

// NearExpiryReportRequest filters the near-expiry report.
// Days is the look-ahead horizon; the service default applies when zero.
type NearExpiryReportRequest struct {
	Days        int      `form:"days"`
	NodeIDs     []string `form:"nodeIds"`
	MedicineIDs []string `form:"medicineIds"`
	Limit       int      `form:"limit"`
	Offset      int      `form:"offset"`
}

// DistributionReportRequest filters the per-node distribution report.
type DistributionReportRequest struct {
	MedicineIDs []string `form:"medicineIds"`
	Region      string   `form:"region"`
}
