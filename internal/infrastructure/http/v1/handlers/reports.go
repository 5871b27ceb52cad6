package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pharmstock/internal/core/id"
	"pharmstock/internal/domain/reports"
	"pharmstock/internal/infrastructure/http/v1/dto"
)

// ReportsHandler handles HTTP requests for reports.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// parseIDs keeps the well-formed IDs from a list of strings.
func parseIDs(values []string) []id.ID {
	var ids []id.ID
	for _, v := range values {
		if parsed, err := id.Parse(v); err == nil {
			ids = append(ids, parsed)
		}
	}
	return ids
}

// GetStockValue handles GET /reports/stock-value
func (h *ReportsHandler) GetStockValue(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.StockValueReportRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter := reports.StockValueFilter{
		NodeIDs:     parseIDs(req.NodeIDs),
		MedicineIDs: parseIDs(req.MedicineIDs),
		ExcludeZero: req.ExcludeZero == nil || *req.ExcludeZero,
		Limit:       req.Limit,
		Offset:      req.Offset,
	}

	report, err := h.service.GetStockValue(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetNearExpiry handles GET /reports/near-expiry
func (h *ReportsHandler) GetNearExpiry(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.NearExpiryReportRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter := reports.NearExpiryFilter{
		Horizon:     time.Duration(req.Days) * 24 * time.Hour,
		NodeIDs:     parseIDs(req.NodeIDs),
		MedicineIDs: parseIDs(req.MedicineIDs),
		Limit:       req.Limit,
		Offset:      req.Offset,
	}

	report, err := h.service.GetNearExpiry(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetDistribution handles GET /reports/distribution
func (h *ReportsHandler) GetDistribution(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.DistributionReportRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter := reports.DistributionFilter{
		MedicineIDs: parseIDs(req.MedicineIDs),
		Region:      req.Region,
	}

	report, err := h.service.GetDistribution(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
