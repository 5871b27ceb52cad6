package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/domain/allocation"
	"pharmstock/internal/domain/reconciliation"
	"pharmstock/internal/domain/stock"
	"pharmstock/internal/domain/transfer"
	"pharmstock/internal/infrastructure/http/v1/dto"
	"pharmstock/internal/infrastructure/observability"
)

// StockHandler handles HTTP requests for stock operations: intake,
// dispensing, transfers, reconciliation, and batch reads.
type StockHandler struct {
	*BaseHandler
	stockService *stock.Service
	allocService *allocation.Service
	transferSvc  *transfer.Service
	reconcileSvc *reconciliation.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(
	base *BaseHandler,
	stockService *stock.Service,
	allocService *allocation.Service,
	transferSvc *transfer.Service,
	reconcileSvc *reconciliation.Service,
) *StockHandler {
	return &StockHandler{
		BaseHandler:  base,
		stockService: stockService,
		allocService: allocService,
		transferSvc:  transferSvc,
		reconcileSvc: reconcileSvc,
	}
}

// parseID parses a required UUID field, reporting the field name on failure.
func (h *StockHandler) parseID(c *gin.Context, value, field string) (id.ID, bool) {
	parsed, err := id.Parse(value)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format").WithDetail("field", field))
		return id.Nil(), false
	}
	return parsed, true
}

// Receive handles POST /stock/receive
func (h *StockHandler) Receive(c *gin.Context) {
	ctx := c.Request.Context()
	start := time.Now()

	var req dto.ReceiveStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	medicineID, ok := h.parseID(c, req.MedicineID, "medicineId")
	if !ok {
		return
	}
	nodeID, ok := h.parseID(c, req.NodeID, "nodeId")
	if !ok {
		return
	}

	batch, err := h.stockService.Receive(ctx, stock.ReceiveInput{
		MedicineID:  medicineID,
		NodeID:      nodeID,
		BatchNumber: req.BatchNumber,
		ExpiryDate:  req.ExpiryDate,
		Quantity:    req.Quantity,
		UnitCost:    req.UnitCost,
		Reference:   req.Reference,
	})
	observability.ObserveOperation("receive", start, err)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromBatch(batch))
}

// ListBatches handles GET /stock/batches
func (h *StockHandler) ListBatches(c *gin.Context) {
	ctx := c.Request.Context()

	filter := stock.BatchFilter{
		OnlyAvailable: c.Query("onlyAvailable") == "true",
		Limit:         h.ParseIntQuery(c, "limit", 50),
		Offset:        h.ParseIntQuery(c, "offset", 0),
	}

	if mStr := c.Query("medicineId"); mStr != "" {
		medicineID, ok := h.parseID(c, mStr, "medicineId")
		if !ok {
			return
		}
		filter.MedicineID = &medicineID
	}
	if nStr := c.Query("nodeId"); nStr != "" {
		nodeID, ok := h.parseID(c, nStr, "nodeId")
		if !ok {
			return
		}
		filter.NodeID = &nodeID
	}
	if expStr := c.Query("expiringBefore"); expStr != "" {
		parsed, err := time.Parse(time.RFC3339, expStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid expiringBefore format, expected RFC3339"))
			return
		}
		filter.ExpiringBefore = &parsed
	}

	result, err := h.stockService.ListBatches(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]any, len(result.Items))
	for i, b := range result.Items {
		items[i] = dto.FromBatch(b)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// GetBatch handles GET /stock/batches/:id
func (h *StockHandler) GetBatch(c *gin.Context) {
	ctx := c.Request.Context()

	batchID, ok := h.parseID(c, c.Param("id"), "id")
	if !ok {
		return
	}

	batch, err := h.stockService.GetBatch(ctx, batchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromBatch(batch))
}

// VerifyBatch handles GET /stock/batches/:id/verify
func (h *StockHandler) VerifyBatch(c *gin.Context) {
	ctx := c.Request.Context()

	batchID, ok := h.parseID(c, c.Param("id"), "id")
	if !ok {
		return
	}

	res, err := h.stockService.VerifyBatch(ctx, batchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromVerification(res.BatchID, res.Remaining, res.LedgerSum, res.Consistent))
}

// Dispense handles POST /stock/dispense
func (h *StockHandler) Dispense(c *gin.Context) {
	ctx := c.Request.Context()
	start := time.Now()

	var req dto.DispenseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	medicineID, ok := h.parseID(c, req.MedicineID, "medicineId")
	if !ok {
		return
	}
	nodeID, ok := h.parseID(c, req.NodeID, "nodeId")
	if !ok {
		return
	}

	result, err := h.allocService.Dispense(ctx, allocation.DispenseInput{
		MedicineID: medicineID,
		NodeID:     nodeID,
		Quantity:   req.Quantity,
		Reference:  req.Reference,
		Strict:     req.Strict,
	})
	observability.ObserveOperation("dispense", start, err)
	if err != nil {
		h.Error(c, err)
		return
	}

	if !result.Plan.IsComplete() {
		observability.RecordShortfall(result.Plan.Shortfall.Int64())
	}

	c.JSON(http.StatusOK, dto.FromDispensePlan(result.Plan))
}

// Transfer handles POST /stock/transfer
func (h *StockHandler) Transfer(c *gin.Context) {
	ctx := c.Request.Context()
	start := time.Now()

	var req dto.TransferRequest
	if !h.BindJSON(c, &req) {
		return
	}

	batchID, ok := h.parseID(c, req.BatchID, "batchId")
	if !ok {
		return
	}
	toNodeID, ok := h.parseID(c, req.ToNodeID, "toNodeId")
	if !ok {
		return
	}

	result, err := h.transferSvc.Transfer(ctx, transfer.Input{
		BatchID:   batchID,
		ToNodeID:  toNodeID,
		Quantity:  req.Quantity,
		Reference: req.Reference,
	})
	observability.ObserveOperation("transfer", start, err)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromTransferResult(result))
}

// Reconcile handles POST /stock/reconcile
func (h *StockHandler) Reconcile(c *gin.Context) {
	ctx := c.Request.Context()
	start := time.Now()

	var req dto.ReconcileRequest
	if !h.BindJSON(c, &req) {
		return
	}

	medicineID, ok := h.parseID(c, req.MedicineID, "medicineId")
	if !ok {
		return
	}
	nodeID, ok := h.parseID(c, req.NodeID, "nodeId")
	if !ok {
		return
	}

	record, err := h.reconcileSvc.Reconcile(ctx, reconciliation.Input{
		MedicineID:       medicineID,
		NodeID:           nodeID,
		PhysicalQuantity: req.PhysicalQuantity,
		Note:             req.Note,
	})
	observability.ObserveOperation("reconcile", start, err)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromReconciliation(record))
}

// ListReconciliations handles GET /stock/reconciliations
func (h *StockHandler) ListReconciliations(c *gin.Context) {
	ctx := c.Request.Context()

	filter := stock.ReconciliationFilter{
		OnlyVariance: c.Query("onlyVariance") == "true",
		Limit:        h.ParseIntQuery(c, "limit", 50),
		Offset:       h.ParseIntQuery(c, "offset", 0),
	}

	if mStr := c.Query("medicineId"); mStr != "" {
		medicineID, ok := h.parseID(c, mStr, "medicineId")
		if !ok {
			return
		}
		filter.MedicineID = &medicineID
	}
	if nStr := c.Query("nodeId"); nStr != "" {
		nodeID, ok := h.parseID(c, nStr, "nodeId")
		if !ok {
			return
		}
		filter.NodeID = &nodeID
	}
	if fromStr := c.Query("from"); fromStr != "" {
		if parsed, err := time.Parse(time.RFC3339, fromStr); err == nil {
			filter.From = &parsed
		}
	}
	if toStr := c.Query("to"); toStr != "" {
		if parsed, err := time.Parse(time.RFC3339, toStr); err == nil {
			filter.To = &parsed
		}
	}

	result, err := h.reconcileSvc.History(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]any, len(result.Items))
	for i, r := range result.Items {
		items[i] = dto.FromReconciliation(r)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}
