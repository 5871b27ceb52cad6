package dto

import (
	"time"

	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain/allocation"
	"pharmstock/internal/domain/stock"
	"pharmstock/internal/domain/transfer"
)

// --- Intake ---

// ReceiveStockRequest records a purchase delivery at a node.
type ReceiveStockRequest struct {
	MedicineID  string         `json:"medicineId" binding:"required"`
	NodeID      string         `json:"nodeId" binding:"required"`
	BatchNumber string         `json:"batchNumber" binding:"required"`
	ExpiryDate  time.Time      `json:"expiryDate" binding:"required"`
	Quantity    types.Quantity `json:"quantity" binding:"required"`
	UnitCost    types.Money    `json:"unitCost"`
	Reference   string         `json:"reference"`
}

// --- Dispensing ---

// DispenseRequest draws stock against a prescription in FEFO order.
type DispenseRequest struct {
	MedicineID string         `json:"medicineId" binding:"required"`
	NodeID     string         `json:"nodeId" binding:"required"`
	Quantity   types.Quantity `json:"quantity" binding:"required"`
	Reference  string         `json:"reference"`

	// Strict fails the request on any shortfall instead of dispensing
	// what is available
	Strict bool `json:"strict"`
}

// DispenseLineResponse is one batch draw.
type DispenseLineResponse struct {
	BatchID     string         `json:"batchId"`
	BatchNumber string         `json:"batchNumber"`
	Quantity    types.Quantity `json:"quantity"`
	UnitCost    types.Money    `json:"unitCost"`
}

// DispenseResponse reports what was dispensed and from where.
type DispenseResponse struct {
	Requested types.Quantity         `json:"requested"`
	Fulfilled types.Quantity         `json:"fulfilled"`
	Shortfall types.Quantity         `json:"shortfall"`
	Complete  bool                   `json:"complete"`
	Lines     []DispenseLineResponse `json:"lines"`
}

// FromDispensePlan creates response DTO from an allocation plan.
func FromDispensePlan(p *allocation.Plan) *DispenseResponse {
	lines := make([]DispenseLineResponse, len(p.Lines))
	for i, l := range p.Lines {
		lines[i] = DispenseLineResponse{
			BatchID:     l.BatchID.String(),
			BatchNumber: l.BatchNumber,
			Quantity:    l.Quantity,
			UnitCost:    l.UnitCost,
		}
	}
	return &DispenseResponse{
		Requested: p.Requested,
		Fulfilled: p.Fulfilled,
		Shortfall: p.Shortfall,
		Complete:  p.IsComplete(),
		Lines:     lines,
	}
}

// --- Transfer ---

// TransferRequest moves part of a batch to another node.
type TransferRequest struct {
	BatchID   string         `json:"batchId" binding:"required"`
	ToNodeID  string         `json:"toNodeId" binding:"required"`
	Quantity  types.Quantity `json:"quantity" binding:"required"`
	Reference string         `json:"reference"`
}

// TransferResponse reports the completed transfer.
type TransferResponse struct {
	TransferID  string         `json:"transferId"`
	SourceBatch *BatchResponse `json:"sourceBatch"`
	DestBatch   *BatchResponse `json:"destBatch"`
}

// FromTransferResult creates response DTO from a transfer result.
func FromTransferResult(r *transfer.Result) *TransferResponse {
	return &TransferResponse{
		TransferID:  r.TransferID.String(),
		SourceBatch: FromBatch(r.SourceBatch),
		DestBatch:   FromBatch(r.DestBatch),
	}
}

// --- Reconciliation ---

// ReconcileRequest submits a physical count for one medicine at one node.
type ReconcileRequest struct {
	MedicineID       string         `json:"medicineId" binding:"required"`
	NodeID           string         `json:"nodeId" binding:"required"`
	PhysicalQuantity types.Quantity `json:"physicalQuantity"`
	Note             string         `json:"note"`
}

// ReconciliationResponse is one reconciliation record.
type ReconciliationResponse struct {
	ID               string         `json:"id"`
	Number           string         `json:"number"`
	MedicineID       string         `json:"medicineId"`
	NodeID           string         `json:"nodeId"`
	LogicalQuantity  types.Quantity `json:"logicalQuantity"`
	PhysicalQuantity types.Quantity `json:"physicalQuantity"`
	Variance         types.Quantity `json:"variance"`
	AdjustmentLineID *string        `json:"adjustmentLineId,omitempty"`
	CountedBy        string         `json:"countedBy"`
	Note             string         `json:"note,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
}

// FromReconciliation creates response DTO from a reconciliation record.
func FromReconciliation(r *stock.ReconciliationRecord) *ReconciliationResponse {
	resp := &ReconciliationResponse{
		ID:               r.ID.String(),
		Number:           r.Number,
		MedicineID:       r.MedicineID.String(),
		NodeID:           r.NodeID.String(),
		LogicalQuantity:  r.LogicalQuantity,
		PhysicalQuantity: r.PhysicalQuantity,
		Variance:         r.Variance,
		CountedBy:        r.CountedBy,
		Note:             r.Note,
		CreatedAt:        r.CreatedAt,
	}
	if r.AdjustmentLineID != nil {
		lineID := r.AdjustmentLineID.String()
		resp.AdjustmentLineID = &lineID
	}
	return resp
}

// --- Batches ---

// BatchResponse is the response body for a batch.
type BatchResponse struct {
	ID                string         `json:"id"`
	MedicineID        string         `json:"medicineId"`
	NodeID            string         `json:"nodeId"`
	BatchNumber       string         `json:"batchNumber"`
	ExpiryDate        time.Time      `json:"expiryDate"`
	InitialQuantity   types.Quantity `json:"initialQuantity"`
	RemainingQuantity types.Quantity `json:"remainingQuantity"`
	UnitCost          types.Money    `json:"unitCost"`
	Expired           bool           `json:"expired"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

// FromBatch creates response DTO from domain entity.
func FromBatch(b *stock.Batch) *BatchResponse {
	return &BatchResponse{
		ID:                b.ID.String(),
		MedicineID:        b.MedicineID.String(),
		NodeID:            b.NodeID.String(),
		BatchNumber:       b.BatchNumber,
		ExpiryDate:        b.ExpiryDate,
		InitialQuantity:   b.InitialQuantity,
		RemainingQuantity: b.RemainingQuantity,
		UnitCost:          b.UnitCost,
		Expired:           b.IsExpired(time.Now().UTC()),
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}

// VerificationResponse reports a ledger consistency check for one batch.
type VerificationResponse struct {
	BatchID    string         `json:"batchId"`
	Remaining  types.Quantity `json:"remaining"`
	LedgerSum  types.Quantity `json:"ledgerSum"`
	Consistent bool           `json:"consistent"`
}

// FromVerification creates response DTO from a verification result.
func FromVerification(batchID id.ID, remaining, ledgerSum types.Quantity, consistent bool) *VerificationResponse {
	return &VerificationResponse{
		BatchID:    batchID.String(),
		Remaining:  remaining,
		LedgerSum:  ledgerSum,
		Consistent: consistent,
	}
}
