// Package stock provides the batch store and the movement ledger.
// A batch is a physically received lot of one medicine at one node;
// the ledger is the append-only trail of every quantity change.
package stock

import (
	"context"
	"time"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/entity"
	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
)

// AdjustmentBatchNumber is the batch number of the designated per-(node, medicine)
// batch that absorbs positive reconciliation variances. Created on demand with
// zero initial quantity and a far-future expiry.
const AdjustmentBatchNumber = "ADJ"

// adjustmentExpiryYears is how far in the future adjustment batches expire.
const adjustmentExpiryYears = 100

// Batch represents a received lot of a medicine at a node.
// RemainingQuantity only changes through ledger movements.
type Batch struct {
	entity.AuditedEntity

	MedicineID id.ID `db:"medicine_id" json:"medicineId"`
	NodeID     id.ID `db:"node_id" json:"nodeId"`

	// BatchNumber is the manufacturer lot number (unique per medicine+node)
	BatchNumber string `db:"batch_number" json:"batchNumber"`

	// ExpiryDate drives FEFO ordering
	ExpiryDate time.Time `db:"expiry_date" json:"expiryDate"`

	InitialQuantity   types.Quantity `db:"initial_quantity" json:"initialQuantity"`
	RemainingQuantity types.Quantity `db:"remaining_quantity" json:"remainingQuantity"`

	// UnitCost is the purchase cost per unit for this lot
	UnitCost types.Money `db:"unit_cost" json:"unitCost"`
}

// NewBatch creates a new batch with its full quantity remaining.
func NewBatch(medicineID, nodeID id.ID, batchNumber string, expiry time.Time, qty types.Quantity, unitCost types.Money) *Batch {
	return &Batch{
		AuditedEntity:     entity.NewAuditedEntity(),
		MedicineID:        medicineID,
		NodeID:            nodeID,
		BatchNumber:       batchNumber,
		ExpiryDate:        expiry,
		InitialQuantity:   qty,
		RemainingQuantity: qty,
		UnitCost:          unitCost,
	}
}

// NewAdjustmentBatch creates the designated adjustment batch for a
// (node, medicine) pair. It starts empty; surplus lands on it via
// ADJUSTMENT movements.
func NewAdjustmentBatch(medicineID, nodeID id.ID) *Batch {
	return NewBatch(
		medicineID, nodeID,
		AdjustmentBatchNumber,
		time.Now().UTC().AddDate(adjustmentExpiryYears, 0, 0),
		0,
		types.ZeroMoney(),
	)
}

// Validate implements entity.Validatable.
func (b *Batch) Validate(ctx context.Context) error {
	if id.IsNil(b.MedicineID) {
		return apperror.NewValidation("medicine is required").
			WithDetail("field", "medicineId")
	}
	if id.IsNil(b.NodeID) {
		return apperror.NewValidation("node is required").
			WithDetail("field", "nodeId")
	}
	if b.BatchNumber == "" {
		return apperror.NewValidation("batch number is required").
			WithDetail("field", "batchNumber")
	}
	if b.ExpiryDate.IsZero() {
		return apperror.NewValidation("expiry date is required").
			WithDetail("field", "expiryDate")
	}
	if b.InitialQuantity.IsNegative() {
		return apperror.NewValidation("initial quantity cannot be negative").
			WithDetail("field", "initialQuantity")
	}
	if b.RemainingQuantity.IsNegative() {
		return apperror.NewValidation("remaining quantity cannot be negative").
			WithDetail("field", "remainingQuantity")
	}
	if b.UnitCost.IsNegative() {
		return apperror.NewValidation("unit cost cannot be negative").
			WithDetail("field", "unitCost")
	}
	return nil
}

// IsExpired reports whether the batch is expired at the given time.
func (b *Batch) IsExpired(at time.Time) bool {
	return !b.ExpiryDate.After(at)
}

// HasStock reports whether any units remain.
func (b *Batch) HasStock() bool {
	return b.RemainingQuantity.IsPositive()
}

// IsAdjustment reports whether this is the designated adjustment batch.
func (b *Batch) IsAdjustment() bool {
	return b.BatchNumber == AdjustmentBatchNumber
}

// Value returns remaining quantity valued at this batch's unit cost.
func (b *Batch) Value() types.Money {
	return types.MoneyFromUnits(b.UnitCost, b.RemainingQuantity)
}
