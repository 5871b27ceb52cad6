package stock

import (
	"time"

	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
)

// ReconciliationRecord captures one physical count against the ledger.
// A record is written for every reconciliation, including zero-variance
// counts; the audit trail must show that the count happened.
type ReconciliationRecord struct {
	ID id.ID `db:"id" json:"id"`

	// Number is the human-readable audit number (RECON-YYYY-NNNNN)
	Number string `db:"number" json:"number"`

	MedicineID id.ID `db:"medicine_id" json:"medicineId"`
	NodeID     id.ID `db:"node_id" json:"nodeId"`

	// LogicalQuantity is the ledger-derived total at count time
	LogicalQuantity types.Quantity `db:"logical_quantity" json:"logicalQuantity"`

	// PhysicalQuantity is the counted total
	PhysicalQuantity types.Quantity `db:"physical_quantity" json:"physicalQuantity"`

	// Variance = physical - logical
	Variance types.Quantity `db:"variance" json:"variance"`

	// AdjustmentLineID references the ADJUSTMENT movement, nil when variance is zero
	AdjustmentLineID *id.ID `db:"adjustment_line_id" json:"adjustmentLineId,omitempty"`

	// CountedBy is the portal user who performed the count
	CountedBy string `db:"counted_by" json:"countedBy"`

	// Note is an optional free-form comment from the counter
	Note string `db:"note" json:"note,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewReconciliationRecord creates a record with computed variance.
func NewReconciliationRecord(medicineID, nodeID id.ID, logical, physical types.Quantity, countedBy string) *ReconciliationRecord {
	return &ReconciliationRecord{
		ID:               id.New(),
		MedicineID:       medicineID,
		NodeID:           nodeID,
		LogicalQuantity:  logical,
		PhysicalQuantity: physical,
		Variance:         physical - logical,
		CountedBy:        countedBy,
		CreatedAt:        time.Now().UTC(),
	}
}

// HasVariance reports whether the count disagreed with the ledger.
func (r *ReconciliationRecord) HasVariance() bool {
	return !r.Variance.IsZero()
}
