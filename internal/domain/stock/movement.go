package stock

import (
	"context"
	"time"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
)

// MovementType classifies ledger entries.
type MovementType string

const (
	MovementPurchase    MovementType = "PURCHASE"
	MovementDispensing  MovementType = "DISPENSING"
	MovementTransferOut MovementType = "TRANSFER_OUT"
	MovementTransferIn  MovementType = "TRANSFER_IN"
	MovementAdjustment  MovementType = "ADJUSTMENT"
)

// Movement is one immutable ledger entry. Movements are never updated or
// deleted; a batch's remaining quantity always equals the sum of its
// movements' signed quantities.
type Movement struct {
	// LineID is the unique identifier of this ledger entry (UUIDv7)
	LineID id.ID `db:"line_id" json:"lineId"`

	BatchID    id.ID `db:"batch_id" json:"batchId"`
	MedicineID id.ID `db:"medicine_id" json:"medicineId"`

	// NodeID is the node whose stock changed
	NodeID id.ID `db:"node_id" json:"nodeId"`

	// CounterNodeID is the other side of a transfer (source for TRANSFER_IN,
	// destination for TRANSFER_OUT), nil otherwise
	CounterNodeID *id.ID `db:"counter_node_id" json:"counterNodeId,omitempty"`

	Type MovementType `db:"type" json:"type"`

	// Quantity is signed: positive for stock increases, negative for decreases
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// OccurredAt is the business timestamp of the operation
	OccurredAt time.Time `db:"occurred_at" json:"occurredAt"`

	// CreatedAt is when the ledger entry was recorded
	CreatedAt time.Time `db:"created_at" json:"createdAt"`

	// ActorID is the portal user who performed the operation
	ActorID string `db:"actor_id" json:"actorId"`

	// Reference links the movement to the operation that produced it
	// (transfer id, reconciliation id, prescription reference)
	Reference string `db:"reference" json:"reference,omitempty"`
}

// NewMovement creates a ledger entry with generated LineID and timestamps.
func NewMovement(batch *Batch, mType MovementType, qty types.Quantity, actorID, reference string) *Movement {
	now := time.Now().UTC()
	return &Movement{
		LineID:     id.New(),
		BatchID:    batch.ID,
		MedicineID: batch.MedicineID,
		NodeID:     batch.NodeID,
		Type:       mType,
		Quantity:   qty,
		OccurredAt: now,
		CreatedAt:  now,
		ActorID:    actorID,
		Reference:  reference,
	}
}

// WithCounterNode sets the other side of a transfer.
func (m *Movement) WithCounterNode(nodeID id.ID) *Movement {
	m.CounterNodeID = &nodeID
	return m
}

// Validate checks the sign convention for the movement type.
func (m *Movement) Validate(ctx context.Context) error {
	if id.IsNil(m.BatchID) {
		return apperror.NewValidation("batch is required").
			WithDetail("field", "batchId")
	}
	if m.Quantity.IsZero() {
		return apperror.NewValidation("movement quantity cannot be zero").
			WithDetail("field", "quantity")
	}

	switch m.Type {
	case MovementPurchase, MovementTransferIn:
		if !m.Quantity.IsPositive() {
			return apperror.NewValidation("intake movement must have positive quantity").
				WithDetail("type", string(m.Type))
		}
	case MovementDispensing, MovementTransferOut:
		if !m.Quantity.IsNegative() {
			return apperror.NewValidation("outflow movement must have negative quantity").
				WithDetail("type", string(m.Type))
		}
	case MovementAdjustment:
		// Either sign is valid
	default:
		return apperror.NewValidation("invalid movement type").
			WithDetail("type", string(m.Type))
	}

	return nil
}

// IsValidMovementType reports whether t is a known movement type.
func IsValidMovementType(t MovementType) bool {
	switch t {
	case MovementPurchase, MovementDispensing, MovementTransferOut, MovementTransferIn, MovementAdjustment:
		return true
	}
	return false
}
