package dto

import (
	"time"

	"pharmstock/internal/core/types"
	"pharmstock/internal/domain/stock"
)

// MovementResponse is one ledger entry. The same shape is streamed by the
// NDJSON export, one entry per line.
type MovementResponse struct {
	LineID        string             `json:"lineId"`
	BatchID       string             `json:"batchId"`
	MedicineID    string             `json:"medicineId"`
	NodeID        string             `json:"nodeId"`
	CounterNodeID *string            `json:"counterNodeId,omitempty"`
	Type          stock.MovementType `json:"type"`
	Quantity      types.Quantity     `json:"quantity"`
	OccurredAt    time.Time          `json:"occurredAt"`
	ActorID       string             `json:"actorId"`
	Reference     string             `json:"reference,omitempty"`
}

// FromMovement creates response DTO from a ledger entry.
func FromMovement(m *stock.Movement) *MovementResponse {
	resp := &MovementResponse{
		LineID:     m.LineID.String(),
		BatchID:    m.BatchID.String(),
		MedicineID: m.MedicineID.String(),
		NodeID:     m.NodeID.String(),
		Type:       m.Type,
		Quantity:   m.Quantity,
		OccurredAt: m.OccurredAt,
		ActorID:    m.ActorID,
		Reference:  m.Reference,
	}
	if m.CounterNodeID != nil {
		counter := m.CounterNodeID.String()
		resp.CounterNodeID = &counter
	}
	return resp
}
