// Package allocation implements FEFO dispensing: requested quantity is
// drawn from batches in first-expiry-first-out order, and any shortfall
// is returned to the caller as data, never hidden.
package allocation

import (
	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain/stock"
)

// Line is one batch draw within a plan.
type Line struct {
	BatchID     id.ID          `json:"batchId"`
	BatchNumber string         `json:"batchNumber"`
	Quantity    types.Quantity `json:"quantity"`
	UnitCost    types.Money    `json:"unitCost"`
}

// Plan is the result of walking available batches for a request.
// Fulfilled + Shortfall always equals Requested.
type Plan struct {
	Requested types.Quantity `json:"requested"`
	Fulfilled types.Quantity `json:"fulfilled"`
	Shortfall types.Quantity `json:"shortfall"`
	Lines     []Line         `json:"lines"`
}

// IsComplete reports whether the full requested quantity was covered.
func (p *Plan) IsComplete() bool {
	return p.Shortfall.IsZero()
}

// BuildPlan walks batches in the given order and draws from each until the
// request is covered or the batches run out. Batches must already be in
// FEFO order (expiry ascending); empty batches are skipped. BuildPlan is
// pure: it never mutates the batches.
func BuildPlan(requested types.Quantity, batches []*stock.Batch) *Plan {
	plan := &Plan{
		Requested: requested,
		Lines:     make([]Line, 0, len(batches)),
	}

	remaining := requested
	for _, b := range batches {
		if remaining.IsZero() {
			break
		}
		if !b.HasStock() {
			continue
		}

		take := b.RemainingQuantity
		if take > remaining {
			take = remaining
		}

		plan.Lines = append(plan.Lines, Line{
			BatchID:     b.ID,
			BatchNumber: b.BatchNumber,
			Quantity:    take,
			UnitCost:    b.UnitCost,
		})
		plan.Fulfilled += take
		remaining -= take
	}

	plan.Shortfall = remaining
	return plan
}
