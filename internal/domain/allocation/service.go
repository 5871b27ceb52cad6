package allocation

import (
	"context"
	"fmt"
	"time"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/core/security"
	"pharmstock/internal/core/tx"
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain/stock"
	"pharmstock/pkg/logger"
)

// Service dispenses medicines against prescriptions.
type Service struct {
	batches   stock.BatchRepository
	movements stock.MovementRepository
	txManager tx.Manager
}

// NewService creates a new allocation service.
func NewService(batches stock.BatchRepository, movements stock.MovementRepository, txManager tx.Manager) *Service {
	return &Service{
		batches:   batches,
		movements: movements,
		txManager: txManager,
	}
}

// DispenseInput describes a dispensing request.
type DispenseInput struct {
	MedicineID id.ID
	NodeID     id.ID
	Quantity   types.Quantity

	// Reference is the prescription or order reference from the portal
	Reference string

	// Strict fails the whole request with INSUFFICIENT_STOCK when stock
	// cannot cover the full quantity. The default is to dispense what is
	// available and report the shortfall in the plan.
	Strict bool
}

// DispenseResult reports what was actually dispensed. A nonzero Shortfall
// with a nil error means stock ran short and the request was not strict.
type DispenseResult struct {
	Plan *Plan `json:"plan"`
}

// Dispense draws the requested quantity from available batches in FEFO
// order. Expired batches are never drawn from. Batch decrements and
// DISPENSING movements commit in one transaction; rows are locked while
// the plan is applied so concurrent dispensers cannot double-spend.
func (s *Service) Dispense(ctx context.Context, in DispenseInput) (*DispenseResult, error) {
	if !in.Quantity.IsPositive() {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}

	actor := security.GetUserID(ctx)
	var plan *Plan

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		available, err := s.batches.ListAvailable(ctx, in.MedicineID, in.NodeID, time.Now().UTC(), true)
		if err != nil {
			return fmt.Errorf("list available batches: %w", err)
		}

		plan = BuildPlan(in.Quantity, available)

		if !plan.IsComplete() && in.Strict {
			return apperror.NewInsufficientStock(
				in.MedicineID.String(), in.NodeID.String(),
				in.Quantity.Int64(), plan.Fulfilled.Int64(),
			)
		}

		movements := make([]*stock.Movement, 0, len(plan.Lines))
		for _, line := range plan.Lines {
			if err := s.batches.Decrement(ctx, line.BatchID, line.Quantity); err != nil {
				return fmt.Errorf("decrement batch %s: %w", line.BatchID, err)
			}

			batch := &stock.Batch{}
			batch.ID = line.BatchID
			batch.MedicineID = in.MedicineID
			batch.NodeID = in.NodeID

			mv := stock.NewMovement(batch, stock.MovementDispensing, line.Quantity.Neg(), actor, in.Reference)
			movements = append(movements, mv)
		}

		if len(movements) > 0 {
			if err := s.movements.Append(ctx, movements...); err != nil {
				return fmt.Errorf("append dispensing movements: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !plan.IsComplete() {
		// Partial fulfillment is a visible outcome, not an error.
		logger.Warn(ctx, "dispensed with shortfall",
			"medicine_id", in.MedicineID,
			"node_id", in.NodeID,
			"requested", plan.Requested,
			"fulfilled", plan.Fulfilled,
			"shortfall", plan.Shortfall,
			"reference", in.Reference,
		)
	} else {
		logger.Info(ctx, "dispensed",
			"medicine_id", in.MedicineID,
			"node_id", in.NodeID,
			"quantity", plan.Fulfilled,
			"batches", len(plan.Lines),
			"reference", in.Reference,
		)
	}

	return &DispenseResult{Plan: plan}, nil
}
