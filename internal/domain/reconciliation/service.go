// Package reconciliation compares physical counts against the ledger.
// Every count produces a ReconciliationRecord; a nonzero variance
// additionally produces exactly one ADJUSTMENT movement that brings the
// ledger in line with reality.
package reconciliation

import (
	"context"
	"fmt"
	"time"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/core/security"
	"pharmstock/internal/core/tx"
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain"
	"pharmstock/internal/domain/stock"
	"pharmstock/pkg/logger"
	"pharmstock/pkg/numerator"
)

// Service performs stock reconciliations.
type Service struct {
	batches         stock.BatchRepository
	movements       stock.MovementRepository
	reconciliations stock.ReconciliationRepository
	numerator       *numerator.Service
	txManager       tx.Manager
}

// NewService creates a new reconciliation service.
func NewService(
	batches stock.BatchRepository,
	movements stock.MovementRepository,
	reconciliations stock.ReconciliationRepository,
	num *numerator.Service,
	txManager tx.Manager,
) *Service {
	return &Service{
		batches:         batches,
		movements:       movements,
		reconciliations: reconciliations,
		numerator:       num,
		txManager:       txManager,
	}
}

// Input describes a physical count for one medicine at one node.
type Input struct {
	MedicineID       id.ID
	NodeID           id.ID
	PhysicalQuantity types.Quantity
	Note             string
}

// Reconcile records the count and, when the count disagrees with the
// ledger, adjusts stock through a single ADJUSTMENT movement.
//
// Target batch selection is deterministic: surplus goes to the designated
// adjustment batch for the (node, medicine) pair; shortage comes off the
// batch with the most remaining units. A shortage that no single batch
// can absorb is rejected so that no batch ever goes negative.
func (s *Service) Reconcile(ctx context.Context, in Input) (*stock.ReconciliationRecord, error) {
	if in.PhysicalQuantity.IsNegative() {
		return nil, apperror.NewValidation("physical quantity cannot be negative").
			WithDetail("field", "physicalQuantity")
	}

	actor := security.GetUserID(ctx)

	number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("RECON"), nil, time.Now())
	if err != nil {
		return nil, fmt.Errorf("generate reconciliation number: %w", err)
	}

	var record *stock.ReconciliationRecord
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// Lock the batch set so the logical total cannot move under us.
		// Zero cutoff time includes expired lots: a physical count counts
		// everything on the shelf.
		batches, err := s.batches.ListAvailable(ctx, in.MedicineID, in.NodeID, time.Time{}, true)
		if err != nil {
			return fmt.Errorf("list batches: %w", err)
		}

		var logical types.Quantity
		for _, b := range batches {
			logical += b.RemainingQuantity
		}

		record = stock.NewReconciliationRecord(in.MedicineID, in.NodeID, logical, in.PhysicalQuantity, actor)
		record.Number = number
		record.Note = in.Note

		if record.HasVariance() {
			lineID, err := s.applyVariance(ctx, in, batches, record.Variance, actor, record.ID.String())
			if err != nil {
				return err
			}
			record.AdjustmentLineID = &lineID
		}

		if err := s.reconciliations.Create(ctx, record); err != nil {
			return fmt.Errorf("create reconciliation record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "reconciliation recorded",
		"number", record.Number,
		"medicine_id", in.MedicineID,
		"node_id", in.NodeID,
		"logical", record.LogicalQuantity,
		"physical", record.PhysicalQuantity,
		"variance", record.Variance,
	)
	return record, nil
}

// applyVariance writes the single ADJUSTMENT movement and updates the
// target batch. Returns the ledger line ID.
func (s *Service) applyVariance(
	ctx context.Context,
	in Input,
	batches []*stock.Batch,
	variance types.Quantity,
	actor, reference string,
) (id.ID, error) {
	if variance.IsPositive() {
		target, err := s.adjustmentBatch(ctx, in.MedicineID, in.NodeID)
		if err != nil {
			return id.Nil(), err
		}
		if err := s.batches.Increment(ctx, target.ID, variance); err != nil {
			return id.Nil(), fmt.Errorf("increment adjustment batch: %w", err)
		}
		mv := stock.NewMovement(target, stock.MovementAdjustment, variance, actor, reference)
		if err := s.movements.Append(ctx, mv); err != nil {
			return id.Nil(), fmt.Errorf("append adjustment movement: %w", err)
		}
		return mv.LineID, nil
	}

	// Shortage: take it off the batch with the most remaining units,
	// newest batch first on ties.
	shortage := variance.Abs()
	target := pickShortageTarget(batches)
	if target == nil || target.RemainingQuantity < shortage {
		return id.Nil(), apperror.NewBusinessRule(
			"VARIANCE_EXCEEDS_BATCH",
			"No single batch can absorb the shortage; recount per batch",
		).WithDetail("variance", variance.Int64())
	}

	if err := s.batches.Decrement(ctx, target.ID, shortage); err != nil {
		return id.Nil(), fmt.Errorf("decrement batch: %w", err)
	}
	mv := stock.NewMovement(target, stock.MovementAdjustment, variance, actor, reference)
	if err := s.movements.Append(ctx, mv); err != nil {
		return id.Nil(), fmt.Errorf("append adjustment movement: %w", err)
	}
	return mv.LineID, nil
}

// adjustmentBatch finds or creates the designated adjustment batch.
// Two counts for the same pair can race to create it; the loser falls
// back to the row the winner inserted.
func (s *Service) adjustmentBatch(ctx context.Context, medicineID, nodeID id.ID) (*stock.Batch, error) {
	b, err := s.batches.GetByNumberForUpdate(ctx, medicineID, nodeID, stock.AdjustmentBatchNumber)
	if err == nil {
		return b, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, err
	}

	b = stock.NewAdjustmentBatch(medicineID, nodeID)
	created, err := s.batches.CreateIfAbsent(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("create adjustment batch: %w", err)
	}
	if created {
		return b, nil
	}

	b, err = s.batches.GetByNumberForUpdate(ctx, medicineID, nodeID, stock.AdjustmentBatchNumber)
	if err != nil {
		return nil, fmt.Errorf("refetch adjustment batch: %w", err)
	}
	return b, nil
}

// pickShortageTarget returns the batch with the most remaining units;
// the later-created batch wins ties (UUIDv7 IDs order by creation time).
func pickShortageTarget(batches []*stock.Batch) *stock.Batch {
	var target *stock.Batch
	for _, b := range batches {
		if !b.HasStock() {
			continue
		}
		if target == nil ||
			b.RemainingQuantity > target.RemainingQuantity ||
			(b.RemainingQuantity == target.RemainingQuantity && b.ID.String() > target.ID.String()) {
			target = b
		}
	}
	return target
}

// History returns reconciliation records matching the filter.
func (s *Service) History(ctx context.Context, f stock.ReconciliationFilter) (domain.ListResult[*stock.ReconciliationRecord], error) {
	return s.reconciliations.List(ctx, f)
}
