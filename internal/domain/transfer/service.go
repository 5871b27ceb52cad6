// Package transfer moves stock between nodes. A transfer decrements the
// source batch, finds or creates the batch carrying the same lot at the
// destination and adds the units to it, and writes the paired
// TRANSFER_OUT / TRANSFER_IN ledger entries. All four effects commit in
// one transaction or none do.
package transfer

import (
	"context"
	"fmt"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/core/security"
	"pharmstock/internal/core/tx"
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain/stock"
	"pharmstock/pkg/logger"
)

// Service coordinates batch transfers between nodes.
type Service struct {
	batches   stock.BatchRepository
	movements stock.MovementRepository
	txManager tx.Manager
}

// NewService creates a new transfer service.
func NewService(batches stock.BatchRepository, movements stock.MovementRepository, txManager tx.Manager) *Service {
	return &Service{
		batches:   batches,
		movements: movements,
		txManager: txManager,
	}
}

// Input describes a transfer request.
type Input struct {
	BatchID   id.ID
	ToNodeID  id.ID
	Quantity  types.Quantity
	Reference string
}

// Result reports the completed transfer.
type Result struct {
	TransferID  id.ID        `json:"transferId"`
	SourceBatch *stock.Batch `json:"sourceBatch"`
	DestBatch   *stock.Batch `json:"destBatch"`
}

// Transfer moves quantity units of a batch to another node.
func (s *Service) Transfer(ctx context.Context, in Input) (*Result, error) {
	if !in.Quantity.IsPositive() {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}

	actor := security.GetUserID(ctx)
	transferID := id.New()
	reference := in.Reference
	if reference == "" {
		reference = transferID.String()
	}

	var result *Result
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		src, err := s.batches.GetForUpdate(ctx, in.BatchID)
		if err != nil {
			return err
		}

		if src.NodeID == in.ToNodeID {
			return apperror.NewValidation("source and destination nodes must differ").
				WithDetail("nodeId", in.ToNodeID)
		}
		if src.RemainingQuantity < in.Quantity {
			return apperror.NewBatchInsufficientStock(
				src.ID.String(), in.Quantity.Int64(), src.RemainingQuantity.Int64(),
			)
		}

		if err := s.batches.Decrement(ctx, src.ID, in.Quantity); err != nil {
			return fmt.Errorf("decrement source batch: %w", err)
		}

		dest, err := s.destinationBatch(ctx, src, in.ToNodeID, in.Quantity, actor)
		if err != nil {
			return err
		}

		out := stock.NewMovement(src, stock.MovementTransferOut, in.Quantity.Neg(), actor, reference).
			WithCounterNode(in.ToNodeID)
		inMv := stock.NewMovement(dest, stock.MovementTransferIn, in.Quantity, actor, reference).
			WithCounterNode(src.NodeID)

		if err := s.movements.Append(ctx, out, inMv); err != nil {
			return fmt.Errorf("append transfer movements: %w", err)
		}

		src, err = s.batches.GetByID(ctx, src.ID)
		if err != nil {
			return fmt.Errorf("reload source batch: %w", err)
		}
		result = &Result{
			TransferID:  transferID,
			SourceBatch: src,
			DestBatch:   dest,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "transfer completed",
		"transfer_id", transferID,
		"batch_id", in.BatchID,
		"from_node", result.SourceBatch.NodeID,
		"to_node", in.ToNodeID,
		"quantity", in.Quantity,
	)
	return result, nil
}

// destinationBatch locks the batch carrying the lot at the destination
// node and adds the transferred units to it. When the lot has never
// reached that node a new batch is created; losing the create race to a
// concurrent transfer falls back to incrementing the winner's row.
func (s *Service) destinationBatch(ctx context.Context, src *stock.Batch, toNodeID id.ID, qty types.Quantity, actor string) (*stock.Batch, error) {
	dest, err := s.batches.GetByNumberForUpdate(ctx, src.MedicineID, toNodeID, src.BatchNumber)
	if err == nil {
		return s.addToBatch(ctx, dest.ID, qty)
	}
	if !apperror.IsNotFound(err) {
		return nil, fmt.Errorf("lookup destination batch: %w", err)
	}

	dest = stock.NewBatch(src.MedicineID, toNodeID, src.BatchNumber, src.ExpiryDate, qty, src.UnitCost)
	dest.CreatedBy = actor
	dest.UpdatedBy = actor

	created, err := s.batches.CreateIfAbsent(ctx, dest)
	if err != nil {
		return nil, fmt.Errorf("create destination batch: %w", err)
	}
	if created {
		return dest, nil
	}

	dest, err = s.batches.GetByNumberForUpdate(ctx, src.MedicineID, toNodeID, src.BatchNumber)
	if err != nil {
		return nil, fmt.Errorf("refetch destination batch: %w", err)
	}
	return s.addToBatch(ctx, dest.ID, qty)
}

func (s *Service) addToBatch(ctx context.Context, batchID id.ID, qty types.Quantity) (*stock.Batch, error) {
	if err := s.batches.Increment(ctx, batchID, qty); err != nil {
		return nil, fmt.Errorf("increment destination batch: %w", err)
	}
	return s.batches.GetByID(ctx, batchID)
}
