package stock

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
	"pharmstock/pkg/logger"
)

// Service provides batch store and ledger operations: stock intake,
// batch reads, ledger reads, and ledger verification.
type Service struct {
	batches   BatchRepository
	movements MovementRepository
	txManager tx.Manager
}

// NewService creates a new stock service.
func NewService(batches BatchRepository, movements MovementRepository, txManager tx.Manager) *Service {
	return &Service{
		batches:   batches,
		movements: movements,
		txManager: txManager,
	}
}

// ReceiveInput describes a stock intake (purchase delivery).
type ReceiveInput struct {
	MedicineID  id.ID
	NodeID      id.ID
	BatchNumber string
	ExpiryDate  time.Time
	Quantity    types.Quantity
	UnitCost    types.Money
	Reference   string
}

// Receive creates a batch for purchased stock and appends the PURCHASE
// movement. The movement is the ledger record of the initial quantity.
func (s *Service) Receive(ctx context.Context, in ReceiveInput) (*Batch, error) {
	if !in.Quantity.IsPositive() {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}
	if in.BatchNumber == AdjustmentBatchNumber {
		return nil, apperror.NewValidation("batch number is reserved").
			WithDetail("field", "batchNumber")
	}
	if !in.ExpiryDate.After(time.Now().UTC()) {
		return nil, apperror.NewBusinessRule(
			apperror.CodeBatchExpired,
			"Cannot receive already expired stock",
		).WithDetail("expiryDate", in.ExpiryDate)
	}

	batch := NewBatch(in.MedicineID, in.NodeID, in.BatchNumber, in.ExpiryDate, in.Quantity, in.UnitCost)
	if err := batch.Validate(ctx); err != nil {
		return nil, err
	}

	actor := security.GetUserID(ctx)
	batch.CreatedBy = actor
	batch.UpdatedBy = actor

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if existing, err := s.batches.GetByNumber(ctx, in.MedicineID, in.NodeID, in.BatchNumber); err == nil && existing != nil {
			return apperror.NewDuplicate("batch", "batch_number", in.BatchNumber)
		} else if err != nil && !apperror.IsNotFound(err) {
			return fmt.Errorf("check batch number: %w", err)
		}

		if err := s.batches.Create(ctx, batch); err != nil {
			return fmt.Errorf("create batch: %w", err)
		}

		mv := NewMovement(batch, MovementPurchase, in.Quantity, actor, in.Reference)
		if err := s.movements.Append(ctx, mv); err != nil {
			return fmt.Errorf("append purchase movement: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock received",
		"batch_id", batch.ID,
		"medicine_id", in.MedicineID,
		"node_id", in.NodeID,
		"quantity", in.Quantity,
	)
	return batch, nil
}

// GetBatch retrieves a batch by ID.
func (s *Service) GetBatch(ctx context.Context, batchID id.ID) (*Batch, error) {
	return s.batches.GetByID(ctx, batchID)
}

// ListBatches returns batches matching the filter in FEFO order.
func (s *Service) ListBatches(ctx context.Context, f BatchFilter) (domain.ListResult[*Batch], error) {
	return s.batches.List(ctx, f)
}

// ListAvailable returns dispensable batches for (medicine, node) in FEFO order.
func (s *Service) ListAvailable(ctx context.Context, medicineID, nodeID id.ID) ([]*Batch, error) {
	return s.batches.ListAvailable(ctx, medicineID, nodeID, time.Now().UTC(), false)
}

// SumRemaining returns total remaining units for (medicine, node).
func (s *Service) SumRemaining(ctx context.Context, medicineID, nodeID id.ID) (types.Quantity, error) {
	return s.batches.SumRemaining(ctx, medicineID, nodeID)
}

// ListMovements returns ledger entries matching the filter.
func (s *Service) ListMovements(ctx context.Context, f MovementFilter) (domain.ListResult[*Movement], error) {
	if f.Type != nil && !IsValidMovementType(*f.Type) {
		return domain.ListResult[*Movement]{}, apperror.NewValidation("invalid movement type").
			WithDetail("type", string(*f.Type))
	}
	return s.movements.List(ctx, f)
}

// IterateMovements streams ledger entries to fn in chronological order.
func (s *Service) IterateMovements(ctx context.Context, f MovementFilter, fn func(*Movement) error) error {
	return s.movements.Iterate(ctx, f, fn)
}

// VerificationResult reports a ledger check for one batch.
type VerificationResult struct {
	BatchID    id.ID          `json:"batchId"`
	Remaining  types.Quantity `json:"remaining"`
	LedgerSum  types.Quantity `json:"ledgerSum"`
	Consistent bool           `json:"consistent"`
}

// VerifyBatch recomputes the batch's remaining quantity from the ledger and
// compares it with the stored value. The two must agree: every change to
// remaining is written with a movement in the same transaction.
func (s *Service) VerifyBatch(ctx context.Context, batchID id.ID) (*VerificationResult, error) {
	batch, err := s.batches.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}

	sum, err := s.movements.SumForBatch(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("sum movements: %w", err)
	}

	res := &VerificationResult{
		BatchID:    batchID,
		Remaining:  batch.RemainingQuantity,
		LedgerSum:  sum,
		Consistent: batch.RemainingQuantity == sum,
	}
	if !res.Consistent {
		logger.Error(ctx, "ledger mismatch detected",
			"batch_id", batchID,
			"remaining", batch.RemainingQuantity,
			"ledger_sum", sum,
		)
	}
	return res, nil
}
