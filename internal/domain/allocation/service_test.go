package allocation_test

import (
	"context"
	"testing"
	"time"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain/allocation"
	"pharmstock/internal/domain/stock"
	"pharmstock/internal/domain/stock/stocktest"
)

func newBatch(medicineID, nodeID id.ID, number string, expiryDays int, qty int64) *stock.Batch {
	return stock.NewBatch(
		medicineID, nodeID, number,
		time.Now().UTC().AddDate(0, 0, expiryDays),
		types.Quantity(qty),
		types.MustMoney("2.00"),
	)
}

func TestDispense_FEFOAcrossBatches(t *testing.T) {
	medID, nodeID := id.New(), id.New()
	batches := stocktest.NewBatchRepo()
	movements := stocktest.NewMovementRepo()

	early := newBatch(medID, nodeID, "L-001", 30, 20)
	late := newBatch(medID, nodeID, "L-002", 180, 100)
	batches.Add(early)
	batches.Add(late)

	svc := allocation.NewService(batches, movements, stocktest.TxManager{})

	res, err := svc.Dispense(context.Background(), allocation.DispenseInput{
		MedicineID: medID,
		NodeID:     nodeID,
		Quantity:   25,
		Reference:  "rx-1001",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !res.Plan.IsComplete() {
		t.Fatalf("expected full fulfillment, shortfall %d", res.Plan.Shortfall)
	}
	if early.RemainingQuantity != 0 {
		t.Errorf("early batch remaining = %d, want 0", early.RemainingQuantity)
	}
	if late.RemainingQuantity != 95 {
		t.Errorf("late batch remaining = %d, want 95", late.RemainingQuantity)
	}

	if len(movements.Movements) != 2 {
		t.Fatalf("movements = %d, want 2", len(movements.Movements))
	}
	for _, m := range movements.Movements {
		if m.Type != stock.MovementDispensing {
			t.Errorf("movement type = %s, want DISPENSING", m.Type)
		}
		if !m.Quantity.IsNegative() {
			t.Errorf("dispensing quantity = %d, want negative", m.Quantity)
		}
		if m.Reference != "rx-1001" {
			t.Errorf("reference = %q, want rx-1001", m.Reference)
		}
	}
}

func TestDispense_ShortfallIsDefaultOutcome(t *testing.T) {
	medID, nodeID := id.New(), id.New()
	batches := stocktest.NewBatchRepo()
	movements := stocktest.NewMovementRepo()

	batches.Add(newBatch(medID, nodeID, "L-001", 30, 40))
	batches.Add(newBatch(medID, nodeID, "L-002", 90, 25))

	svc := allocation.NewService(batches, movements, stocktest.TxManager{})

	// No Strict flag: a shortfall must not fail the dispense.
	res, err := svc.Dispense(context.Background(), allocation.DispenseInput{
		MedicineID: medID,
		NodeID:     nodeID,
		Quantity:   200,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Plan.Fulfilled != 65 {
		t.Errorf("fulfilled = %d, want 65", res.Plan.Fulfilled)
	}
	if res.Plan.Shortfall != 135 {
		t.Errorf("shortfall = %d, want 135", res.Plan.Shortfall)
	}

	sum, _ := batches.SumRemaining(context.Background(), medID, nodeID)
	if sum != 0 {
		t.Errorf("remaining after drain = %d, want 0", sum)
	}
}

func TestDispense_StrictRejectsShortfall(t *testing.T) {
	medID, nodeID := id.New(), id.New()
	batches := stocktest.NewBatchRepo()
	movements := stocktest.NewMovementRepo()

	b := newBatch(medID, nodeID, "L-001", 30, 10)
	batches.Add(b)

	svc := allocation.NewService(batches, movements, stocktest.TxManager{})

	_, err := svc.Dispense(context.Background(), allocation.DispenseInput{
		MedicineID: medID,
		NodeID:     nodeID,
		Quantity:   50,
		Strict:     true,
	})
	if !apperror.IsInsufficientStock(err) {
		t.Fatalf("err = %v, want INSUFFICIENT_STOCK", err)
	}

	if b.RemainingQuantity != 10 {
		t.Errorf("remaining = %d, rejected dispense must not change stock", b.RemainingQuantity)
	}
	if len(movements.Movements) != 0 {
		t.Errorf("movements = %d, rejected dispense must not write to ledger", len(movements.Movements))
	}
}

func TestDispense_SkipsExpiredBatches(t *testing.T) {
	medID, nodeID := id.New(), id.New()
	batches := stocktest.NewBatchRepo()
	movements := stocktest.NewMovementRepo()

	expired := newBatch(medID, nodeID, "L-OLD", -1, 100)
	fresh := newBatch(medID, nodeID, "L-NEW", 60, 30)
	batches.Add(expired)
	batches.Add(fresh)

	svc := allocation.NewService(batches, movements, stocktest.TxManager{})

	res, err := svc.Dispense(context.Background(), allocation.DispenseInput{
		MedicineID: medID,
		NodeID:     nodeID,
		Quantity:   20,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if expired.RemainingQuantity != 100 {
		t.Errorf("expired batch remaining = %d, expired stock must never be dispensed", expired.RemainingQuantity)
	}
	if fresh.RemainingQuantity != 10 {
		t.Errorf("fresh batch remaining = %d, want 10", fresh.RemainingQuantity)
	}
	if !res.Plan.IsComplete() {
		t.Errorf("shortfall = %d, want 0", res.Plan.Shortfall)
	}
}

func TestDispense_RejectsNonPositiveQuantity(t *testing.T) {
	svc := allocation.NewService(stocktest.NewBatchRepo(), stocktest.NewMovementRepo(), stocktest.TxManager{})

	_, err := svc.Dispense(context.Background(), allocation.DispenseInput{
		MedicineID: id.New(),
		NodeID:     id.New(),
		Quantity:   0,
	})
	if appErr, ok := apperror.AsAppError(err); !ok || appErr.Code != apperror.CodeValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
}
