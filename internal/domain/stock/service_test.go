package stock_test

import (
	"context"
	"testing"
	"time"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain/stock"
	"pharmstock/internal/domain/stock/stocktest"
)

func newService(batches *stocktest.BatchRepo, movements *stocktest.MovementRepo) *stock.Service {
	return stock.NewService(batches, movements, stocktest.TxManager{})
}

func receiveInput(medID, nodeID id.ID) stock.ReceiveInput {
	return stock.ReceiveInput{
		MedicineID:  medID,
		NodeID:      nodeID,
		BatchNumber: "L-2026-001",
		ExpiryDate:  time.Now().UTC().AddDate(1, 0, 0),
		Quantity:    120,
		UnitCost:    types.MustMoney("0.85"),
		Reference:   "po-77",
	}
}

func TestReceive_CreatesBatchAndPurchaseMovement(t *testing.T) {
	medID, nodeID := id.New(), id.New()
	batches := stocktest.NewBatchRepo()
	movements := stocktest.NewMovementRepo()

	svc := newService(batches, movements)

	batch, err := svc.Receive(context.Background(), receiveInput(medID, nodeID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if batch.InitialQuantity != 120 || batch.RemainingQuantity != 120 {
		t.Errorf("batch quantities = %d/%d, want 120/120", batch.InitialQuantity, batch.RemainingQuantity)
	}

	mvs := movements.ForBatch(batch.ID)
	if len(mvs) != 1 {
		t.Fatalf("movements = %d, want one PURCHASE entry", len(mvs))
	}
	mv := mvs[0]
	if mv.Type != stock.MovementPurchase {
		t.Errorf("movement type = %s, want PURCHASE", mv.Type)
	}
	if mv.Quantity != 120 {
		t.Errorf("movement quantity = %d, intake movement must carry the full initial quantity", mv.Quantity)
	}
	if mv.Reference != "po-77" {
		t.Errorf("reference = %q, want po-77", mv.Reference)
	}
}

func TestReceive_DuplicateBatchNumberRejected(t *testing.T) {
	medID, nodeID := id.New(), id.New()
	batches := stocktest.NewBatchRepo()
	movements := stocktest.NewMovementRepo()

	svc := newService(batches, movements)

	if _, err := svc.Receive(context.Background(), receiveInput(medID, nodeID)); err != nil {
		t.Fatalf("first receive: %v", err)
	}

	_, err := svc.Receive(context.Background(), receiveInput(medID, nodeID))
	if appErr, ok := apperror.AsAppError(err); !ok || appErr.Code != apperror.CodeDuplicate {
		t.Fatalf("err = %v, want DUPLICATE", err)
	}
	if len(movements.Movements) != 1 {
		t.Errorf("movements = %d, rejected intake must not write to ledger", len(movements.Movements))
	}
}

func TestReceive_SameBatchNumberAtOtherNodeAllowed(t *testing.T) {
	medID := id.New()
	svc := newService(stocktest.NewBatchRepo(), stocktest.NewMovementRepo())

	if _, err := svc.Receive(context.Background(), receiveInput(medID, id.New())); err != nil {
		t.Fatalf("first receive: %v", err)
	}
	if _, err := svc.Receive(context.Background(), receiveInput(medID, id.New())); err != nil {
		t.Fatalf("same lot at a different node must be accepted: %v", err)
	}
}

func TestReceive_ExpiredStockRejected(t *testing.T) {
	svc := newService(stocktest.NewBatchRepo(), stocktest.NewMovementRepo())

	in := receiveInput(id.New(), id.New())
	in.ExpiryDate = time.Now().UTC().AddDate(0, 0, -1)

	_, err := svc.Receive(context.Background(), in)
	if appErr, ok := apperror.AsAppError(err); !ok || appErr.Code != apperror.CodeBatchExpired {
		t.Fatalf("err = %v, want BATCH_EXPIRED", err)
	}
}

func TestReceive_ReservedBatchNumberRejected(t *testing.T) {
	svc := newService(stocktest.NewBatchRepo(), stocktest.NewMovementRepo())

	in := receiveInput(id.New(), id.New())
	in.BatchNumber = stock.AdjustmentBatchNumber

	_, err := svc.Receive(context.Background(), in)
	if appErr, ok := apperror.AsAppError(err); !ok || appErr.Code != apperror.CodeValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestVerifyBatch(t *testing.T) {
	medID, nodeID := id.New(), id.New()
	batches := stocktest.NewBatchRepo()
	movements := stocktest.NewMovementRepo()

	svc := newService(batches, movements)

	batch, err := svc.Receive(context.Background(), receiveInput(medID, nodeID))
	if err != nil {
		t.Fatalf("receive: %v", err)
	}

	res, err := svc.VerifyBatch(context.Background(), batch.ID)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !res.Consistent {
		t.Fatalf("remaining %d vs ledger %d, want consistent", res.Remaining, res.LedgerSum)
	}

	// Drift the stored value without a matching ledger entry.
	batch.RemainingQuantity -= 7

	res, err = svc.VerifyBatch(context.Background(), batch.ID)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if res.Consistent {
		t.Fatal("drifted batch must be reported inconsistent")
	}
	if res.Remaining != 113 || res.LedgerSum != 120 {
		t.Errorf("result = %d/%d, want 113/120", res.Remaining, res.LedgerSum)
	}
}

func TestListMovements_InvalidTypeRejected(t *testing.T) {
	svc := newService(stocktest.NewBatchRepo(), stocktest.NewMovementRepo())

	bad := stock.MovementType("THEFT")
	_, err := svc.ListMovements(context.Background(), stock.MovementFilter{Type: &bad})
	if appErr, ok := apperror.AsAppError(err); !ok || appErr.Code != apperror.CodeValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestMovementAppend_EnforcesSignConvention(t *testing.T) {
	medID, nodeID := id.New(), id.New()
	movements := stocktest.NewMovementRepo()

	batch := stock.NewBatch(medID, nodeID, "L-001", time.Now().UTC().AddDate(1, 0, 0), 50, types.MustMoney("1.00"))

	cases := []struct {
		name  string
		mType stock.MovementType
		qty   types.Quantity
		valid bool
	}{
		{"purchase positive", stock.MovementPurchase, 10, true},
		{"purchase negative", stock.MovementPurchase, -10, false},
		{"dispensing negative", stock.MovementDispensing, -10, true},
		{"dispensing positive", stock.MovementDispensing, 10, false},
		{"transfer out positive", stock.MovementTransferOut, 10, false},
		{"transfer in negative", stock.MovementTransferIn, -10, false},
		{"adjustment negative", stock.MovementAdjustment, -10, true},
		{"adjustment positive", stock.MovementAdjustment, 10, true},
		{"zero quantity", stock.MovementAdjustment, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mv := stock.NewMovement(batch, tc.mType, tc.qty, "tester", "ref")
			err := movements.Append(context.Background(), mv)
			if tc.valid && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.valid {
				if appErr, ok := apperror.AsAppError(err); !ok || appErr.Code != apperror.CodeValidation {
					t.Fatalf("err = %v, want validation error", err)
				}
			}
		})
	}
}
