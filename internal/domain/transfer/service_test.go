package transfer_test

import (
	"context"
	"testing"
	"time"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain/stock"
	"pharmstock/internal/domain/stock/stocktest"
	"pharmstock/internal/domain/transfer"
)

func TestTransfer_MovesStockBetweenNodes(t *testing.T) {
	medID := id.New()
	warehouse, clinic := id.New(), id.New()

	batches := stocktest.NewBatchRepo()
	movements := stocktest.NewMovementRepo()

	src := stock.NewBatch(medID, warehouse, "L-100", time.Now().UTC().AddDate(1, 0, 0), 80, types.MustMoney("3.25"))
	batches.Add(src)

	svc := transfer.NewService(batches, movements, stocktest.TxManager{})

	res, err := svc.Transfer(context.Background(), transfer.Input{
		BatchID:  src.ID,
		ToNodeID: clinic,
		Quantity: 30,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if src.RemainingQuantity != 50 {
		t.Errorf("source remaining = %d, want 50", src.RemainingQuantity)
	}

	dest := res.DestBatch
	if dest.NodeID != clinic {
		t.Errorf("dest node = %s, want clinic", dest.NodeID)
	}
	if dest.RemainingQuantity != 30 || dest.InitialQuantity != 30 {
		t.Errorf("dest quantities = %d/%d, want 30/30", dest.InitialQuantity, dest.RemainingQuantity)
	}
	if dest.BatchNumber != src.BatchNumber {
		t.Errorf("dest batch number = %q, lot identity must carry over", dest.BatchNumber)
	}
	if !dest.ExpiryDate.Equal(src.ExpiryDate) {
		t.Error("dest expiry must carry over")
	}
	if !dest.UnitCost.Equal(src.UnitCost) {
		t.Error("dest unit cost must carry over")
	}

	// Conservation: total units across both nodes unchanged.
	total := src.RemainingQuantity + dest.RemainingQuantity
	if total != 80 {
		t.Errorf("total after transfer = %d, want 80", total)
	}

	if len(movements.Movements) != 2 {
		t.Fatalf("movements = %d, want paired TRANSFER_OUT/TRANSFER_IN", len(movements.Movements))
	}
	out, in := movements.Movements[0], movements.Movements[1]
	if out.Type != stock.MovementTransferOut || out.Quantity != -30 {
		t.Errorf("out movement = %s/%d, want TRANSFER_OUT/-30", out.Type, out.Quantity)
	}
	if in.Type != stock.MovementTransferIn || in.Quantity != 30 {
		t.Errorf("in movement = %s/%d, want TRANSFER_IN/30", in.Type, in.Quantity)
	}
	if out.Quantity+in.Quantity != 0 {
		t.Error("paired transfer movements must sum to zero")
	}
	if out.Reference != in.Reference || out.Reference == "" {
		t.Error("paired movements must share a reference")
	}
	if out.CounterNodeID == nil || *out.CounterNodeID != clinic {
		t.Error("out movement must reference destination node")
	}
	if in.CounterNodeID == nil || *in.CounterNodeID != warehouse {
		t.Error("in movement must reference source node")
	}
}

func TestTransfer_RepeatTransferIncrementsDestination(t *testing.T) {
	medID := id.New()
	warehouse, clinic := id.New(), id.New()

	batches := stocktest.NewBatchRepo()
	movements := stocktest.NewMovementRepo()

	src := stock.NewBatch(medID, warehouse, "L-100", time.Now().UTC().AddDate(1, 0, 0), 50, types.MustMoney("3.25"))
	batches.Add(src)

	svc := transfer.NewService(batches, movements, stocktest.TxManager{})

	first, err := svc.Transfer(context.Background(), transfer.Input{
		BatchID:  src.ID,
		ToNodeID: clinic,
		Quantity: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := svc.Transfer(context.Background(), transfer.Input{
		BatchID:  src.ID,
		ToNodeID: clinic,
		Quantity: 10,
	})
	if err != nil {
		t.Fatalf("repeat transfer of the same lot failed: %v", err)
	}

	if second.DestBatch.ID != first.DestBatch.ID {
		t.Error("repeat transfer must land on the existing destination batch")
	}
	if second.DestBatch.RemainingQuantity != 20 {
		t.Errorf("dest remaining = %d, want 20", second.DestBatch.RemainingQuantity)
	}
	if src.RemainingQuantity != 30 {
		t.Errorf("source remaining = %d, want 30", src.RemainingQuantity)
	}

	// The lot must exist exactly once at the destination.
	clinicBatches := 0
	for _, b := range batches.Batches {
		if b.NodeID == clinic && b.BatchNumber == "L-100" {
			clinicBatches++
		}
	}
	if clinicBatches != 1 {
		t.Errorf("destination batches for lot = %d, want 1", clinicBatches)
	}

	// Both TRANSFER_IN movements target that one batch, and the ledger
	// sum matches its remaining quantity.
	ins := 0
	for _, m := range movements.Movements {
		if m.Type != stock.MovementTransferIn {
			continue
		}
		ins++
		if m.BatchID != first.DestBatch.ID {
			t.Error("TRANSFER_IN must reference the destination batch")
		}
	}
	if ins != 2 {
		t.Errorf("TRANSFER_IN movements = %d, want 2", ins)
	}
	sum, _ := movements.SumForBatch(context.Background(), first.DestBatch.ID)
	if sum != 20 {
		t.Errorf("destination ledger sum = %d, want 20", sum)
	}
}

func TestTransfer_LandsOnBatchReceivedAtDestination(t *testing.T) {
	medID := id.New()
	warehouse, clinic := id.New(), id.New()
	expiry := time.Now().UTC().AddDate(1, 0, 0)

	batches := stocktest.NewBatchRepo()
	movements := stocktest.NewMovementRepo()

	src := stock.NewBatch(medID, warehouse, "L-100", expiry, 40, types.MustMoney("3.25"))
	existing := stock.NewBatch(medID, clinic, "L-100", expiry, 15, types.MustMoney("3.25"))
	batches.Add(src)
	batches.Add(existing)

	svc := transfer.NewService(batches, movements, stocktest.TxManager{})

	res, err := svc.Transfer(context.Background(), transfer.Input{
		BatchID:  src.ID,
		ToNodeID: clinic,
		Quantity: 10,
	})
	if err != nil {
		t.Fatalf("transfer into a node holding the lot failed: %v", err)
	}

	if res.DestBatch.ID != existing.ID {
		t.Error("transfer must increment the batch already holding the lot")
	}
	if existing.RemainingQuantity != 25 {
		t.Errorf("dest remaining = %d, want 25", existing.RemainingQuantity)
	}
}

func TestTransfer_InsufficientStock(t *testing.T) {
	medID := id.New()
	batches := stocktest.NewBatchRepo()
	movements := stocktest.NewMovementRepo()

	src := stock.NewBatch(medID, id.New(), "L-100", time.Now().UTC().AddDate(1, 0, 0), 10, types.MustMoney("1.00"))
	batches.Add(src)

	svc := transfer.NewService(batches, movements, stocktest.TxManager{})

	_, err := svc.Transfer(context.Background(), transfer.Input{
		BatchID:  src.ID,
		ToNodeID: id.New(),
		Quantity: 25,
	})
	if !apperror.IsInsufficientStock(err) {
		t.Fatalf("err = %v, want INSUFFICIENT_STOCK", err)
	}
	if src.RemainingQuantity != 10 {
		t.Errorf("remaining = %d, failed transfer must not change stock", src.RemainingQuantity)
	}
	if len(movements.Movements) != 0 {
		t.Errorf("movements = %d, failed transfer must not write to ledger", len(movements.Movements))
	}
}

func TestTransfer_SameNodeRejected(t *testing.T) {
	medID, nodeID := id.New(), id.New()
	batches := stocktest.NewBatchRepo()

	src := stock.NewBatch(medID, nodeID, "L-100", time.Now().UTC().AddDate(1, 0, 0), 10, types.MustMoney("1.00"))
	batches.Add(src)

	svc := transfer.NewService(batches, stocktest.NewMovementRepo(), stocktest.TxManager{})

	_, err := svc.Transfer(context.Background(), transfer.Input{
		BatchID:  src.ID,
		ToNodeID: nodeID,
		Quantity: 5,
	})
	if appErr, ok := apperror.AsAppError(err); !ok || appErr.Code != apperror.CodeValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestTransfer_UnknownBatch(t *testing.T) {
	svc := transfer.NewService(stocktest.NewBatchRepo(), stocktest.NewMovementRepo(), stocktest.TxManager{})

	_, err := svc.Transfer(context.Background(), transfer.Input{
		BatchID:  id.New(),
		ToNodeID: id.New(),
		Quantity: 5,
	})
	if !apperror.IsNotFound(err) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}
