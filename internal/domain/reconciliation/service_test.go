package reconciliation_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain/reconciliation"
	"pharmstock/internal/domain/stock"
	"pharmstock/internal/domain/stock/stocktest"
	"pharmstock/pkg/numerator"
)

type seqRow struct{ val int64 }

func (r seqRow) Scan(dest ...any) error {
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = r.val
		}
	}
	return nil
}

type seqQuerier struct{ val int64 }

func (q *seqQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.val++
	return seqRow{val: q.val}
}

func newService(batches *stocktest.BatchRepo, movements *stocktest.MovementRepo, recons *stocktest.ReconRepo) *reconciliation.Service {
	return reconciliation.NewService(batches, movements, recons, numerator.New(&seqQuerier{}), stocktest.TxManager{})
}

func addBatch(r *stocktest.BatchRepo, medID, nodeID id.ID, number string, qty int64) *stock.Batch {
	b := stock.NewBatch(medID, nodeID, number, time.Now().UTC().AddDate(1, 0, 0), types.Quantity(qty), types.MustMoney("1.00"))
	r.Add(b)
	return b
}

func TestReconcile_ShortageAdjustsLargestBatch(t *testing.T) {
	medID, nodeID := id.New(), id.New()
	batches := stocktest.NewBatchRepo()
	movements := stocktest.NewMovementRepo()
	recons := stocktest.NewReconRepo()

	big := addBatch(batches, medID, nodeID, "L-001", 40)
	small := addBatch(batches, medID, nodeID, "L-002", 25)

	svc := newService(batches, movements, recons)

	// Counted 60 against a ledger total of 65.
	rec, err := svc.Reconcile(context.Background(), reconciliation.Input{
		MedicineID:       medID,
		NodeID:           nodeID,
		PhysicalQuantity: 60,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.LogicalQuantity != 65 || rec.PhysicalQuantity != 60 {
		t.Errorf("record quantities = %d/%d, want 65/60", rec.LogicalQuantity, rec.PhysicalQuantity)
	}
	if rec.Variance != -5 {
		t.Errorf("variance = %d, want -5", rec.Variance)
	}
	if rec.AdjustmentLineID == nil {
		t.Fatal("nonzero variance must reference an adjustment movement")
	}

	if big.RemainingQuantity != 35 {
		t.Errorf("largest batch remaining = %d, want 35", big.RemainingQuantity)
	}
	if small.RemainingQuantity != 25 {
		t.Errorf("other batch remaining = %d, must be untouched", small.RemainingQuantity)
	}

	if len(movements.Movements) != 1 {
		t.Fatalf("movements = %d, want exactly one ADJUSTMENT", len(movements.Movements))
	}
	mv := movements.Movements[0]
	if mv.Type != stock.MovementAdjustment || mv.Quantity != -5 {
		t.Errorf("movement = %s/%d, want ADJUSTMENT/-5", mv.Type, mv.Quantity)
	}
	if mv.LineID != *rec.AdjustmentLineID {
		t.Error("record must reference the adjustment movement line")
	}
	if mv.Reference != rec.ID.String() {
		t.Error("adjustment movement must reference the reconciliation record")
	}
}

func TestReconcile_ZeroVarianceStillRecorded(t *testing.T) {
	medID, nodeID := id.New(), id.New()
	batches := stocktest.NewBatchRepo()
	movements := stocktest.NewMovementRepo()
	recons := stocktest.NewReconRepo()

	addBatch(batches, medID, nodeID, "L-001", 50)

	svc := newService(batches, movements, recons)

	rec, err := svc.Reconcile(context.Background(), reconciliation.Input{
		MedicineID:       medID,
		NodeID:           nodeID,
		PhysicalQuantity: 50,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.HasVariance() {
		t.Errorf("variance = %d, want 0", rec.Variance)
	}
	if rec.AdjustmentLineID != nil {
		t.Error("zero variance must not produce an adjustment movement")
	}
	if len(movements.Movements) != 0 {
		t.Errorf("movements = %d, want 0", len(movements.Movements))
	}
	if len(recons.Records) != 1 {
		t.Fatal("every reconciliation must leave a record")
	}
	if recons.Records[0].Number == "" {
		t.Error("record must carry an audit number")
	}
}

func TestReconcile_SurplusGoesToAdjustmentBatch(t *testing.T) {
	medID, nodeID := id.New(), id.New()
	batches := stocktest.NewBatchRepo()
	movements := stocktest.NewMovementRepo()
	recons := stocktest.NewReconRepo()

	addBatch(batches, medID, nodeID, "L-001", 30)

	svc := newService(batches, movements, recons)

	rec, err := svc.Reconcile(context.Background(), reconciliation.Input{
		MedicineID:       medID,
		NodeID:           nodeID,
		PhysicalQuantity: 38,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Variance != 8 {
		t.Errorf("variance = %d, want 8", rec.Variance)
	}

	adj, err := batches.GetByNumber(context.Background(), medID, nodeID, stock.AdjustmentBatchNumber)
	if err != nil {
		t.Fatal("surplus must create the designated adjustment batch")
	}
	if adj.RemainingQuantity != 8 {
		t.Errorf("adjustment batch remaining = %d, want 8", adj.RemainingQuantity)
	}
	if adj.InitialQuantity != 0 {
		t.Errorf("adjustment batch initial = %d, want 0", adj.InitialQuantity)
	}

	if len(movements.Movements) != 1 || movements.Movements[0].Quantity != 8 {
		t.Fatal("want exactly one ADJUSTMENT movement of +8")
	}

	// Second surplus reuses the same batch.
	_, err = svc.Reconcile(context.Background(), reconciliation.Input{
		MedicineID:       medID,
		NodeID:           nodeID,
		PhysicalQuantity: 40,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	adj2, _ := batches.GetByNumber(context.Background(), medID, nodeID, stock.AdjustmentBatchNumber)
	if adj2.ID != adj.ID {
		t.Error("surplus must reuse the existing adjustment batch")
	}
}

// staleBatchRepo misses the first adjustment batch lookup, the way a
// concurrent count that inserted the batch in between would make it miss.
type staleBatchRepo struct {
	*stocktest.BatchRepo
	missed bool
}

func (r *staleBatchRepo) GetByNumberForUpdate(ctx context.Context, medID, nodeID id.ID, number string) (*stock.Batch, error) {
	if !r.missed && number == stock.AdjustmentBatchNumber {
		r.missed = true
		return nil, apperror.NewNotFound("batch", number)
	}
	return r.BatchRepo.GetByNumberForUpdate(ctx, medID, nodeID, number)
}

func TestReconcile_SurplusSurvivesAdjustmentBatchRace(t *testing.T) {
	medID, nodeID := id.New(), id.New()
	inner := stocktest.NewBatchRepo()
	movements := stocktest.NewMovementRepo()
	recons := stocktest.NewReconRepo()

	addBatch(inner, medID, nodeID, "L-001", 30)
	existing := stock.NewAdjustmentBatch(medID, nodeID)
	existing.RemainingQuantity = 3
	inner.Add(existing)

	batches := &staleBatchRepo{BatchRepo: inner}
	svc := reconciliation.NewService(batches, movements, recons, numerator.New(&seqQuerier{}), stocktest.TxManager{})

	// Lookup misses, insert collides with the existing row, and the
	// surplus must still land on it.
	rec, err := svc.Reconcile(context.Background(), reconciliation.Input{
		MedicineID:       medID,
		NodeID:           nodeID,
		PhysicalQuantity: 41,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Variance != 8 {
		t.Errorf("variance = %d, want 8", rec.Variance)
	}

	if existing.RemainingQuantity != 11 {
		t.Errorf("adjustment batch remaining = %d, want 11", existing.RemainingQuantity)
	}
	adjCount := 0
	for _, b := range inner.Batches {
		if b.BatchNumber == stock.AdjustmentBatchNumber {
			adjCount++
		}
	}
	if adjCount != 1 {
		t.Errorf("adjustment batches = %d, want 1", adjCount)
	}
}

func TestReconcile_ShortageExceedingAnyBatchRejected(t *testing.T) {
	medID, nodeID := id.New(), id.New()
	batches := stocktest.NewBatchRepo()
	movements := stocktest.NewMovementRepo()
	recons := stocktest.NewReconRepo()

	addBatch(batches, medID, nodeID, "L-001", 10)
	addBatch(batches, medID, nodeID, "L-002", 10)

	svc := newService(batches, movements, recons)

	// Shortage of 15 cannot come off a single 10-unit batch.
	_, err := svc.Reconcile(context.Background(), reconciliation.Input{
		MedicineID:       medID,
		NodeID:           nodeID,
		PhysicalQuantity: 5,
	})
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != "VARIANCE_EXCEEDS_BATCH" {
		t.Fatalf("err = %v, want VARIANCE_EXCEEDS_BATCH", err)
	}
	if len(movements.Movements) != 0 {
		t.Error("rejected reconciliation must not write to ledger")
	}
}

func TestReconcile_NegativePhysicalRejected(t *testing.T) {
	svc := newService(stocktest.NewBatchRepo(), stocktest.NewMovementRepo(), stocktest.NewReconRepo())

	_, err := svc.Reconcile(context.Background(), reconciliation.Input{
		MedicineID:       id.New(),
		NodeID:           id.New(),
		PhysicalQuantity: -1,
	})
	if appErr, ok := apperror.AsAppError(err); !ok || appErr.Code != apperror.CodeValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
}
