package allocation

import (
	"testing"
	"time"

	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain/stock"
)

func makeBatch(number string, expiryDays int, remaining int64) *stock.Batch {
	b := stock.NewBatch(
		id.New(), id.New(), number,
		time.Now().UTC().AddDate(0, 0, expiryDays),
		types.Quantity(remaining),
		types.MustMoney("1.50"),
	)
	return b
}

func TestBuildPlan_DrawsEarliestExpiryFirst(t *testing.T) {
	// 20 units expiring sooner, 100 units expiring later.
	early := makeBatch("L-001", 30, 20)
	late := makeBatch("L-002", 180, 100)

	plan := BuildPlan(25, []*stock.Batch{early, late})

	if !plan.IsComplete() {
		t.Fatalf("expected complete plan, shortfall %d", plan.Shortfall)
	}
	if plan.Fulfilled != 25 {
		t.Errorf("fulfilled = %d, want 25", plan.Fulfilled)
	}
	if len(plan.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(plan.Lines))
	}
	if plan.Lines[0].BatchID != early.ID || plan.Lines[0].Quantity != 20 {
		t.Errorf("line 0 = %s/%d, want early batch drained (20)", plan.Lines[0].BatchNumber, plan.Lines[0].Quantity)
	}
	if plan.Lines[1].BatchID != late.ID || plan.Lines[1].Quantity != 5 {
		t.Errorf("line 1 = %s/%d, want 5 from later batch", plan.Lines[1].BatchNumber, plan.Lines[1].Quantity)
	}
}

func TestBuildPlan_ShortfallReported(t *testing.T) {
	// Only 65 units on hand for a 200 unit request.
	b1 := makeBatch("L-001", 30, 40)
	b2 := makeBatch("L-002", 90, 25)

	plan := BuildPlan(200, []*stock.Batch{b1, b2})

	if plan.IsComplete() {
		t.Fatal("expected incomplete plan")
	}
	if plan.Fulfilled != 65 {
		t.Errorf("fulfilled = %d, want 65", plan.Fulfilled)
	}
	if plan.Shortfall != 135 {
		t.Errorf("shortfall = %d, want 135", plan.Shortfall)
	}
	if plan.Fulfilled+plan.Shortfall != plan.Requested {
		t.Errorf("fulfilled+shortfall = %d, want requested %d", plan.Fulfilled+plan.Shortfall, plan.Requested)
	}
}

func TestBuildPlan_SkipsEmptyBatches(t *testing.T) {
	empty := makeBatch("L-000", 10, 0)
	full := makeBatch("L-001", 60, 50)

	plan := BuildPlan(10, []*stock.Batch{empty, full})

	if len(plan.Lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(plan.Lines))
	}
	if plan.Lines[0].BatchID != full.ID {
		t.Error("expected draw from the non-empty batch")
	}
}

func TestBuildPlan_ExactFit(t *testing.T) {
	b := makeBatch("L-001", 30, 30)

	plan := BuildPlan(30, []*stock.Batch{b})

	if !plan.IsComplete() || plan.Fulfilled != 30 {
		t.Errorf("fulfilled = %d shortfall = %d, want exact fit", plan.Fulfilled, plan.Shortfall)
	}
}

func TestBuildPlan_DoesNotMutateBatches(t *testing.T) {
	b := makeBatch("L-001", 30, 40)

	_ = BuildPlan(15, []*stock.Batch{b})

	if b.RemainingQuantity != 40 {
		t.Errorf("remaining = %d, plan must not mutate batches", b.RemainingQuantity)
	}
}
