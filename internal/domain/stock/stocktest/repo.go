// Package stocktest provides in-memory repository implementations for
// service tests.
package stocktest

import (
	"context"
	"sort"
	"time"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain"
	"pharmstock/internal/domain/stock"
)

var (
	_ stock.BatchRepository          = (*BatchRepo)(nil)
	_ stock.MovementRepository       = (*MovementRepo)(nil)
	_ stock.ReconciliationRepository = (*ReconRepo)(nil)
)

// TxManager runs the function directly; tests exercise business logic,
// not transaction plumbing.
type TxManager struct{}

func (TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// BatchRepo is an in-memory stock.BatchRepository.
type BatchRepo struct {
	Batches map[id.ID]*stock.Batch
}

// NewBatchRepo creates an empty in-memory batch repository.
func NewBatchRepo() *BatchRepo {
	return &BatchRepo{Batches: make(map[id.ID]*stock.Batch)}
}

// Add stores a batch directly (test setup).
func (r *BatchRepo) Add(b *stock.Batch) {
	r.Batches[b.ID] = b
}

func (r *BatchRepo) Create(ctx context.Context, b *stock.Batch) error {
	for _, existing := range r.Batches {
		if existing.MedicineID == b.MedicineID && existing.NodeID == b.NodeID && existing.BatchNumber == b.BatchNumber {
			return apperror.NewDuplicate("batch", "batch_number", b.BatchNumber)
		}
	}
	r.Batches[b.ID] = b
	return nil
}

func (r *BatchRepo) CreateIfAbsent(ctx context.Context, b *stock.Batch) (bool, error) {
	err := r.Create(ctx, b)
	if apperror.IsDuplicate(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *BatchRepo) GetByID(ctx context.Context, batchID id.ID) (*stock.Batch, error) {
	b, ok := r.Batches[batchID]
	if !ok {
		return nil, apperror.NewNotFound("batch", batchID.String())
	}
	return b, nil
}

func (r *BatchRepo) GetByNumber(ctx context.Context, medicineID, nodeID id.ID, batchNumber string) (*stock.Batch, error) {
	for _, b := range r.Batches {
		if b.MedicineID == medicineID && b.NodeID == nodeID && b.BatchNumber == batchNumber {
			return b, nil
		}
	}
	return nil, apperror.NewNotFound("batch", batchNumber)
}

func (r *BatchRepo) GetByNumberForUpdate(ctx context.Context, medicineID, nodeID id.ID, batchNumber string) (*stock.Batch, error) {
	return r.GetByNumber(ctx, medicineID, nodeID, batchNumber)
}

func (r *BatchRepo) ListAvailable(ctx context.Context, medicineID, nodeID id.ID, at time.Time, forUpdate bool) ([]*stock.Batch, error) {
	var out []*stock.Batch
	for _, b := range r.Batches {
		if b.MedicineID != medicineID || b.NodeID != nodeID {
			continue
		}
		if !b.HasStock() {
			continue
		}
		if !at.IsZero() && b.IsExpired(at) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ExpiryDate.Equal(out[j].ExpiryDate) {
			return out[i].ExpiryDate.Before(out[j].ExpiryDate)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *BatchRepo) GetForUpdate(ctx context.Context, batchID id.ID) (*stock.Batch, error) {
	return r.GetByID(ctx, batchID)
}

func (r *BatchRepo) Decrement(ctx context.Context, batchID id.ID, qty types.Quantity) error {
	b, ok := r.Batches[batchID]
	if !ok {
		return apperror.NewNotFound("batch", batchID.String())
	}
	if b.RemainingQuantity < qty {
		return apperror.NewBatchInsufficientStock(batchID.String(), qty.Int64(), b.RemainingQuantity.Int64())
	}
	b.RemainingQuantity -= qty
	return nil
}

func (r *BatchRepo) Increment(ctx context.Context, batchID id.ID, qty types.Quantity) error {
	b, ok := r.Batches[batchID]
	if !ok {
		return apperror.NewNotFound("batch", batchID.String())
	}
	b.RemainingQuantity += qty
	return nil
}

func (r *BatchRepo) SumRemaining(ctx context.Context, medicineID, nodeID id.ID) (types.Quantity, error) {
	var sum types.Quantity
	for _, b := range r.Batches {
		if b.MedicineID == medicineID && b.NodeID == nodeID {
			sum += b.RemainingQuantity
		}
	}
	return sum, nil
}

func (r *BatchRepo) List(ctx context.Context, f stock.BatchFilter) (domain.ListResult[*stock.Batch], error) {
	var out []*stock.Batch
	for _, b := range r.Batches {
		if f.MedicineID != nil && b.MedicineID != *f.MedicineID {
			continue
		}
		if f.NodeID != nil && b.NodeID != *f.NodeID {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ExpiryDate.Before(out[j].ExpiryDate)
	})
	return domain.ListResult[*stock.Batch]{Items: out, TotalCount: int64(len(out))}, nil
}

// MovementRepo is an in-memory stock.MovementRepository.
type MovementRepo struct {
	Movements []*stock.Movement
}

// NewMovementRepo creates an empty in-memory movement repository.
func NewMovementRepo() *MovementRepo {
	return &MovementRepo{}
}

func (r *MovementRepo) Append(ctx context.Context, movements ...*stock.Movement) error {
	for _, m := range movements {
		if err := m.Validate(ctx); err != nil {
			return err
		}
	}
	r.Movements = append(r.Movements, movements...)
	return nil
}

func (r *MovementRepo) List(ctx context.Context, f stock.MovementFilter) (domain.ListResult[*stock.Movement], error) {
	var out []*stock.Movement
	for _, m := range r.Movements {
		if f.BatchID != nil && m.BatchID != *f.BatchID {
			continue
		}
		if f.MedicineID != nil && m.MedicineID != *f.MedicineID {
			continue
		}
		if f.NodeID != nil && m.NodeID != *f.NodeID {
			continue
		}
		if f.Type != nil && m.Type != *f.Type {
			continue
		}
		out = append(out, m)
	}
	return domain.ListResult[*stock.Movement]{Items: out, TotalCount: int64(len(out))}, nil
}

func (r *MovementRepo) SumForBatch(ctx context.Context, batchID id.ID) (types.Quantity, error) {
	var sum types.Quantity
	for _, m := range r.Movements {
		if m.BatchID == batchID {
			sum += m.Quantity
		}
	}
	return sum, nil
}

func (r *MovementRepo) Iterate(ctx context.Context, f stock.MovementFilter, fn func(*stock.Movement) error) error {
	res, _ := r.List(ctx, f)
	for _, m := range res.Items {
		if err := fn(m); err != nil {
			return err
		}
	}
	return nil
}

// ForBatch returns all recorded movements for a batch.
func (r *MovementRepo) ForBatch(batchID id.ID) []*stock.Movement {
	var out []*stock.Movement
	for _, m := range r.Movements {
		if m.BatchID == batchID {
			out = append(out, m)
		}
	}
	return out
}

// ReconRepo is an in-memory stock.ReconciliationRepository.
type ReconRepo struct {
	Records []*stock.ReconciliationRecord
}

// NewReconRepo creates an empty in-memory reconciliation repository.
func NewReconRepo() *ReconRepo {
	return &ReconRepo{}
}

func (r *ReconRepo) Create(ctx context.Context, rec *stock.ReconciliationRecord) error {
	r.Records = append(r.Records, rec)
	return nil
}

func (r *ReconRepo) GetByID(ctx context.Context, recordID id.ID) (*stock.ReconciliationRecord, error) {
	for _, rec := range r.Records {
		if rec.ID == recordID {
			return rec, nil
		}
	}
	return nil, apperror.NewNotFound("reconciliation", recordID.String())
}

func (r *ReconRepo) List(ctx context.Context, f stock.ReconciliationFilter) (domain.ListResult[*stock.ReconciliationRecord], error) {
	var out []*stock.ReconciliationRecord
	for _, rec := range r.Records {
		if f.MedicineID != nil && rec.MedicineID != *f.MedicineID {
			continue
		}
		if f.NodeID != nil && rec.NodeID != *f.NodeID {
			continue
		}
		if f.OnlyVariance && !rec.HasVariance() {
			continue
		}
		out = append(out, rec)
	}
	return domain.ListResult[*stock.ReconciliationRecord]{Items: out, TotalCount: int64(len(out))}, nil
}
