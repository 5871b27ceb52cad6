package stock

import (
	"context"
	"time"

	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain"
)

// BatchFilter filters batch listings.
type BatchFilter struct {
	MedicineID *id.ID
	NodeID     *id.ID

	// OnlyAvailable keeps batches with remaining stock that are not expired
	OnlyAvailable bool

	// ExpiringBefore keeps batches expiring before the given time
	ExpiringBefore *time.Time

	Limit  int
	Offset int
}

// MovementFilter filters ledger reads. Results are always ordered
// chronologically (occurred_at, then line_id for same-instant entries).
type MovementFilter struct {
	MedicineID *id.ID
	NodeID     *id.ID
	BatchID    *id.ID
	Type       *MovementType

	From *time.Time
	To   *time.Time

	Reference string

	Limit  int
	Offset int
}

// ReconciliationFilter filters reconciliation history reads.
type ReconciliationFilter struct {
	MedicineID *id.ID
	NodeID     *id.ID

	// OnlyVariance keeps records with nonzero variance
	OnlyVariance bool

	From *time.Time
	To   *time.Time

	Limit  int
	Offset int
}

// BatchRepository is the batch store contract.
// Mutating methods must be called inside a transaction.
type BatchRepository interface {
	// Create inserts a new batch. Fails with DUPLICATE_ENTRY when a batch
	// with the same (medicine, node, batch number) already exists.
	Create(ctx context.Context, b *Batch) error

	// CreateIfAbsent inserts the batch unless one with the same
	// (medicine, node, batch number) already exists. Reports whether the
	// row was inserted; a lost race is not an error, so the surrounding
	// transaction stays usable.
	CreateIfAbsent(ctx context.Context, b *Batch) (bool, error)

	// GetByID retrieves a batch
	GetByID(ctx context.Context, batchID id.ID) (*Batch, error)

	// GetByNumber retrieves a batch by its number within (medicine, node)
	GetByNumber(ctx context.Context, medicineID, nodeID id.ID, batchNumber string) (*Batch, error)

	// GetByNumberForUpdate is GetByNumber with a row lock
	GetByNumberForUpdate(ctx context.Context, medicineID, nodeID id.ID, batchNumber string) (*Batch, error)

	// ListAvailable returns batches with remaining stock for (medicine, node),
	// not expired at the given time, ordered by expiry date ascending then
	// batch id (FEFO order). With forUpdate the rows are locked for the
	// duration of the surrounding transaction.
	ListAvailable(ctx context.Context, medicineID, nodeID id.ID, at time.Time, forUpdate bool) ([]*Batch, error)

	// GetForUpdate retrieves a batch with a row lock
	GetForUpdate(ctx context.Context, batchID id.ID) (*Batch, error)

	// Decrement atomically reduces remaining quantity. Fails with
	// INSUFFICIENT_STOCK when the batch holds fewer than qty units, so
	// remaining can never go negative even under concurrent writers.
	Decrement(ctx context.Context, batchID id.ID, qty types.Quantity) error

	// Increment adds units to a batch (positive adjustments only)
	Increment(ctx context.Context, batchID id.ID, qty types.Quantity) error

	// SumRemaining returns the total remaining units for (medicine, node)
	SumRemaining(ctx context.Context, medicineID, nodeID id.ID) (types.Quantity, error)

	// List returns batches matching the filter, FEFO ordered
	List(ctx context.Context, f BatchFilter) (domain.ListResult[*Batch], error)
}

// MovementRepository is the append-only ledger contract.
type MovementRepository interface {
	// Append records ledger entries. Every entry is validated against the
	// sign convention for its type before it is written; entries are
	// immutable once written.
	Append(ctx context.Context, movements ...*Movement) error

	// List returns movements matching the filter, chronologically ordered
	List(ctx context.Context, f MovementFilter) (domain.ListResult[*Movement], error)

	// SumForBatch returns the signed sum of all movements for a batch
	SumForBatch(ctx context.Context, batchID id.ID) (types.Quantity, error)

	// Iterate streams movements matching the filter to fn in chronological
	// order. Used by the ledger export; stops on the first error from fn.
	Iterate(ctx context.Context, f MovementFilter, fn func(*Movement) error) error
}

// ReconciliationRepository persists reconciliation records.
type ReconciliationRepository interface {
	// Create inserts a reconciliation record
	Create(ctx context.Context, r *ReconciliationRecord) error

	// GetByID retrieves a record
	GetByID(ctx context.Context, recordID id.ID) (*ReconciliationRecord, error)

	// List returns records matching the filter, newest first
	List(ctx context.Context, f ReconciliationFilter) (domain.ListResult[*ReconciliationRecord], error)
}
