// Package stock_repo provides PostgreSQL implementations of the batch
// store, the movement ledger, and the reconciliation archive.
package stock_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain"
	"pharmstock/internal/domain/stock"
	"pharmstock/internal/infrastructure/storage/postgres"
)

const batchTable = "sto_batches"

// Compile-time check.
var _ stock.BatchRepository = (*BatchRepo)(nil)

// BatchRepo implements stock.BatchRepository.
type BatchRepo struct {
	txManager  *postgres.TxManager
	selectCols []string
}

// NewBatchRepo creates a new batch repository.
func NewBatchRepo(txManager *postgres.TxManager) *BatchRepo {
	return &BatchRepo{
		txManager:  txManager,
		selectCols: postgres.ExtractDBColumns[stock.Batch](),
	}
}

func (r *BatchRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BatchRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().
		Select(r.selectCols...).
		From(batchTable)
}

func (r *BatchRepo) insertQuery(b *stock.Batch) squirrel.InsertBuilder {
	data := postgres.StructToMap(b)

	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	return r.builder().
		Insert(batchTable).
		SetMap(filtered)
}

// Create inserts a new batch.
func (r *BatchRepo) Create(ctx context.Context, b *stock.Batch) error {
	sql, args, err := r.insertQuery(b).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	_, err = r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewDuplicate("batch", "batch_number", b.BatchNumber).WithCause(err)
		}
		return fmt.Errorf("insert batch: %w", err)
	}

	return nil
}

// CreateIfAbsent inserts the batch unless the (medicine, node, batch_number)
// row already exists. ON CONFLICT DO NOTHING keeps a lost insert race from
// aborting the surrounding transaction.
func (r *BatchRepo) CreateIfAbsent(ctx context.Context, b *stock.Batch) (bool, error) {
	q := r.insertQuery(b).
		Suffix("ON CONFLICT (medicine_id, node_id, batch_number) DO NOTHING")

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("insert batch: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetByID retrieves a batch by ID.
func (r *BatchRepo) GetByID(ctx context.Context, batchID id.ID) (*stock.Batch, error) {
	return r.getOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": batchID}).Limit(1), batchID.String())
}

// GetByNumber retrieves a batch by its number within (medicine, node).
func (r *BatchRepo) GetByNumber(ctx context.Context, medicineID, nodeID id.ID, batchNumber string) (*stock.Batch, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{
			"medicine_id":  medicineID,
			"node_id":      nodeID,
			"batch_number": batchNumber,
		}).
		Limit(1)

	return r.getOne(ctx, q, batchNumber)
}

// GetByNumberForUpdate is GetByNumber with a row lock.
func (r *BatchRepo) GetByNumberForUpdate(ctx context.Context, medicineID, nodeID id.ID, batchNumber string) (*stock.Batch, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{
			"medicine_id":  medicineID,
			"node_id":      nodeID,
			"batch_number": batchNumber,
		}).
		Suffix("FOR UPDATE").
		Limit(1)

	return r.getOne(ctx, q, batchNumber)
}

// GetForUpdate retrieves a batch with a row lock.
func (r *BatchRepo) GetForUpdate(ctx context.Context, batchID id.ID) (*stock.Batch, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": batchID}).
		Suffix("FOR UPDATE")

	return r.getOne(ctx, q, batchID.String())
}

func (r *BatchRepo) getOne(ctx context.Context, q squirrel.SelectBuilder, key string) (*stock.Batch, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	b := &stock.Batch{}
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("batch", key)
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return b, nil
}

// ListAvailable returns dispensable batches in FEFO order. A zero cutoff
// time skips the expiry check. With forUpdate the rows stay locked until
// the surrounding transaction ends.
func (r *BatchRepo) ListAvailable(ctx context.Context, medicineID, nodeID id.ID, at time.Time, forUpdate bool) ([]*stock.Batch, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{
			"medicine_id": medicineID,
			"node_id":     nodeID,
		}).
		Where(squirrel.Gt{"remaining_quantity": 0}).
		OrderBy("expiry_date ASC", "id ASC")

	if !at.IsZero() {
		q = q.Where(squirrel.Gt{"expiry_date": at})
	}
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*stock.Batch
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list available: %w", err)
	}
	return items, nil
}

// Decrement atomically reduces remaining quantity. The WHERE clause keeps
// remaining from ever going negative, concurrent writers lose the race
// instead of corrupting stock.
func (r *BatchRepo) Decrement(ctx context.Context, batchID id.ID, qty types.Quantity) error {
	q := r.builder().
		Update(batchTable).
		Set("remaining_quantity", squirrel.Expr("remaining_quantity - ?", qty)).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": batchID}).
		Where(squirrel.GtOrEq{"remaining_quantity": qty})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build decrement: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("decrement batch: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Either the batch is gone or it holds fewer than qty units.
		current, getErr := r.GetByID(ctx, batchID)
		if getErr != nil {
			return getErr
		}
		return apperror.NewBatchInsufficientStock(batchID.String(), qty.Int64(), current.RemainingQuantity.Int64())
	}

	return nil
}

// Increment adds units to a batch.
func (r *BatchRepo) Increment(ctx context.Context, batchID id.ID, qty types.Quantity) error {
	q := r.builder().
		Update(batchTable).
		Set("remaining_quantity", squirrel.Expr("remaining_quantity + ?", qty)).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": batchID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build increment: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("increment batch: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("batch", batchID.String())
	}

	return nil
}

// SumRemaining returns total remaining units for (medicine, node).
func (r *BatchRepo) SumRemaining(ctx context.Context, medicineID, nodeID id.ID) (types.Quantity, error) {
	q := r.builder().
		Select("COALESCE(SUM(remaining_quantity), 0)").
		From(batchTable).
		Where(squirrel.Eq{
			"medicine_id": medicineID,
			"node_id":     nodeID,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var sum int64
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum remaining: %w", err)
	}
	return types.Quantity(sum), nil
}

// List returns batches matching the filter in FEFO order.
func (r *BatchRepo) List(ctx context.Context, f stock.BatchFilter) (domain.ListResult[*stock.Batch], error) {
	result := domain.ListResult[*stock.Batch]{
		Limit:  f.Limit,
		Offset: f.Offset,
	}

	q := r.baseSelect()

	if f.MedicineID != nil {
		q = q.Where(squirrel.Eq{"medicine_id": *f.MedicineID})
	}
	if f.NodeID != nil {
		q = q.Where(squirrel.Eq{"node_id": *f.NodeID})
	}
	if f.OnlyAvailable {
		q = q.Where(squirrel.Gt{"remaining_quantity": 0}).
			Where(squirrel.Gt{"expiry_date": time.Now().UTC()})
	}
	if f.ExpiringBefore != nil {
		q = q.Where(squirrel.Lt{"expiry_date": *f.ExpiringBefore})
	}

	countQ := r.builder().
		Select("COUNT(*)").
		FromSelect(q, "sub")

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	q = q.OrderBy("expiry_date ASC", "id ASC")
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list batches: %w", err)
	}

	return result, nil
}
