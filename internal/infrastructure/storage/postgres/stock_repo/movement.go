package stock_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain"
	"pharmstock/internal/domain/stock"
	"pharmstock/internal/infrastructure/storage/postgres"
)

const movementTable = "sto_movements"

// copyThreshold is the entry count from which Append switches to the
// COPY protocol. Regular operations write one or two entries; bulk
// imports write hundreds.
const copyThreshold = 10

// Compile-time check.
var _ stock.MovementRepository = (*MovementRepo)(nil)

// MovementRepo implements stock.MovementRepository. The ledger is
// append-only: no UPDATE or DELETE statements exist here.
type MovementRepo struct {
	txManager  *postgres.TxManager
	inserter   *postgres.BatchInserter
	selectCols []string
}

// NewMovementRepo creates a new movement ledger repository.
func NewMovementRepo(txManager *postgres.TxManager) *MovementRepo {
	return &MovementRepo{
		txManager:  txManager,
		inserter:   postgres.NewBatchInserter(txManager),
		selectCols: postgres.ExtractDBColumns[stock.Movement](),
	}
}

func (r *MovementRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *MovementRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().
		Select(r.selectCols...).
		From(movementTable)
}

// Append records ledger entries. Every entry must satisfy the sign
// convention for its movement type.
func (r *MovementRepo) Append(ctx context.Context, movements ...*stock.Movement) error {
	if len(movements) == 0 {
		return nil
	}

	for _, m := range movements {
		if err := m.Validate(ctx); err != nil {
			return err
		}
	}

	if len(movements) >= copyThreshold {
		return r.appendCopy(ctx, movements)
	}

	q := r.builder().
		Insert(movementTable).
		Columns(r.selectCols...)

	for _, m := range movements {
		data := postgres.StructToMap(m)
		row := make([]any, len(r.selectCols))
		for i, col := range r.selectCols {
			row[i] = data[col]
		}
		q = q.Values(row...)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}

	return nil
}

// appendCopy bulk-inserts entries via the COPY protocol.
func (r *MovementRepo) appendCopy(ctx context.Context, movements []*stock.Movement) error {
	rows := make([][]any, 0, len(movements))
	for _, m := range movements {
		data := postgres.StructToMap(m)
		row := make([]any, len(r.selectCols))
		for i, col := range r.selectCols {
			row[i] = data[col]
		}
		rows = append(rows, row)
	}

	n, err := r.inserter.CopyFromSlice(ctx, movementTable, r.selectCols, rows)
	if err != nil {
		return fmt.Errorf("copy movements: %w", err)
	}
	if n != int64(len(movements)) {
		return fmt.Errorf("copy movements: wrote %d of %d rows", n, len(movements))
	}
	return nil
}

func (r *MovementRepo) applyFilter(q squirrel.SelectBuilder, f stock.MovementFilter) squirrel.SelectBuilder {
	if f.MedicineID != nil {
		q = q.Where(squirrel.Eq{"medicine_id": *f.MedicineID})
	}
	if f.NodeID != nil {
		q = q.Where(squirrel.Eq{"node_id": *f.NodeID})
	}
	if f.BatchID != nil {
		q = q.Where(squirrel.Eq{"batch_id": *f.BatchID})
	}
	if f.Type != nil {
		q = q.Where(squirrel.Eq{"type": string(*f.Type)})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"occurred_at": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.Lt{"occurred_at": *f.To})
	}
	if f.Reference != "" {
		q = q.Where(squirrel.Eq{"reference": f.Reference})
	}
	return q
}

// List returns movements matching the filter, chronologically ordered.
func (r *MovementRepo) List(ctx context.Context, f stock.MovementFilter) (domain.ListResult[*stock.Movement], error) {
	result := domain.ListResult[*stock.Movement]{
		Limit:  f.Limit,
		Offset: f.Offset,
	}

	q := r.applyFilter(r.baseSelect(), f)

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

	q = q.OrderBy("occurred_at ASC", "line_id ASC")
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
		return result, fmt.Errorf("list movements: %w", err)
	}

	return result, nil
}

// SumForBatch returns the signed sum of all movements for a batch.
func (r *MovementRepo) SumForBatch(ctx context.Context, batchID id.ID) (types.Quantity, error) {
	q := r.builder().
		Select("COALESCE(SUM(quantity), 0)").
		From(movementTable).
		Where(squirrel.Eq{"batch_id": batchID})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var sum int64
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum for batch: %w", err)
	}
	return types.Quantity(sum), nil
}

// Iterate streams movements matching the filter to fn in chronological order.
func (r *MovementRepo) Iterate(ctx context.Context, f stock.MovementFilter, fn func(*stock.Movement) error) error {
	q := r.applyFilter(r.baseSelect(), f).
		OrderBy("occurred_at ASC", "line_id ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	rows, err := r.txManager.GetQuerier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("query movements: %w", err)
	}
	defer rows.Close()

	scanner := pgxscan.NewRowScanner(rows)
	for rows.Next() {
		m := &stock.Movement{}
		if err := scanner.Scan(m); err != nil {
			return fmt.Errorf("scan movement: %w", err)
		}
		if err := fn(m); err != nil {
			return err
		}
	}
	return rows.Err()
}
