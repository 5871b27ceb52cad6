package stock_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/domain"
	"pharmstock/internal/domain/stock"
	"pharmstock/internal/infrastructure/storage/postgres"
)

const reconciliationTable = "sto_reconciliations"

// Compile-time check.
var _ stock.ReconciliationRepository = (*ReconciliationRepo)(nil)

// ReconciliationRepo implements stock.ReconciliationRepository.
type ReconciliationRepo struct {
	txManager  *postgres.TxManager
	selectCols []string
}

// NewReconciliationRepo creates a new reconciliation repository.
func NewReconciliationRepo(txManager *postgres.TxManager) *ReconciliationRepo {
	return &ReconciliationRepo{
		txManager:  txManager,
		selectCols: postgres.ExtractDBColumns[stock.ReconciliationRecord](),
	}
}

func (r *ReconciliationRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *ReconciliationRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().
		Select(r.selectCols...).
		From(reconciliationTable)
}

// Create inserts a reconciliation record.
func (r *ReconciliationRepo) Create(ctx context.Context, rec *stock.ReconciliationRecord) error {
	data := postgres.StructToMap(rec)

	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	q := r.builder().
		Insert(reconciliationTable).
		SetMap(filtered)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert reconciliation: %w", err)
	}

	return nil
}

// GetByID retrieves a record.
func (r *ReconciliationRepo) GetByID(ctx context.Context, recordID id.ID) (*stock.ReconciliationRecord, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": recordID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rec := &stock.ReconciliationRecord{}
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), rec, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("reconciliation", recordID.String())
		}
		return nil, fmt.Errorf("get reconciliation: %w", err)
	}
	return rec, nil
}

// List returns records matching the filter, newest first.
func (r *ReconciliationRepo) List(ctx context.Context, f stock.ReconciliationFilter) (domain.ListResult[*stock.ReconciliationRecord], error) {
	result := domain.ListResult[*stock.ReconciliationRecord]{
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
	if f.OnlyVariance {
		q = q.Where(squirrel.NotEq{"variance": 0})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.Lt{"created_at": *f.To})
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

	q = q.OrderBy("created_at DESC", "id DESC")
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
		return result, fmt.Errorf("list reconciliations: %w", err)
	}

	return result, nil
}
