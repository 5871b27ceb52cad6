package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/domain"
	"pharmstock/internal/domain/catalogs/medicine"
	"pharmstock/internal/infrastructure/storage/postgres"
)

const medicineTable = "cat_medicines"

// MedicineRepo implements medicine.Repository.
type MedicineRepo struct {
	*BaseCatalogRepo[*medicine.Medicine]
}

// NewMedicineRepo creates a new medicine repository.
func NewMedicineRepo(txManager *postgres.TxManager) *MedicineRepo {
	return &MedicineRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*medicine.Medicine](
			txManager,
			medicineTable,
			postgres.ExtractDBColumns[medicine.Medicine](),
			func() *medicine.Medicine { return &medicine.Medicine{} },
		),
	}
}

// FindBySKU retrieves a medicine by its SKU (catalog code).
func (r *MedicineRepo) FindBySKU(ctx context.Context, sku string) (*medicine.Medicine, error) {
	item, err := r.GetByCode(ctx, sku)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("medicine", sku)
		}
		return nil, err
	}
	return item, nil
}

// FindLowStock retrieves medicines whose total remaining stock across all
// nodes is below their minimum stock level.
func (r *MedicineRepo) FindLowStock(ctx context.Context, f domain.ListFilter) (domain.ListResult[*medicine.Medicine], error) {
	result := domain.ListResult[*medicine.Medicine]{
		Limit:  f.Limit,
		Offset: f.Offset,
	}

	q := r.baseSelect().
		Where(squirrel.Eq{"deletion_mark": false}).
		Where(squirrel.Gt{"min_stock_level": 0}).
		Where(squirrel.Expr(
			"COALESCE((SELECT SUM(b.remaining_quantity) FROM sto_batches b WHERE b.medicine_id = " + medicineTable + ".id), 0) < min_stock_level",
		)).
		OrderBy("name ASC")

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

	var items []*medicine.Medicine
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return result, fmt.Errorf("find low stock: %w", err)
	}
	result.Items = items
	result.TotalCount = int64(len(items))

	return result, nil
}
