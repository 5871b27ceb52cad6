package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pharmstock/internal/domain/catalogs/node"
	"pharmstock/internal/infrastructure/storage/postgres"
)

const nodeTable = "cat_nodes"

// NodeRepo implements node.Repository.
type NodeRepo struct {
	*BaseCatalogRepo[*node.Node]
}

// NewNodeRepo creates a new node repository.
func NewNodeRepo(txManager *postgres.TxManager) *NodeRepo {
	return &NodeRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*node.Node](
			txManager,
			nodeTable,
			postgres.ExtractDBColumns[node.Node](),
			func() *node.Node { return &node.Node{} },
		),
	}
}

// FindActiveByRegion retrieves active nodes in a region, warehouses first.
func (r *NodeRepo) FindActiveByRegion(ctx context.Context, region string) ([]*node.Node, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"region": region}).
		Where(squirrel.Eq{"is_active": true}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("type DESC", "name ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*node.Node
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("find by region: %w", err)
	}
	return items, nil
}
