// Package report_repo provides PostgreSQL implementations for report repositories.
package report_repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"pharmstock/internal/core/id"
	"pharmstock/internal/domain/reports"
	"pharmstock/internal/infrastructure/storage/postgres"
)

// ReportRepo implements reports.Repository. Reports read batches directly:
// batch remaining quantities are kept in lockstep with the ledger, so no
// ledger replay is needed for point-in-time-now aggregates.
type ReportRepo struct {
	txManager *postgres.TxManager
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txManager *postgres.TxManager) *ReportRepo {
	return &ReportRepo{txManager: txManager}
}

// appendIDFilter adds "AND <col> IN ($n, ...)" for a non-empty ID list.
func appendIDFilter(query string, col string, ids []id.ID, args []any) (string, []any) {
	if len(ids) == 0 {
		return query, args
	}
	placeholders := make([]string, len(ids))
	for i, v := range ids {
		placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
		args = append(args, v)
	}
	return query + fmt.Sprintf(" AND %s IN (%s)", col, strings.Join(placeholders, ",")), args
}

// GetStockValueReport values remaining stock at batch unit cost per
// (node, medicine).
func (r *ReportRepo) GetStockValueReport(ctx context.Context, filter reports.StockValueFilter) (*reports.StockValueReport, error) {
	query := `
		SELECT
			b.node_id,
			n.name as node_name,
			b.medicine_id,
			m.name as medicine_name,
			m.code as medicine_sku,
			SUM(b.remaining_quantity) as quantity,
			SUM(b.remaining_quantity * b.unit_cost) as total_value
		FROM sto_batches b
		JOIN cat_nodes n ON b.node_id = n.id
		JOIN cat_medicines m ON b.medicine_id = m.id
		WHERE n.deletion_mark = false AND m.deletion_mark = false
	`
	var args []any

	query, args = appendIDFilter(query, "b.node_id", filter.NodeIDs, args)
	query, args = appendIDFilter(query, "b.medicine_id", filter.MedicineIDs, args)

	query += " GROUP BY b.node_id, n.name, b.medicine_id, m.name, m.code"
	if filter.ExcludeZero {
		query += " HAVING SUM(b.remaining_quantity) > 0"
	}
	query += " ORDER BY n.name, m.name"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	var items []reports.StockValueItem
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, query, args...); err != nil {
		return nil, fmt.Errorf("stock value report: %w", err)
	}

	report := &reports.StockValueReport{
		AsOfDate:   time.Now().UTC(),
		Items:      items,
		TotalItems: len(items),
	}
	for _, item := range items {
		report.TotalQuantity += item.Quantity
		report.TotalValue = report.TotalValue.Add(item.TotalValue)
	}
	return report, nil
}

// GetNearExpiryReport lists batches with stock expiring within the horizon.
func (r *ReportRepo) GetNearExpiryReport(ctx context.Context, filter reports.NearExpiryFilter) (*reports.NearExpiryReport, error) {
	now := time.Now().UTC()
	cutoff := now.Add(filter.Horizon)

	query := `
		SELECT
			b.id as batch_id,
			b.batch_number,
			b.node_id,
			n.name as node_name,
			b.medicine_id,
			m.name as medicine_name,
			b.expiry_date,
			GREATEST(0, EXTRACT(DAY FROM b.expiry_date - $1)::int) as days_left,
			b.remaining_quantity as quantity,
			b.remaining_quantity * b.unit_cost as value
		FROM sto_batches b
		JOIN cat_nodes n ON b.node_id = n.id
		JOIN cat_medicines m ON b.medicine_id = m.id
		WHERE b.remaining_quantity > 0
		  AND b.expiry_date <= $2
	`
	args := []any{now, cutoff}

	query, args = appendIDFilter(query, "b.node_id", filter.NodeIDs, args)
	query, args = appendIDFilter(query, "b.medicine_id", filter.MedicineIDs, args)

	query += " ORDER BY b.expiry_date ASC, n.name, m.name"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	var items []reports.NearExpiryItem
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, query, args...); err != nil {
		return nil, fmt.Errorf("near expiry report: %w", err)
	}

	report := &reports.NearExpiryReport{
		Cutoff:     cutoff,
		Items:      items,
		TotalItems: len(items),
	}
	for _, item := range items {
		report.TotalQuantity += item.Quantity
		report.TotalValue = report.TotalValue.Add(item.Value)
	}
	return report, nil
}

// GetDistributionReport aggregates stock per node across the network.
func (r *ReportRepo) GetDistributionReport(ctx context.Context, filter reports.DistributionFilter) (*reports.DistributionReport, error) {
	query := `
		SELECT
			n.id as node_id,
			n.name as node_name,
			n.type as node_type,
			COALESCE(n.region, '') as region,
			COUNT(DISTINCT b.medicine_id) FILTER (WHERE b.remaining_quantity > 0) as medicine_count,
			COUNT(b.id) FILTER (WHERE b.remaining_quantity > 0) as batch_count,
			COALESCE(SUM(b.remaining_quantity), 0) as total_quantity,
			COALESCE(SUM(b.remaining_quantity * b.unit_cost), 0) as total_value
		FROM cat_nodes n
		LEFT JOIN sto_batches b ON b.node_id = n.id
	`
	var args []any
	var conds []string

	conds = append(conds, "n.deletion_mark = false")
	if filter.Region != "" {
		args = append(args, filter.Region)
		conds = append(conds, fmt.Sprintf("n.region = $%d", len(args)))
	}

	if len(filter.MedicineIDs) > 0 {
		placeholders := make([]string, len(filter.MedicineIDs))
		for i, v := range filter.MedicineIDs {
			placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
			args = append(args, v)
		}
		// Filter joined batches, not nodes: a node with none of the
		// requested medicines still appears with zero totals.
		query = strings.Replace(query,
			"LEFT JOIN sto_batches b ON b.node_id = n.id",
			fmt.Sprintf("LEFT JOIN sto_batches b ON b.node_id = n.id AND b.medicine_id IN (%s)", strings.Join(placeholders, ",")),
			1)
	}

	query += " WHERE " + strings.Join(conds, " AND ")
	query += " GROUP BY n.id, n.name, n.type, n.region ORDER BY n.name"

	var items []reports.DistributionItem
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, query, args...); err != nil {
		return nil, fmt.Errorf("distribution report: %w", err)
	}

	report := &reports.DistributionReport{
		AsOfDate: time.Now().UTC(),
		Items:    items,
	}
	for _, item := range items {
		report.TotalQuantity += item.TotalQuantity
		report.TotalValue = report.TotalValue.Add(item.TotalValue)
	}
	return report, nil
}

// Ensure interface compliance
var _ reports.Repository = (*ReportRepo)(nil)
