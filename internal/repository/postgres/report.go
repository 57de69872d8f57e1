package postgres

import (
	"context"
	"fmt"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/pkg/database"
)

// ReportRepository implements repository.ReportRepository using PostgreSQL.
type ReportRepository struct {
	pool database.DBTX
}

// NewReportRepository creates a new PostgreSQL-backed report repository.
func NewReportRepository(pool database.DBTX) *ReportRepository {
	return &ReportRepository{pool: pool}
}

var _ repository.ReportRepository = (*ReportRepository)(nil)

// TopProducts ranks products by units sold in orders that were not cancelled.
func (r *ReportRepository) TopProducts(ctx context.Context, limit int) (_ []domain.ProductSales, err error) {
	query := `
		SELECT oi.product_id, p.name, p.seller_id,
		       SUM(oi.quantity)::BIGINT AS quantity_sold,
		       SUM(oi.line_total) AS revenue,
		       COUNT(DISTINCT oi.order_id) AS order_count
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN products p ON p.id = oi.product_id
		WHERE o.status <> 'cancelled'
		GROUP BY oi.product_id, p.name, p.seller_id
		ORDER BY quantity_sold DESC, oi.product_id
		LIMIT $1`

	ctx, end := database.TraceQuery(ctx, "TopProducts", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, database.StoreError(fmt.Errorf("top products: %w", err))
	}
	defer rows.Close()

	out := []domain.ProductSales{}
	for rows.Next() {
		var s domain.ProductSales
		if err := rows.Scan(&s.ProductID, &s.Name, &s.SellerID, &s.QuantitySold, &s.Revenue, &s.OrderCount); err != nil {
			return nil, database.StoreError(fmt.Errorf("scan product sales: %w", err))
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, database.StoreError(fmt.Errorf("iterate product sales: %w", err))
	}
	return out, nil
}
