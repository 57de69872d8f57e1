package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Items are folded into one JSONB column to avoid a query per order.
const orderSelect = `
		SELECT o.id, o.buyer_id, COALESCE(u.display_name, ''), o.seller_id, o.status,
		       o.shipping_address, o.payment_method,
		       o.subtotal, o.shipping_amount, o.tax_amount, o.total,
		       o.created_at, o.updated_at,
		       COALESCE((
		           SELECT JSONB_AGG(JSONB_BUILD_OBJECT(
		               'id', oi.id,
		               'order_id', oi.order_id,
		               'product_id', oi.product_id,
		               'seller_id', oi.seller_id,
		               'name', oi.name,
		               'quantity', oi.quantity,
		               'unit_price', oi.unit_price,
		               'line_total', oi.line_total
		           ) ORDER BY oi.position)
		           FROM order_items oi
		           WHERE oi.order_id = o.id
		       ), '[]'::jsonb) AS items
		FROM orders o
		LEFT JOIN users u ON u.id = o.buyer_id`

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.TxBeginner
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.TxBeginner) *OrderRepository {
	return &OrderRepository{pool: pool}
}

var _ repository.OrderRepository = (*OrderRepository)(nil)

// Create inserts the order, its items and the seller notifications in one
// transaction. It fills o.Buyer from the users table.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order, notes []domain.Notification) (err error) {
	orderQuery := `
		INSERT INTO orders (id, buyer_id, seller_id, status, shipping_address, payment_method,
			subtotal, shipping_amount, tax_amount, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	itemQuery := `
		INSERT INTO order_items (id, order_id, position, product_id, seller_id, name, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	buyerQuery := `SELECT COALESCE((SELECT display_name FROM users WHERE id = $1), '')`

	ctx, end := database.TraceQuery(ctx, "CreateOrder", orderQuery)
	defer func() { end(err) }()

	addressJSON, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("marshal shipping address: %w", err)
	}

	return database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, orderQuery,
			o.ID,
			o.BuyerID,
			o.SellerID,
			o.Status,
			addressJSON,
			o.PaymentMethod,
			o.Subtotal,
			o.ShippingAmount,
			o.TaxAmount,
			o.Total,
			o.CreatedAt,
			o.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		var buyerName string
		if err := tx.QueryRow(ctx, buyerQuery, o.BuyerID).Scan(&buyerName); err != nil {
			return fmt.Errorf("resolve buyer: %w", err)
		}
		o.Buyer = &domain.UserRef{ID: o.BuyerID, DisplayName: buyerName}

		for i, item := range o.Items {
			if _, err := tx.Exec(ctx, itemQuery,
				item.ID,
				o.ID,
				i,
				item.ProductID,
				item.SellerID,
				item.Name,
				item.Quantity,
				item.UnitPrice,
				item.LineTotal,
			); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}

		return insertNotifications(ctx, tx, notes)
	})
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o           domain.Order
		buyerName   string
		addressJSON []byte
		itemsJSON   []byte
	)

	err := row.Scan(
		&o.ID,
		&o.BuyerID,
		&buyerName,
		&o.SellerID,
		&o.Status,
		&addressJSON,
		&o.PaymentMethod,
		&o.Subtotal,
		&o.ShippingAmount,
		&o.TaxAmount,
		&o.Total,
		&o.CreatedAt,
		&o.UpdatedAt,
		&itemsJSON,
	)
	if err != nil {
		return nil, err
	}

	o.Buyer = &domain.UserRef{ID: o.BuyerID, DisplayName: buyerName}

	if len(addressJSON) > 0 && string(addressJSON) != "null" {
		if err := json.Unmarshal(addressJSON, &o.ShippingAddress); err != nil {
			return nil, fmt.Errorf("unmarshal shipping address: %w", err)
		}
	}

	o.Items = []domain.OrderItem{}
	if len(itemsJSON) > 0 && string(itemsJSON) != "null" {
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			return nil, fmt.Errorf("unmarshal order items: %w", err)
		}
	}

	return &o, nil
}

// GetByID retrieves an order by its ID, eagerly loading its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (_ *domain.Order, err error) {
	query := orderSelect + ` WHERE o.id = $1`

	ctx, end := database.TraceQuery(ctx, "GetOrder", query)
	defer func() { end(err) }()

	o, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, database.StoreError(fmt.Errorf("get order: %w", err))
	}
	return o, nil
}

// UpdateStatus performs a compare-and-set on the order status and stores the
// notifications in the same transaction.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id, from, to string, at time.Time, notes []domain.Notification) (err error) {
	query := `UPDATE orders SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`

	ctx, end := database.TraceQuery(ctx, "UpdateOrderStatus", query)
	defer func() { end(err) }()

	return database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query, id, from, to, at)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return repository.ErrStatusChanged
		}
		return insertNotifications(ctx, tx, notes)
	})
}

// ListBySeller returns orders containing at least one item of the seller.
func (r *OrderRepository) ListBySeller(ctx context.Context, filter repository.OrderFilter) (_ []domain.Order, err error) {
	conditions := []string{`EXISTS (SELECT 1 FROM order_items s WHERE s.order_id = o.id AND s.seller_id = $1)`}
	args := []any{filter.SellerID}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, "o.status = $"+strconv.Itoa(len(args)))
	}
	args = append(args, filter.Limit)

	query := orderSelect +
		` WHERE ` + strings.Join(conditions, " AND ") +
		` ORDER BY o.created_at DESC, o.id DESC LIMIT $` + strconv.Itoa(len(args))

	ctx, end := database.TraceQuery(ctx, "ListOrdersBySeller", query)
	defer func() { end(err) }()

	return r.list(ctx, query, args...)
}

// ListByBuyer returns all of a buyer's orders, newest first.
func (r *OrderRepository) ListByBuyer(ctx context.Context, buyerID string) (_ []domain.Order, err error) {
	query := orderSelect + ` WHERE o.buyer_id = $1 ORDER BY o.created_at DESC, o.id DESC`

	ctx, end := database.TraceQuery(ctx, "ListOrdersByBuyer", query)
	defer func() { end(err) }()

	return r.list(ctx, query, buyerID)
}

func (r *OrderRepository) list(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, database.StoreError(fmt.Errorf("list orders: %w", err))
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, database.StoreError(fmt.Errorf("scan order: %w", err))
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, database.StoreError(fmt.Errorf("iterate orders: %w", err))
	}
	return orders, nil
}
