package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

const productSelect = `
		SELECT p.id, p.seller_id, COALESCE(u.display_name, ''), p.name, p.slug, p.description,
		       p.category_id, p.images, p.base_price, p.current_price, p.stock,
		       p.discount_percentage, p.discount_starts_at, p.discount_ends_at,
		       p.discount_enabled, p.discount_applied_at,
		       p.rating_average, p.rating_count, p.status, p.created_at, p.updated_at
		FROM products p
		LEFT JOIN users u ON u.id = p.seller_id`

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.TxBeginner
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.TxBeginner) *ProductRepository {
	return &ProductRepository{pool: pool}
}

var _ repository.ProductRepository = (*ProductRepository)(nil)

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p          domain.Product
		sellerName string
		pct        decimal.NullDecimal
		startsAt   *time.Time
		endsAt     *time.Time
		enabled    bool
		appliedAt  *time.Time
	)

	err := row.Scan(
		&p.ID,
		&p.SellerID,
		&sellerName,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.CategoryID,
		&p.Images,
		&p.BasePrice,
		&p.CurrentPrice,
		&p.Stock,
		&pct,
		&startsAt,
		&endsAt,
		&enabled,
		&appliedAt,
		&p.RatingAverage,
		&p.RatingCount,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Seller = &domain.UserRef{ID: p.SellerID, DisplayName: sellerName}
	if p.Images == nil {
		p.Images = []string{}
	}
	if pct.Valid {
		d := &domain.Discount{Percentage: pct.Decimal, Enabled: enabled}
		if startsAt != nil {
			d.StartsAt = *startsAt
		}
		if endsAt != nil {
			d.EndsAt = *endsAt
		}
		if appliedAt != nil {
			d.AppliedAt = *appliedAt
		}
		p.Discount = d
	}
	return &p, nil
}

// discountColumns flattens an optional discount into its nullable columns.
func discountColumns(d *domain.Discount) (decimal.NullDecimal, *time.Time, *time.Time, bool, *time.Time) {
	if d == nil {
		return decimal.NullDecimal{}, nil, nil, false, nil
	}
	startsAt, endsAt, appliedAt := d.StartsAt, d.EndsAt, d.AppliedAt
	return decimal.NewNullDecimal(d.Percentage), &startsAt, &endsAt, d.Enabled, &appliedAt
}

// Create inserts a new product.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (err error) {
	query := `
		INSERT INTO products (id, seller_id, name, slug, description, category_id, images,
			base_price, current_price, stock,
			discount_percentage, discount_starts_at, discount_ends_at, discount_enabled, discount_applied_at,
			rating_average, rating_count, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

	ctx, end := database.TraceQuery(ctx, "CreateProduct", query)
	defer func() { end(err) }()

	pct, startsAt, endsAt, enabled, appliedAt := discountColumns(p.Discount)
	_, err = r.pool.Exec(ctx, query,
		p.ID,
		p.SellerID,
		p.Name,
		p.Slug,
		p.Description,
		p.CategoryID,
		p.Images,
		p.BasePrice,
		p.CurrentPrice,
		p.Stock,
		pct,
		startsAt,
		endsAt,
		enabled,
		appliedAt,
		p.RatingAverage,
		p.RatingCount,
		p.Status,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return database.StoreError(fmt.Errorf("insert product: %w", err))
	}
	return nil
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (_ *domain.Product, err error) {
	query := productSelect + ` WHERE p.id = $1`

	ctx, end := database.TraceQuery(ctx, "GetProduct", query)
	defer func() { end(err) }()

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, database.StoreError(fmt.Errorf("get product: %w", err))
	}
	return p, nil
}

// GetByIDs retrieves several products in one round trip.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) (_ map[string]*domain.Product, err error) {
	out := make(map[string]*domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := productSelect + ` WHERE p.id = ANY($1)`

	ctx, end := database.TraceQuery(ctx, "GetProducts", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, database.StoreError(fmt.Errorf("get products: %w", err))
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, database.StoreError(fmt.Errorf("scan product: %w", err))
		}
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, database.StoreError(fmt.Errorf("iterate products: %w", err))
	}
	return out, nil
}

// Update locks the product row with SELECT ... FOR UPDATE, applies fn and
// writes every mutable column back before committing.
func (r *ProductRepository) Update(ctx context.Context, id string, fn repository.ProductMutation) (_ *domain.Product, err error) {
	lockQuery := productSelect + ` WHERE p.id = $1 FOR UPDATE OF p`
	updateQuery := `
		UPDATE products
		SET name = $2, slug = $3, description = $4, category_id = $5, images = $6,
		    base_price = $7, current_price = $8, stock = $9,
		    discount_percentage = $10, discount_starts_at = $11, discount_ends_at = $12,
		    discount_enabled = $13, discount_applied_at = $14,
		    status = $15, updated_at = $16
		WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "UpdateProduct", updateQuery)
	defer func() { end(err) }()

	var updated *domain.Product
	err = database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		p, err := scanProduct(tx.QueryRow(ctx, lockQuery, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NotFound("product", id)
			}
			return fmt.Errorf("lock product: %w", err)
		}

		if err := fn(p); err != nil {
			return err
		}

		pct, startsAt, endsAt, enabled, appliedAt := discountColumns(p.Discount)
		if _, err := tx.Exec(ctx, updateQuery,
			p.ID,
			p.Name,
			p.Slug,
			p.Description,
			p.CategoryID,
			p.Images,
			p.BasePrice,
			p.CurrentPrice,
			p.Stock,
			pct,
			startsAt,
			endsAt,
			enabled,
			appliedAt,
			p.Status,
			p.UpdatedAt,
		); err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListActiveOffers returns active products whose discount window covers now.
func (r *ProductRepository) ListActiveOffers(ctx context.Context, now time.Time, limit int) (_ []domain.Product, err error) {
	query := productSelect + `
		WHERE p.status = 'active'
		  AND p.discount_enabled
		  AND p.discount_percentage > 0
		  AND p.discount_starts_at <= $1
		  AND p.discount_ends_at >= $1
		ORDER BY p.discount_applied_at DESC NULLS LAST, p.id
		LIMIT $2`

	ctx, end := database.TraceQuery(ctx, "ListActiveOffers", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, database.StoreError(fmt.Errorf("list offers: %w", err))
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, database.StoreError(fmt.Errorf("scan offer: %w", err))
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, database.StoreError(fmt.Errorf("iterate offers: %w", err))
	}
	return products, nil
}
