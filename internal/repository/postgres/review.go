package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.TxBeginner
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.TxBeginner) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

var _ repository.ReviewRepository = (*ReviewRepository)(nil)

// CreateAndAggregate inserts the review and rewrites the product's rating
// aggregate from the full set of its reviews. The product row lock serializes
// concurrent reviews of the same product.
func (r *ReviewRepository) CreateAndAggregate(ctx context.Context, rv *domain.Review) (_ domain.RatingSummary, err error) {
	lockQuery := `SELECT id FROM products WHERE id = $1 FOR UPDATE`
	insertQuery := `
		INSERT INTO reviews (id, product_id, user_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	aggregateQuery := `SELECT COALESCE(SUM(rating), 0), COUNT(*) FROM reviews WHERE product_id = $1`
	updateQuery := `UPDATE products SET rating_average = $2, rating_count = $3, updated_at = $4 WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "CreateReview", insertQuery)
	defer func() { end(err) }()

	var summary domain.RatingSummary
	err = database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		var locked string
		if err := tx.QueryRow(ctx, lockQuery, rv.ProductID).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NotFound("product", rv.ProductID)
			}
			return fmt.Errorf("lock product: %w", err)
		}

		if _, err := tx.Exec(ctx, insertQuery,
			rv.ID,
			rv.ProductID,
			rv.UserID,
			rv.Rating,
			rv.Comment,
			rv.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert review: %w", err)
		}

		var (
			sum   int64
			count int
		)
		if err := tx.QueryRow(ctx, aggregateQuery, rv.ProductID).Scan(&sum, &count); err != nil {
			return fmt.Errorf("aggregate ratings: %w", err)
		}
		summary = domain.SummarizeRatings(sum, count)

		if _, err := tx.Exec(ctx, updateQuery, rv.ProductID, summary.Average, summary.Count, rv.CreatedAt); err != nil {
			return fmt.Errorf("update product rating: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.RatingSummary{}, err
	}
	return summary, nil
}

// ListByProduct returns every review of a product, newest first.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID string) (_ []domain.Review, err error) {
	query := `
		SELECT r.id, r.product_id, r.user_id, COALESCE(u.display_name, ''), r.rating, r.comment, r.created_at
		FROM reviews r
		LEFT JOIN users u ON u.id = r.user_id
		WHERE r.product_id = $1
		ORDER BY r.created_at DESC, r.id DESC`

	ctx, end := database.TraceQuery(ctx, "ListReviews", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, database.StoreError(fmt.Errorf("list reviews: %w", err))
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(
			&rv.ID,
			&rv.ProductID,
			&rv.UserID,
			&rv.Reviewer.DisplayName,
			&rv.Rating,
			&rv.Comment,
			&rv.CreatedAt,
		); err != nil {
			return nil, database.StoreError(fmt.Errorf("scan review: %w", err))
		}
		rv.Reviewer.ID = rv.UserID
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, database.StoreError(fmt.Errorf("iterate reviews: %w", err))
	}
	return reviews, nil
}
