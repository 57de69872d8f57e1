package repository

import (
	"context"
	"time"

	"github.com/utafrali/storefront/internal/domain"
)

// ProductMutation changes a locked product in place. Returning an error
// aborts the update and rolls back.
type ProductMutation func(p *domain.Product) error

// ProductRepository defines the interface for catalog persistence.
type ProductRepository interface {
	// Create inserts a new product.
	Create(ctx context.Context, p *domain.Product) error

	// GetByID retrieves a product, including archived ones.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// GetByIDs retrieves the products with the given ids keyed by id. Missing
	// ids are absent from the result.
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error)

	// Update locks the product row, applies fn and persists the result in one
	// transaction.
	Update(ctx context.Context, id string, fn ProductMutation) (*domain.Product, error)

	// ListActiveOffers returns active products whose discount covers now,
	// newest applied discount first.
	ListActiveOffers(ctx context.Context, now time.Time, limit int) ([]domain.Product, error)
}

// OrderFilter defines filter criteria for a seller's order listing.
type OrderFilter struct {
	SellerID string
	Status   *string
	Limit    int
}

// OrderRepository defines the interface for order persistence operations.
type OrderRepository interface {
	// Create inserts the order, its items and the notifications atomically.
	Create(ctx context.Context, o *domain.Order, notes []domain.Notification) error

	// GetByID retrieves an order with its items and buyer reference.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// UpdateStatus moves the order from one status to another and stores the
	// notifications in the same transaction. It returns ErrStatusChanged when
	// the order is no longer in from.
	UpdateStatus(ctx context.Context, id, from, to string, at time.Time, notes []domain.Notification) error

	// ListBySeller returns orders containing at least one of the seller's
	// items, newest first.
	ListBySeller(ctx context.Context, filter OrderFilter) ([]domain.Order, error)

	// ListByBuyer returns every order placed by the buyer, newest first.
	ListByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error)
}

// ReviewRepository defines the interface for review persistence.
type ReviewRepository interface {
	// CreateAndAggregate inserts the review and recomputes the product's
	// rating aggregate under the product row lock.
	CreateAndAggregate(ctx context.Context, r *domain.Review) (domain.RatingSummary, error)

	// ListByProduct returns a product's reviews newest first.
	ListByProduct(ctx context.Context, productID string) ([]domain.Review, error)
}

// NotificationRepository defines the interface for notification persistence.
type NotificationRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	ListForRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]domain.Notification, error)

	// MarkRead flags the notification read, keeping the first read time.
	MarkRead(ctx context.Context, id string, at time.Time) (*domain.Notification, error)
}

// ReportRepository defines the read-only sales aggregates.
type ReportRepository interface {
	TopProducts(ctx context.Context, limit int) ([]domain.ProductSales, error)
}

// OffersCache caches the active-offers listing.
type OffersCache interface {
	// Get returns the cached listing for limit and whether it was present.
	Get(ctx context.Context, limit int) ([]domain.Product, bool, error)
	Set(ctx context.Context, limit int, products []domain.Product) error
	Invalidate(ctx context.Context) error
}
