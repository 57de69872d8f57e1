package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
	"github.com/utafrali/storefront/pkg/slug"
)

// OffersBounds are the default and maximum sizes of the offers listing.
var OffersBounds = pagination.Bounds{Default: 20, Max: 100}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Images      []string
	CategoryID  *string
}

// DiscountInput describes a discount to apply. A zero percentage clears the
// discount. Missing dates default to [now, now + Settings.DiscountWindow].
type DiscountInput struct {
	Percentage decimal.Decimal
	StartsAt   *time.Time
	EndsAt     *time.Time
}

// UpdateProductInput holds the optional fields of a combined product update.
type UpdateProductInput struct {
	Price    *decimal.Decimal
	Stock    *int
	Discount *DiscountInput
}

// ProductService implements the catalog operations.
type ProductService struct {
	repo     repository.ProductRepository
	cache    repository.OffersCache
	producer *event.Producer
	settings Settings
	logger   *slog.Logger
}

// NewProductService creates a new product service. cache may be nil.
func NewProductService(repo repository.ProductRepository, cache repository.OffersCache, producer *event.Producer, settings Settings, logger *slog.Logger) *ProductService {
	return &ProductService{
		repo:     repo,
		cache:    cache,
		producer: producer,
		settings: settings,
		logger:   logger,
	}
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return apperrors.InvalidInput("price must be greater than or equal to 0")
	}
	if domain.RoundMoney(price).GreaterThan(domain.MaxMoney) {
		return apperrors.InvalidInput("price must be at most " + domain.MaxMoney.String())
	}
	return nil
}

func validateStock(stock int) error {
	if stock < 0 {
		return apperrors.InvalidInput("stock must be greater than or equal to 0")
	}
	if stock > domain.MaxStock {
		return apperrors.InvalidInput(fmt.Sprintf("stock must be at most %d", domain.MaxStock))
	}
	return nil
}

// CreateProduct creates a new active product owned by the actor.
func (s *ProductService) CreateProduct(ctx context.Context, actor domain.Actor, input CreateProductInput) (*domain.Product, error) {
	if actor.ID == "" {
		return nil, apperrors.InvalidInput("seller id is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}
	if err := validateStock(input.Stock); err != nil {
		return nil, err
	}

	now := s.settings.now()
	images := input.Images
	if images == nil {
		images = []string{}
	}
	p := &domain.Product{
		ID:            uuid.New().String(),
		SellerID:      actor.ID,
		Name:          name,
		Slug:          slug.Generate(name),
		Description:   strings.TrimSpace(input.Description),
		CategoryID:    input.CategoryID,
		Images:        images,
		BasePrice:     domain.RoundMoney(input.Price),
		Stock:         input.Stock,
		RatingAverage: decimal.Zero,
		Status:        domain.ProductStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	p.Reprice(now)

	ctx, cancel := s.settings.storeContext(ctx)
	defer cancel()

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.publish(ctx, event.TopicProductCreated, p)

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", p.ID),
		slog.String("seller_id", p.SellerID),
	)
	return p, nil
}

// GetProduct returns a product with its price evaluated at now.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	ctx, cancel := s.settings.storeContext(ctx)
	defer cancel()

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	p.Reprice(s.settings.now())
	return p, nil
}

// UpdateStock sets the stock of a product owned by the actor.
func (s *ProductService) UpdateStock(ctx context.Context, actor domain.Actor, id string, stock int) (*domain.Product, error) {
	return s.UpdateProduct(ctx, actor, id, UpdateProductInput{Stock: &stock})
}

// UpdatePrice sets the base price of a product owned by the actor.
func (s *ProductService) UpdatePrice(ctx context.Context, actor domain.Actor, id string, price decimal.Decimal) (*domain.Product, error) {
	return s.UpdateProduct(ctx, actor, id, UpdateProductInput{Price: &price})
}

// ApplyDiscount sets the discount of a product owned by the actor.
func (s *ProductService) ApplyDiscount(ctx context.Context, actor domain.Actor, id string, input DiscountInput) (*domain.Product, error) {
	return s.UpdateProduct(ctx, actor, id, UpdateProductInput{Discount: &input})
}

// ClearDiscount removes the discount of a product owned by the actor.
func (s *ProductService) ClearDiscount(ctx context.Context, actor domain.Actor, id string) (*domain.Product, error) {
	return s.UpdateProduct(ctx, actor, id, UpdateProductInput{Discount: &DiscountInput{Percentage: decimal.Zero}})
}

// buildDiscount validates input and resolves its default window. A nil result
// means the discount is being cleared.
func (s *ProductService) buildDiscount(input *DiscountInput, now time.Time) (*domain.Discount, error) {
	if input.Percentage.IsZero() {
		return nil, nil
	}
	d := &domain.Discount{
		Percentage: input.Percentage,
		StartsAt:   now,
		Enabled:    true,
		AppliedAt:  now,
	}
	if input.StartsAt != nil {
		d.StartsAt = input.StartsAt.UTC()
	}
	if input.EndsAt != nil {
		d.EndsAt = input.EndsAt.UTC()
	} else {
		d.EndsAt = d.StartsAt.Add(s.settings.DiscountWindow)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// UpdateProduct applies price, stock and discount changes atomically under the
// product row lock and persists the re-evaluated current price.
func (s *ProductService) UpdateProduct(ctx context.Context, actor domain.Actor, id string, input UpdateProductInput) (*domain.Product, error) {
	if input.Price == nil && input.Stock == nil && input.Discount == nil {
		return nil, apperrors.InvalidInput("at least one of price, stock or discount is required")
	}
	if input.Price != nil {
		if err := validatePrice(*input.Price); err != nil {
			return nil, err
		}
	}
	if input.Stock != nil {
		if err := validateStock(*input.Stock); err != nil {
			return nil, err
		}
	}

	now := s.settings.now()
	var discount *domain.Discount
	if input.Discount != nil {
		var err error
		if discount, err = s.buildDiscount(input.Discount, now); err != nil {
			return nil, err
		}
	}

	ctx, cancel := s.settings.storeContext(ctx)
	defer cancel()

	p, err := s.repo.Update(ctx, id, func(p *domain.Product) error {
		if !p.OwnedBy(actor.ID) {
			return apperrors.Forbidden("only the owning seller can modify this product")
		}
		if input.Price != nil {
			p.BasePrice = domain.RoundMoney(*input.Price)
		}
		if input.Stock != nil {
			p.Stock = *input.Stock
		}
		if input.Discount != nil {
			p.Discount = discount
		}
		if p.Discount == nil {
			p.ClearDiscount()
		} else {
			p.Reprice(now)
		}
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.invalidateOffers(ctx)
	s.publish(ctx, event.TopicProductUpdated, p)

	s.logger.InfoContext(ctx, "product updated",
		slog.String("product_id", p.ID),
		slog.String("current_price", p.CurrentPrice.StringFixed(2)),
		slog.Int("stock", p.Stock),
		slog.Bool("discount_active", p.DiscountActive),
	)
	return p, nil
}

// ArchiveProduct hides a product owned by the actor from offers and checkout.
// Archiving an archived product is a no-op.
func (s *ProductService) ArchiveProduct(ctx context.Context, actor domain.Actor, id string) (*domain.Product, error) {
	now := s.settings.now()

	ctx, cancel := s.settings.storeContext(ctx)
	defer cancel()

	p, err := s.repo.Update(ctx, id, func(p *domain.Product) error {
		if !p.OwnedBy(actor.ID) {
			return apperrors.Forbidden("only the owning seller can archive this product")
		}
		p.Status = domain.ProductStatusArchived
		p.UpdatedAt = now
		p.Reprice(now)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("archive product: %w", err)
	}

	s.invalidateOffers(ctx)
	s.publish(ctx, event.TopicProductArchived, p)

	s.logger.InfoContext(ctx, "product archived", slog.String("product_id", p.ID))
	return p, nil
}

// ListActiveOffers returns products with a discount active now, newest
// discount first. Cached listings are re-evaluated so an expired window never
// shows.
func (s *ProductService) ListActiveOffers(ctx context.Context, limit int) ([]domain.Product, error) {
	limit = OffersBounds.Clamp(limit)
	now := s.settings.now()

	ctx, cancel := s.settings.storeContext(ctx)
	defer cancel()

	if products, ok := s.cachedOffers(ctx, limit); ok {
		return activeAt(products, now), nil
	}

	products, err := s.repo.ListActiveOffers(ctx, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list active offers: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, limit, products); err != nil {
			s.logger.WarnContext(ctx, "failed to cache offers", slog.String("error", err.Error()))
		}
	}
	return activeAt(products, now), nil
}

func (s *ProductService) cachedOffers(ctx context.Context, limit int) ([]domain.Product, bool) {
	if s.cache == nil {
		return nil, false
	}
	products, ok, err := s.cache.Get(ctx, limit)
	switch {
	case err != nil:
		offersCacheLookups.WithLabelValues("error").Inc()
		s.logger.WarnContext(ctx, "offers cache unavailable", slog.String("error", err.Error()))
		return nil, false
	case !ok:
		offersCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	default:
		offersCacheLookups.WithLabelValues("hit").Inc()
		return products, true
	}
}

// activeAt re-prices products at now and keeps those still discounted.
func activeAt(products []domain.Product, now time.Time) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if !p.IsActive() {
			continue
		}
		if q := p.Reprice(now); q.IsActive {
			out = append(out, p)
		}
	}
	return out
}

func (s *ProductService) invalidateOffers(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate offers cache", slog.String("error", err.Error()))
	}
}

func (s *ProductService) publish(ctx context.Context, topic string, p *domain.Product) {
	if err := s.producer.PublishProduct(ctx, topic, p); err != nil {
		eventPublishFailures.Inc()
		s.logger.ErrorContext(ctx, "failed to publish product event",
			slog.String("product_id", p.ID),
			slog.String("topic", topic),
			slog.String("error", err.Error()),
		)
	}
}
