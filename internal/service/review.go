package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// AddReviewInput holds the parameters for reviewing a product.
type AddReviewInput struct {
	UserID    string
	ProductID string
	Rating    int
	Comment   *string
}

// ReviewService implements review submission and the rating aggregate.
type ReviewService struct {
	reviews  repository.ReviewRepository
	products repository.ProductRepository
	producer *event.Producer
	settings Settings
	logger   *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(reviews repository.ReviewRepository, products repository.ProductRepository, producer *event.Producer, settings Settings, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		products: products,
		producer: producer,
		settings: settings,
		logger:   logger,
	}
}

// AddReview stores a review and recomputes the product's rating aggregate
// from all of its reviews.
func (s *ReviewService) AddReview(ctx context.Context, actor domain.Actor, input AddReviewInput) (*domain.Review, error) {
	if input.UserID == "" {
		input.UserID = actor.ID
	}
	if input.UserID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if input.ProductID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if err := domain.ValidateRating(input.Rating); err != nil {
		return nil, err
	}
	if input.UserID != actor.ID && !actor.IsAdmin() {
		return nil, apperrors.Forbidden("reviews can only be written as yourself")
	}

	var comment *string
	if input.Comment != nil {
		if c := strings.TrimSpace(*input.Comment); c != "" {
			comment = &c
		}
	}

	review := &domain.Review{
		ID:        uuid.New().String(),
		ProductID: input.ProductID,
		UserID:    input.UserID,
		Reviewer:  domain.UserRef{ID: input.UserID},
		Rating:    input.Rating,
		Comment:   comment,
		CreatedAt: s.settings.now(),
	}

	ctx, cancel := s.settings.storeContext(ctx)
	defer cancel()

	summary, err := s.reviews.CreateAndAggregate(ctx, review)
	if err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	reviewsCreated.Inc()

	if err := s.producer.PublishReviewCreated(ctx, review, summary); err != nil {
		eventPublishFailures.Inc()
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("product_id", review.ProductID),
		slog.Int("rating", review.Rating),
		slog.String("rating_average", summary.Average.StringFixed(2)),
		slog.Int("rating_count", summary.Count),
	)

	return review, nil
}

// ListByProduct returns a product's reviews newest first. It fails with
// NotFound when the product does not exist.
func (s *ReviewService) ListByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	ctx, cancel := s.settings.storeContext(ctx)
	defer cancel()

	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	reviews, err := s.reviews.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}
