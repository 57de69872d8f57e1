package domain

import (
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Review represents a product review submitted by a buyer.
type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	UserID    string    `json:"-"`
	Reviewer  UserRef   `json:"reviewer"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidateRating rejects ratings outside [MinRating, MaxRating].
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return apperrors.InvalidInput("rating must be an integer between 1 and 5")
	}
	return nil
}

// RatingSummary is a product's review aggregate.
type RatingSummary struct {
	Average decimal.Decimal `json:"average"`
	Count   int             `json:"count"`
}

// SummarizeRatings computes the mean rounded to two places. No reviews
// yields a zero average.
func SummarizeRatings(sum int64, count int) RatingSummary {
	if count <= 0 {
		return RatingSummary{Average: decimal.Zero}
	}
	avg := decimal.NewFromInt(sum).Div(decimal.NewFromInt(int64(count)))
	return RatingSummary{Average: avg.Round(2), Count: count}
}
