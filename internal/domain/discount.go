package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// Column limits of the store. Money is NUMERIC(12,2) and quantities are INTEGER.
var (
	MaxMoney        = decimal.RequireFromString("9999999999.99")
	MaxStock        = math.MaxInt32
	MaxLineQuantity = 10000
)

// Discount is a percentage reduction applied to a product's base price
// during a time window.
type Discount struct {
	Percentage decimal.Decimal `json:"percentage"`
	StartsAt   time.Time       `json:"starts_at"`
	EndsAt     time.Time       `json:"ends_at"`
	Enabled    bool            `json:"enabled"`
	AppliedAt  time.Time       `json:"applied_at"`
}

// Validate checks the percentage range, its precision and window ordering.
func (d *Discount) Validate() error {
	if d.Percentage.IsNegative() || d.Percentage.GreaterThan(hundred) {
		return apperrors.InvalidInput("discount percentage must be between 0 and 100")
	}
	if !d.Percentage.Equal(d.Percentage.Round(2)) {
		return apperrors.InvalidInput("discount percentage supports at most 2 decimal places")
	}
	if d.EndsAt.Before(d.StartsAt) {
		return apperrors.InvalidInput("discount end must not be before its start")
	}
	return nil
}

// ActiveAt reports whether the discount applies at the given instant. Both
// window bounds are inclusive.
func (d *Discount) ActiveAt(now time.Time) bool {
	if d == nil || !d.Enabled {
		return false
	}
	if !d.Percentage.IsPositive() || d.Percentage.GreaterThan(hundred) {
		return false
	}
	return !now.Before(d.StartsAt) && !now.After(d.EndsAt)
}

// PriceQuote is the outcome of evaluating a discount against a base price.
type PriceQuote struct {
	EffectivePrice decimal.Decimal
	IsActive       bool
}

// EvaluateDiscount returns the price a buyer pays at now. An inactive or
// missing discount leaves the base price untouched.
func EvaluateDiscount(basePrice decimal.Decimal, d *Discount, now time.Time) PriceQuote {
	if !d.ActiveAt(now) {
		return PriceQuote{EffectivePrice: basePrice, IsActive: false}
	}
	factor := hundred.Sub(d.Percentage).Div(hundred)
	return PriceQuote{
		EffectivePrice: RoundMoney(basePrice.Mul(factor)),
		IsActive:       true,
	}
}

// RoundMoney rounds half away from zero to cents.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
