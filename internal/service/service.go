package service

import (
	"context"
	"time"

	"github.com/utafrali/storefront/internal/domain"
)

// Settings holds the tunables shared by the services.
type Settings struct {
	// StoreTimeout bounds every store call. Zero disables the bound.
	StoreTimeout time.Duration

	// DiscountWindow is the length of a discount applied without an explicit
	// end date.
	DiscountWindow time.Duration

	// Pricing is the flat shipping fee and tax rate charged on orders.
	Pricing domain.Pricing

	// Now is the clock. Nil means time.Now.
	Now func() time.Time
}

func (s Settings) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s Settings) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.StoreTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.StoreTimeout)
}
