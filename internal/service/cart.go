package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// CartLine is one line of the cart a buyer submits at checkout.
type CartLine struct {
	ProductID string
	Quantity  int
}

// CartAssembler turns submitted cart lines into order items, capturing each
// product's effective price at the moment of assembly.
type CartAssembler struct {
	products repository.ProductRepository
	logger   *slog.Logger
}

// NewCartAssembler creates a cart assembler reading from the catalog.
func NewCartAssembler(products repository.ProductRepository, logger *slog.Logger) *CartAssembler {
	return &CartAssembler{products: products, logger: logger}
}

// ValidateLines checks the shape of the cart without touching the store.
func ValidateLines(lines []CartLine) error {
	if len(lines) == 0 {
		return apperrors.InvalidInput("order must contain at least one item")
	}
	for i, l := range lines {
		if l.ProductID == "" {
			return apperrors.InvalidInput(fmt.Sprintf("item %d: product id is required", i))
		}
		if l.Quantity < 1 {
			return apperrors.InvalidInput(fmt.Sprintf("item %d: quantity must be at least 1", i))
		}
		if l.Quantity > domain.MaxLineQuantity {
			return apperrors.InvalidInput(fmt.Sprintf("item %d: quantity must be at most %d", i, domain.MaxLineQuantity))
		}
	}
	return nil
}

// Assemble resolves every line against the catalog. It fails with NotFound
// when a product is missing or archived. Items keep the submission order.
func (a *CartAssembler) Assemble(ctx context.Context, orderID string, lines []CartLine, now time.Time) ([]domain.OrderItem, error) {
	if err := ValidateLines(lines); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			ids = append(ids, l.ProductID)
		}
	}

	products, err := a.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load cart products: %w", err)
	}

	items := make([]domain.OrderItem, len(lines))
	for i, l := range lines {
		p, ok := products[l.ProductID]
		if !ok || !p.IsActive() {
			return nil, apperrors.NotFound("product", l.ProductID)
		}
		if l.Quantity > p.Stock {
			// Stock is not reserved or decremented; this only flags overselling.
			a.logger.WarnContext(ctx, "order quantity exceeds stock",
				slog.String("product_id", p.ID),
				slog.Int("quantity", l.Quantity),
				slog.Int("stock", p.Stock),
			)
		}

		quote := p.Reprice(now)
		items[i] = domain.OrderItem{
			ID:        uuid.New().String(),
			OrderID:   orderID,
			ProductID: p.ID,
			SellerID:  p.SellerID,
			Name:      p.Name,
			Quantity:  l.Quantity,
			UnitPrice: quote.EffectivePrice,
		}
	}
	return items, nil
}
