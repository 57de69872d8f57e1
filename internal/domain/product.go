package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product status constants.
const (
	ProductStatusActive   = "active"
	ProductStatusArchived = "archived"
)

// Product is a catalog entry owned by a single seller.
type Product struct {
	ID             string          `json:"id"`
	SellerID       string          `json:"seller_id"`
	Seller         *UserRef        `json:"seller,omitempty"`
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	Description    string          `json:"description,omitempty"`
	CategoryID     *string         `json:"category_id,omitempty"`
	Images         []string        `json:"images"`
	BasePrice      decimal.Decimal `json:"base_price"`
	CurrentPrice   decimal.Decimal `json:"current_price"`
	Stock          int             `json:"stock"`
	Discount       *Discount       `json:"discount,omitempty"`
	DiscountActive bool            `json:"discount_active"`
	RatingAverage  decimal.Decimal `json:"rating_average"`
	RatingCount    int             `json:"rating_count"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Reprice runs the discount engine at now and stores the result in
// CurrentPrice and DiscountActive.
func (p *Product) Reprice(now time.Time) PriceQuote {
	q := EvaluateDiscount(p.BasePrice, p.Discount, now)
	p.CurrentPrice = q.EffectivePrice
	p.DiscountActive = q.IsActive
	return q
}

// ClearDiscount removes the discount and restores the base price.
func (p *Product) ClearDiscount() {
	p.Discount = nil
	p.CurrentPrice = p.BasePrice
	p.DiscountActive = false
}

// IsActive reports whether the product can be listed and ordered.
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// OwnedBy reports whether sellerID owns the product.
func (p *Product) OwnedBy(sellerID string) bool {
	return sellerID != "" && p.SellerID == sellerID
}

// ProductSales is one row of the top-selling products report.
type ProductSales struct {
	ProductID    string          `json:"product_id"`
	Name         string          `json:"name"`
	SellerID     string          `json:"seller_id"`
	QuantitySold int64           `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
	OrderCount   int64           `json:"order_count"`
}
