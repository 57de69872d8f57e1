package postgres

import (
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
)

// ─────────────────────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────────────────────

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func strPtr(s string) *string              { return &s }
func timePtr(t time.Time) *time.Time       { return &t }
func dec(s string) decimal.Decimal         { return decimal.RequireFromString(s) }
func nullDec(s string) decimal.NullDecimal { return decimal.NewNullDecimal(dec(s)) }

var now = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

// ─── Product rows ───────────────────────────────────────────────────────────

var productColumns = []string{
	"id", "seller_id", "seller_name", "name", "slug", "description",
	"category_id", "images", "base_price", "current_price", "stock",
	"discount_percentage", "discount_starts_at", "discount_ends_at",
	"discount_enabled", "discount_applied_at",
	"rating_average", "rating_count", "status", "created_at", "updated_at",
}

func sampleProduct() domain.Product {
	return domain.Product{
		ID:            "prod-1",
		SellerID:      "seller-1",
		Name:          "Desk Lamp",
		Slug:          "desk-lamp",
		Description:   "Brass lamp",
		CategoryID:    strPtr("cat-1"),
		Images:        []string{"https://cdn.example.com/lamp.jpg"},
		BasePrice:     dec("1000"),
		CurrentPrice:  dec("1000"),
		Stock:         7,
		RatingAverage: decimal.Zero,
		Status:        domain.ProductStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// productRow renders p as a result row. A nil Discount yields NULL discount
// columns.
func productRow(p domain.Product, sellerName string) []any {
	var (
		pct                         any
		startsAt, endsAt, appliedAt any
	)
	enabled := false
	if p.Discount != nil {
		pct = decimal.NewNullDecimal(p.Discount.Percentage)
		startsAt = timePtr(p.Discount.StartsAt)
		endsAt = timePtr(p.Discount.EndsAt)
		appliedAt = timePtr(p.Discount.AppliedAt)
		enabled = p.Discount.Enabled
	}
	return []any{
		p.ID, p.SellerID, sellerName, p.Name, p.Slug, p.Description,
		p.CategoryID, p.Images, p.BasePrice, p.CurrentPrice, p.Stock,
		pct, startsAt, endsAt, enabled, appliedAt,
		p.RatingAverage, p.RatingCount, p.Status, p.CreatedAt, p.UpdatedAt,
	}
}

func discountedProduct() domain.Product {
	p := sampleProduct()
	p.Discount = &domain.Discount{
		Percentage: dec("20"),
		StartsAt:   now.Add(-time.Hour),
		EndsAt:     now.Add(24 * time.Hour),
		Enabled:    true,
		AppliedAt:  now.Add(-time.Hour),
	}
	p.CurrentPrice = dec("800")
	return p
}

// ─── Order rows ─────────────────────────────────────────────────────────────

var orderColumns = []string{
	"id", "buyer_id", "buyer_name", "seller_id", "status",
	"shipping_address", "payment_method",
	"subtotal", "shipping_amount", "tax_amount", "total",
	"created_at", "updated_at", "items",
}

func sampleOrder() domain.Order {
	return domain.Order{
		ID:              "order-1",
		BuyerID:         "buyer-1",
		SellerID:        strPtr("seller-1"),
		Status:          domain.OrderStatusPending,
		ShippingAddress: domain.Address{Street: "Av. Siempre Viva", Number: "742", City: "Springfield"},
		PaymentMethod:   "tarjeta",
		Items: []domain.OrderItem{
			{ID: "item-1", OrderID: "order-1", ProductID: "prod-1", SellerID: "seller-1", Name: "Desk Lamp",
				Quantity: 2, UnitPrice: dec("800"), LineTotal: dec("1600")},
		},
		Subtotal:       dec("1600"),
		ShippingAmount: dec("10"),
		TaxAmount:      dec("256"),
		Total:          dec("1866"),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func orderRow(o domain.Order, buyerName string) []any {
	address := []byte(`{"street":"Av. Siempre Viva","number":"742","city":"Springfield"}`)
	items := []byte(`[{"id":"item-1","order_id":"order-1","product_id":"prod-1","seller_id":"seller-1","name":"Desk Lamp","quantity":2,"unit_price":800,"line_total":1600}]`)
	return []any{
		o.ID, o.BuyerID, buyerName, o.SellerID, o.Status,
		address, o.PaymentMethod,
		o.Subtotal, o.ShippingAmount, o.TaxAmount, o.Total,
		o.CreatedAt, o.UpdatedAt, items,
	}
}

// ─── Notification rows ──────────────────────────────────────────────────────

var notificationColumnNames = []string{
	"id", "recipient_id", "title", "body", "read", "read_at", "metadata", "created_at",
}

func sampleNotification() domain.Notification {
	return domain.Notification{
		ID:          "note-1",
		RecipientID: "seller-1",
		Title:       "New order received",
		Body:        "Order order-1 includes 2 unit(s) of your products.",
		Metadata:    map[string]string{"order_id": "order-1"},
		CreatedAt:   now,
	}
}
