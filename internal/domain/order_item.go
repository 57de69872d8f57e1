package domain

import "github.com/shopspring/decimal"

// OrderItem represents a line item in an order. UnitPrice is the product's
// effective price captured when the order was placed.
type OrderItem struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"order_id"`
	ProductID string          `json:"product_id"`
	SellerID  string          `json:"seller_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// ComputeLineTotal returns the unit price times the quantity.
func (i *OrderItem) ComputeLineTotal() decimal.Decimal {
	return RoundMoney(i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity))))
}

// Pricing holds the flat shipping fee and tax rate applied to every order.
type Pricing struct {
	ShippingFlatFee decimal.Decimal
	TaxRate         decimal.Decimal
}

// Totals is the money breakdown of an order.
type Totals struct {
	Subtotal       decimal.Decimal
	ShippingAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
}

// Compute fills each item's LineTotal and returns the order totals.
func (p Pricing) Compute(items []OrderItem) Totals {
	subtotal := decimal.Zero
	for i := range items {
		items[i].LineTotal = items[i].ComputeLineTotal()
		subtotal = subtotal.Add(items[i].LineTotal)
	}
	tax := RoundMoney(subtotal.Mul(p.TaxRate))
	shipping := RoundMoney(p.ShippingFlatFee)
	return Totals{
		Subtotal:       subtotal,
		ShippingAmount: shipping,
		TaxAmount:      tax,
		Total:          subtotal.Add(shipping).Add(tax),
	}
}
