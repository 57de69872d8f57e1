package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Order status constants.
const (
	OrderStatusPending   = "pending"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

var statusAliases = map[string]string{
	"pending":   OrderStatusPending,
	"pendiente": OrderStatusPending,
	"shipped":   OrderStatusShipped,
	"enviado":   OrderStatusShipped,
	"delivered": OrderStatusDelivered,
	"entregado": OrderStatusDelivered,
	"cancelled": OrderStatusCancelled,
	"canceled":  OrderStatusCancelled,
	"cancelado": OrderStatusCancelled,
}

// Order represents a buyer's purchase. Items, captured prices and totals are
// frozen at creation; only Status and UpdatedAt change afterwards.
type Order struct {
	ID              string          `json:"id"`
	BuyerID         string          `json:"buyer_id"`
	Buyer           *UserRef        `json:"buyer,omitempty"`
	SellerID        *string         `json:"seller_id,omitempty"`
	Status          string          `json:"status"`
	Items           []OrderItem     `json:"items"`
	ShippingAddress Address         `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ShippingAmount  decimal.Decimal `json:"shipping_amount"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	Total           decimal.Decimal `json:"total"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Address is the shipping destination of an order.
type Address struct {
	Street       string `json:"street,omitempty"`
	Number       string `json:"number,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	Country      string `json:"country,omitempty"`
}

// IsEmpty reports whether every field is blank.
func (a Address) IsEmpty() bool {
	for _, f := range []string{a.Street, a.Number, a.Neighborhood, a.City, a.State, a.PostalCode, a.Country} {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// ValidStatuses returns all order statuses.
func ValidStatuses() []string {
	return []string{
		OrderStatusPending,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}
}

// ParseOrderStatus normalizes an English or Spanish status name.
func ParseOrderStatus(s string) (string, bool) {
	status, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]
	return status, ok
}

// AllowedTransitions defines which status transitions are valid.
func AllowedTransitions() map[string][]string {
	return map[string][]string{
		OrderStatusPending:   {OrderStatusShipped, OrderStatusCancelled},
		OrderStatusShipped:   {OrderStatusDelivered},
		OrderStatusDelivered: {},
		OrderStatusCancelled: {},
	}
}

// IsTerminal reports whether no transition leaves status.
func IsTerminal(status string) bool {
	allowed, ok := AllowedTransitions()[status]
	return ok && len(allowed) == 0
}

// CanTransitionTo checks if the order can transition to the target status.
func (o *Order) CanTransitionTo(target string) bool {
	return slices.Contains(AllowedTransitions()[o.Status], target)
}

// SellerIDs returns the distinct sellers of the order's items in item order.
func (o *Order) SellerIDs() []string {
	ids := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		if !slices.Contains(ids, item.SellerID) {
			ids = append(ids, item.SellerID)
		}
	}
	return ids
}

// HasSeller reports whether sellerID owns at least one item.
func (o *Order) HasSeller(sellerID string) bool {
	if sellerID == "" {
		return false
	}
	return slices.ContainsFunc(o.Items, func(i OrderItem) bool { return i.SellerID == sellerID })
}

// CanView reports whether the actor may read the order.
func (o *Order) CanView(a Actor) bool {
	return a.IsAdmin() || a.ID == o.BuyerID || o.HasSeller(a.ID)
}

// CanBeMovedBy reports whether the actor may move the order to target. It does
// not check that target is a valid edge.
func (o *Order) CanBeMovedBy(a Actor, target string) bool {
	if a.IsAdmin() || o.HasSeller(a.ID) {
		return true
	}
	return target == OrderStatusCancelled && a.ID != "" && a.ID == o.BuyerID
}
