package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Notification is a message addressed to a seller.
type Notification struct {
	ID          string            `json:"id"`
	RecipientID string            `json:"recipient_id"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Read        bool              `json:"read"`
	ReadAt      *time.Time        `json:"read_at,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// CanBeReadBy reports whether the actor may see or mark the notification.
func (n *Notification) CanBeReadBy(a Actor) bool {
	return a.IsAdmin() || (a.ID != "" && a.ID == n.RecipientID)
}

// MarkRead flags the notification read. It returns false when it already was.
func (n *Notification) MarkRead(now time.Time) bool {
	if n.Read {
		return false
	}
	n.Read = true
	n.ReadAt = &now
	return true
}

var statusTitles = map[string]string{
	OrderStatusShipped:   "Order shipped",
	OrderStatusDelivered: "Order delivered",
	OrderStatusCancelled: "Order cancelled",
}

// NotificationEmitter builds seller notifications for order events.
type NotificationEmitter struct {
	now   func() time.Time
	newID func() string
}

// NewNotificationEmitter creates an emitter stamping notifications with now.
func NewNotificationEmitter(now func() time.Time) *NotificationEmitter {
	return &NotificationEmitter{now: now, newID: uuid.NewString}
}

// OrderCreated returns one notification per distinct seller in the order.
func (e *NotificationEmitter) OrderCreated(o *Order) []Notification {
	return e.forSellers(o, "New order received", func(sellerID string) string {
		units := 0
		for _, item := range o.Items {
			if item.SellerID == sellerID {
				units += item.Quantity
			}
		}
		return fmt.Sprintf("Order %s includes %d unit(s) of your products.", o.ID, units)
	}, map[string]string{"status": o.Status})
}

// OrderStatusChanged returns one notification per distinct seller in the order.
func (e *NotificationEmitter) OrderStatusChanged(o *Order, from, to string) []Notification {
	title, ok := statusTitles[to]
	if !ok {
		title = "Order updated"
	}
	return e.forSellers(o, title, func(string) string {
		return fmt.Sprintf("Order %s moved from %s to %s.", o.ID, from, to)
	}, map[string]string{"status": to, "previous_status": from})
}

func (e *NotificationEmitter) forSellers(o *Order, title string, body func(sellerID string) string, meta map[string]string) []Notification {
	now := e.now()
	sellers := o.SellerIDs()
	out := make([]Notification, 0, len(sellers))
	for _, sellerID := range sellers {
		md := map[string]string{"order_id": o.ID}
		for k, v := range meta {
			md[k] = v
		}
		out = append(out, Notification{
			ID:          e.newID(),
			RecipientID: sellerID,
			Title:       title,
			Body:        body(sellerID),
			Metadata:    md,
			CreatedAt:   now,
		})
	}
	return out
}
