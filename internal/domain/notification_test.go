package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedEmitter(now time.Time) *NotificationEmitter {
	e := NewNotificationEmitter(func() time.Time { return now })
	n := 0
	e.newID = func() string {
		n++
		return string(rune('a' + n - 1))
	}
	return e
}

func TestNotificationEmitter_OrderCreated_OnePerSeller(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	o := twoSellerOrder()
	o.ID = "order-1"

	notes := fixedEmitter(now).OrderCreated(o)

	require.Len(t, notes, 2)
	assert.Equal(t, "seller-b", notes[0].RecipientID)
	assert.Equal(t, "seller-a", notes[1].RecipientID)
	assert.Equal(t, "order-1", notes[0].Metadata["order_id"])
	assert.Equal(t, OrderStatusPending, notes[0].Metadata["status"])
	assert.Contains(t, notes[0].Body, "2 unit(s)")
	assert.Contains(t, notes[1].Body, "2 unit(s)")
	assert.Equal(t, now, notes[0].CreatedAt)
	assert.False(t, notes[0].Read)
	assert.NotEqual(t, notes[0].ID, notes[1].ID)
}

func TestNotificationEmitter_OrderStatusChanged(t *testing.T) {
	o := twoSellerOrder()
	o.ID = "order-9"

	notes := fixedEmitter(time.Now()).OrderStatusChanged(o, OrderStatusPending, OrderStatusCancelled)

	require.Len(t, notes, 2)
	assert.Equal(t, "Order cancelled", notes[0].Title)
	assert.Equal(t, OrderStatusCancelled, notes[0].Metadata["status"])
	assert.Equal(t, OrderStatusPending, notes[0].Metadata["previous_status"])
	assert.Contains(t, notes[1].Body, "order-9")
}

func TestNotificationEmitter_MetadataNotShared(t *testing.T) {
	notes := fixedEmitter(time.Now()).OrderCreated(twoSellerOrder())
	require.Len(t, notes, 2)
	notes[0].Metadata["extra"] = "x"
	_, ok := notes[1].Metadata["extra"]
	assert.False(t, ok)
}

func TestNotificationMarkRead_Idempotent(t *testing.T) {
	n := &Notification{RecipientID: "seller-1"}
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, n.MarkRead(first))
	assert.True(t, n.Read)
	require.NotNil(t, n.ReadAt)

	assert.False(t, n.MarkRead(first.Add(time.Hour)))
	assert.Equal(t, first, *n.ReadAt)
}

func TestNotificationCanBeReadBy(t *testing.T) {
	n := &Notification{RecipientID: "seller-1"}
	assert.True(t, n.CanBeReadBy(Actor{ID: "seller-1", Role: RoleSeller}))
	assert.True(t, n.CanBeReadBy(Actor{ID: "ops", Role: RoleAdmin}))
	assert.False(t, n.CanBeReadBy(Actor{ID: "seller-2", Role: RoleSeller}))
}
