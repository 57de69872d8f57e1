package repository

import "errors"

// ErrStatusChanged is returned when a compare-and-set on an order status
// finds a different current status.
var ErrStatusChanged = errors.New("order status changed concurrently")
