package orders

import "errors"

var (
	ErrEmptyCart   = errors.New("cart is empty")
	ErrInvalidItem = errors.New("invalid order item")
	ErrNotFound    = errors.New("order not found")
)
