package iorderrepo

import (
	"context"

	"github.com/mercatto/stock-reservation/internal/service/models/order"
)

// IOrderRepository defines the interface for order persistence.
type IOrderRepository interface {
	// Insert persists an order and returns it with the assigned id
	Insert(ctx context.Context, o order.Order) (order.Order, error)
}
