package iorderitemrepo

import (
	"context"

	"github.com/mercatto/stock-reservation/internal/service/models/orderitem"
)

// IOrderItemRepository defines the interface for order item persistence.
type IOrderItemRepository interface {
	// BulkInsert persists order items and returns them with assigned ids
	BulkInsert(ctx context.Context, items []orderitem.OrderItem) ([]orderitem.OrderItem, error)
}
