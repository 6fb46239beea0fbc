package orderitem

import (
	"time"
)

// OrderItem represents an item within an order.
type OrderItem struct {
	ID           int64     `json:"id"`
	OrderID      int64     `json:"orderId"`
	ProductID    int64     `json:"productId"`
	Quantity     int       `json:"quantity"`
	ProductTitle string    `json:"productTitle"`
	PriceCents   int64     `json:"priceCents"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
