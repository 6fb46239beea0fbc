package order

import (
	"time"

	"github.com/mercatto/stock-reservation/internal/service/models/orderitem"
	"github.com/mercatto/stock-reservation/internal/service/models/reservation"
)

// Order statuses. An order is created pending; the reservation pipeline
// settles stock asynchronously.
const (
	StatusPending = "pending"
)

// Order represents a sales order whose items produce one reservation
// command batch.
type Order struct {
	ID              int64                 `json:"id"`
	CustomerID      int64                 `json:"customerId"`
	Status          string                `json:"status"`
	TotalPriceCents int64                 `json:"totalPriceCents"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
	OrderItems      []orderitem.OrderItem `json:"orderItems"`
}

// ReservationBatch reduces an order to the command batch published to
// the stock consumer: one command per item, nothing else crosses the
// wire.
func ReservationBatch(o Order) []reservation.Command {
	commands := make([]reservation.Command, 0, len(o.OrderItems))
	for _, item := range o.OrderItems {
		commands = append(commands, reservation.Command{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	return commands
}
