package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/mercatto/stock-reservation/internal/dal/postgres"
	"github.com/mercatto/stock-reservation/internal/service/models/order"
)

// OrderRepository implements the order repository for PostgreSQL.
type OrderRepository struct {
	db postgres.Querier
}

// NewOrderRepository creates a new order repository.
func NewOrderRepository(db postgres.Querier) *OrderRepository {
	return &OrderRepository{
		db: db,
	}
}

// Insert persists an order and returns it with the assigned id.
func (r *OrderRepository) Insert(ctx context.Context, o order.Order) (order.Order, error) {
	query, args, err := sq.Insert("orders").
		Columns(
			"customer_id",
			"status",
			"total_price_cents",
			"created_at",
			"updated_at",
		).
		Values(
			o.CustomerID,
			o.Status,
			o.TotalPriceCents,
			o.CreatedAt,
			o.UpdatedAt,
		).
		Suffix("RETURNING id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&o.ID); err != nil {
		return order.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}

	return o, nil
}
