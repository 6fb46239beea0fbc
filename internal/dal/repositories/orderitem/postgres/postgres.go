package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/mercatto/stock-reservation/internal/dal/postgres"
	"github.com/mercatto/stock-reservation/internal/service/models/orderitem"
)

// OrderItemRepository implements the order item repository for PostgreSQL.
type OrderItemRepository struct {
	db postgres.Querier
}

// NewOrderItemRepository creates a new order item repository.
func NewOrderItemRepository(db postgres.Querier) *OrderItemRepository {
	return &OrderItemRepository{
		db: db,
	}
}

// BulkInsert persists order items and returns them with assigned ids.
func (r *OrderItemRepository) BulkInsert(
	ctx context.Context,
	items []orderitem.OrderItem,
) ([]orderitem.OrderItem, error) {
	if len(items) == 0 {
		return items, nil
	}

	builder := sq.Insert("order_items").
		Columns(
			"order_id",
			"product_id",
			"quantity",
			"product_title",
			"price_cents",
			"created_at",
			"updated_at",
		).
		PlaceholderFormat(sq.Dollar)

	for _, item := range items {
		builder = builder.Values(
			item.OrderID,
			item.ProductID,
			item.Quantity,
			item.ProductTitle,
			item.PriceCents,
			item.CreatedAt,
			item.UpdatedAt,
		)
	}

	query, args, err := builder.Suffix("RETURNING id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to bulk insert order items: %w", err)
	}
	defer rows.Close()

	for i := 0; rows.Next(); i++ {
		if err := rows.Scan(&items[i].ID); err != nil {
			return nil, fmt.Errorf("failed to scan order item id: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order item ids: %w", err)
	}

	return items, nil
}
