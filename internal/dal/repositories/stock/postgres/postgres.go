package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/mercatto/stock-reservation/internal/dal/postgres"
	"github.com/mercatto/stock-reservation/internal/service/models/product"
)

// ErrProductNotFound reports that no stock record exists for a product id.
var ErrProductNotFound = errors.New("product not found")

// StockRepository implements the stock repository for PostgreSQL.
type StockRepository struct {
	db postgres.Querier
}

// NewStockRepository creates a new stock repository.
func NewStockRepository(db postgres.Querier) *StockRepository {
	return &StockRepository{
		db: db,
	}
}

// GetByID retrieves one product by its id.
func (r *StockRepository) GetByID(ctx context.Context, productID int64) (product.Product, error) {
	query, args, err := sq.Select(
		"id",
		"name",
		"description",
		"price_cents",
		"quantity",
		"created_at",
		"updated_at",
	).
		From("products").
		Where(sq.Eq{"id": productID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return product.Product{}, fmt.Errorf("failed to build select query: %w", err)
	}

	var p product.Product
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.PriceCents,
		&p.Quantity,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return product.Product{}, ErrProductNotFound
	}
	if err != nil {
		return product.Product{}, fmt.Errorf("failed to query product: %w", err)
	}

	return p, nil
}

// List retrieves all products.
func (r *StockRepository) List(ctx context.Context) ([]product.Product, error) {
	query, args, err := sq.Select(
		"id",
		"name",
		"description",
		"price_cents",
		"quantity",
		"created_at",
		"updated_at",
	).
		From("products").
		OrderBy("id ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []product.Product
	for rows.Next() {
		var p product.Product
		err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Description,
			&p.PriceCents,
			&p.Quantity,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// Insert adds a new product.
func (r *StockRepository) Insert(ctx context.Context, p product.Product) (product.Product, error) {
	now := time.Now()

	query, args, err := sq.Insert("products").
		Columns(
			"name",
			"description",
			"price_cents",
			"quantity",
			"created_at",
			"updated_at",
		).
		Values(
			p.Name,
			p.Description,
			p.PriceCents,
			p.Quantity,
			now,
			now,
		).
		Suffix("RETURNING id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return product.Product{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&p.ID); err != nil {
		return product.Product{}, fmt.Errorf("failed to insert product: %w", err)
	}

	p.CreatedAt = now
	p.UpdatedAt = now

	return p, nil
}

// SetQuantity sets the absolute quantity of a product.
func (r *StockRepository) SetQuantity(ctx context.Context, productID int64, quantity int) (bool, error) {
	query, args, err := sq.Update("products").
		Set("quantity", quantity).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": productID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to set quantity: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Decrement subtracts quantity from a product with no floor. The
// message-driven reservation path assumes batches were validated
// upstream, so quantity may go negative here.
func (r *StockRepository) Decrement(ctx context.Context, productID int64, quantity int) (bool, error) {
	query, args, err := sq.Update("products").
		Set("quantity", sq.Expr("quantity - ?", quantity)).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": productID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to decrement quantity: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// DecrementClamped subtracts quantity but never below zero. Used by the
// direct update path, which takes operator input.
func (r *StockRepository) DecrementClamped(ctx context.Context, productID int64, quantity int) (bool, error) {
	query, args, err := sq.Update("products").
		Set("quantity", sq.Expr("GREATEST(quantity - ?, 0)", quantity)).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": productID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to decrement quantity: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
