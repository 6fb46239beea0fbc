package istockrepo

import (
	"context"

	"github.com/mercatto/stock-reservation/internal/service/models/product"
)

// IStockRepository defines the interface for stock record operations.
type IStockRepository interface {
	// GetByID retrieves one product by its id
	GetByID(ctx context.Context, productID int64) (product.Product, error)

	// List retrieves all products
	List(ctx context.Context) ([]product.Product, error)

	// Insert adds a new product (inventory onboarding)
	Insert(ctx context.Context, p product.Product) (product.Product, error)

	// SetQuantity sets the absolute quantity of a product
	SetQuantity(ctx context.Context, productID int64, quantity int) (bool, error)

	// Decrement subtracts quantity without a floor; returns false when
	// the product does not exist
	Decrement(ctx context.Context, productID int64, quantity int) (bool, error)

	// DecrementClamped subtracts quantity but never below zero; returns
	// false when the product does not exist
	DecrementClamped(ctx context.Context, productID int64, quantity int) (bool, error)
}
