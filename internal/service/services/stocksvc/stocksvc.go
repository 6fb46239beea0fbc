package stocksvc

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"

	"github.com/mercatto/stock-reservation/internal/dal/interfaces/istockrepo"
	"github.com/mercatto/stock-reservation/internal/service/models/product"
)

// StockService is the direct, non-message-driven stock surface:
// inventory onboarding and operator-facing quantity updates. Unlike the
// reservation pipeline, its deduction clamps at zero because it takes
// operator input rather than pre-validated order batches.
type StockService struct {
	stockRepo istockrepo.IStockRepository
}

// option is a function that configures the StockService.
type option func(*StockService)

// MustNewStockService creates a new StockService.
func MustNewStockService(opts ...option) *StockService {
	s := &StockService{}
	for _, opt := range opts {
		opt(s)
	}

	if s.stockRepo == nil {
		panic("stocksvc: stock repository is not configured")
	}

	return s
}

// WithStockRepository sets the stock repository for the StockService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithStockRepository(stockRepo istockrepo.IStockRepository) option {
	return func(s *StockService) {
		s.stockRepo = stockRepo
	}
}

// ListProducts returns all stock records.
func (s *StockService) ListProducts(ctx context.Context) ([]product.Product, error) {
	return s.stockRepo.List(ctx)
}

// AddProduct onboards a new product into the inventory.
func (s *StockService) AddProduct(ctx context.Context, p product.Product) (product.Product, error) {
	if p.Quantity < 0 {
		return product.Product{}, fmt.Errorf("initial quantity must not be negative")
	}

	created, err := s.stockRepo.Insert(ctx, p)
	if err != nil {
		return product.Product{}, err
	}

	slog.Info("Product added", "product_id", created.ID, "quantity", created.Quantity)

	return created, nil
}

// SetQuantity sets the absolute quantity of a product. Returns false
// when the product does not exist.
func (s *StockService) SetQuantity(ctx context.Context, productID int64, quantity int) (bool, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "Service.SetQuantity")
	defer span.End()

	return s.stockRepo.SetQuantity(ctx, productID, quantity)
}

// Deduct subtracts quantity from a product, clamped at zero. Returns
// false when the product does not exist.
func (s *StockService) Deduct(ctx context.Context, productID int64, quantity int) (bool, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "Service.Deduct")
	defer span.End()

	return s.stockRepo.DecrementClamped(ctx, productID, quantity)
}
