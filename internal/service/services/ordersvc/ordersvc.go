package ordersvc

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"

	"github.com/mercatto/stock-reservation/internal/dal/interfaces/iorderitemrepo"
	"github.com/mercatto/stock-reservation/internal/dal/interfaces/iorderrepo"
	"github.com/mercatto/stock-reservation/internal/dal/uow"
	"github.com/mercatto/stock-reservation/internal/service/models/order"
	"github.com/mercatto/stock-reservation/internal/service/services/publisher"
)

// unitOfWork is the transaction scope the service runs inside.
type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	OrderRepository() iorderrepo.IOrderRepository
	OrderItemRepository() iorderitemrepo.IOrderItemRepository
}

// OrderService creates orders and hands their reservation batches to
// the publisher.
type OrderService struct {
	db        uow.DB
	publisher publisher.Publisher
	queue     string
}

func (s *OrderService) newUOW() unitOfWork {
	return uow.NewUnitOfWork(s.db)
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{
		queue: viper.GetString("rabbitmq.queue"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.db == nil {
		panic("ordersvc: database is not configured")
	}
	if s.publisher == nil {
		panic("ordersvc: publisher is not configured")
	}

	return s
}

// WithDB sets the database for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithDB(db uow.DB) option {
	return func(s *OrderService) {
		s.db = db
	}
}

// WithPublisher sets the publisher for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPublisher(p publisher.Publisher) option {
	return func(s *OrderService) {
		s.publisher = p
	}
}

// WithQueue sets the target queue for reservation batches.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithQueue(queue string) option {
	return func(s *OrderService) {
		s.queue = queue
	}
}

// CreateOrder persists an order with its items in one transaction and
// publishes the reservation command batch with the order id as
// correlation id. A publish failure is returned to the caller after the
// order is already committed; the caller decides whether the operation
// fails.
func (s *OrderService) CreateOrder(ctx context.Context, o order.Order) (order.Order, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "Service.CreateOrder")
	defer span.End()

	if len(o.OrderItems) == 0 {
		return order.Order{}, fmt.Errorf("order must contain at least one item")
	}

	now := time.Now()
	o.Status = order.StatusPending
	o.CreatedAt = now
	o.UpdatedAt = now

	var total int64
	for i := range o.OrderItems {
		o.OrderItems[i].CreatedAt = now
		o.OrderItems[i].UpdatedAt = now
		total += o.OrderItems[i].PriceCents * int64(o.OrderItems[i].Quantity)
	}
	o.TotalPriceCents = total

	work := s.newUOW()

	if err := work.Begin(ctx); err != nil {
		return order.Order{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = work.Rollback(ctx)
	}()

	o, err := work.OrderRepository().Insert(ctx, o)
	if err != nil {
		return order.Order{}, err
	}

	for i := range o.OrderItems {
		o.OrderItems[i].OrderID = o.ID
	}

	o.OrderItems, err = work.OrderItemRepository().BulkInsert(ctx, o.OrderItems)
	if err != nil {
		return order.Order{}, err
	}

	if err := work.Commit(ctx); err != nil {
		return order.Order{}, fmt.Errorf("failed to commit order: %w", err)
	}

	commands := order.ReservationBatch(o)
	correlationID := strconv.FormatInt(o.ID, 10)

	if err := s.publisher.Publish(ctx, s.queue, commands, correlationID); err != nil {
		slog.Error("Failed to publish reservation batch",
			"order_id", o.ID,
			"error", err)

		return o, fmt.Errorf("order %d created but reservation publish failed: %w", o.ID, err)
	}

	slog.Info("Order created", "order_id", o.ID, "items", len(o.OrderItems))

	return o, nil
}
