package ordersvc

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/mercatto/stock-reservation/internal/service/models/order"
	"github.com/mercatto/stock-reservation/internal/service/models/orderitem"
	"github.com/mercatto/stock-reservation/internal/service/models/reservation"
	"github.com/mercatto/stock-reservation/internal/service/services/publisher"
)

func newServiceWithMock(t *testing.T, pub publisher.Publisher) (*OrderService, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	svc := MustNewOrderService(
		WithDB(mock),
		WithPublisher(pub),
		WithQueue("stock-reservations"),
	)

	return svc, mock
}

// anyArgs builds a matcher per bound placeholder; the queries bind 5
// columns per order and 7 per item.
func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}

	return args
}

func expectOrderInsert(mock pgxmock.PgxPoolIface, orderID int64, itemIDs ...int64) {
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO orders").
		WithArgs(anyArgs(5)...).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(orderID))

	itemRows := pgxmock.NewRows([]string{"id"})
	for _, id := range itemIDs {
		itemRows.AddRow(id)
	}
	mock.ExpectQuery("INSERT INTO order_items").
		WithArgs(anyArgs(7 * len(itemIDs))...).
		WillReturnRows(itemRows)
	mock.ExpectCommit()
	mock.ExpectRollback()
}

func TestCreateOrder_PersistsAndPublishesBatch(t *testing.T) {
	rec := publisher.NewRecorder()
	svc, mock := newServiceWithMock(t, rec)

	expectOrderInsert(mock, 42, 1, 2)

	created, err := svc.CreateOrder(context.Background(), order.Order{
		CustomerID: 7,
		OrderItems: []orderitem.OrderItem{
			{ProductID: 1, Quantity: 3, PriceCents: 1000},
			{ProductID: 2, Quantity: 1, PriceCents: 500},
		},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Equal(t, int64(42), created.ID)
	require.Equal(t, order.StatusPending, created.Status)
	require.Equal(t, int64(3500), created.TotalPriceCents)
	for _, item := range created.OrderItems {
		require.Equal(t, int64(42), item.OrderID)
	}

	published := rec.Published()
	require.Len(t, published, 1)
	require.Equal(t, "stock-reservations", published[0].Queue)
	require.Equal(t, "42", published[0].CorrelationID)
	require.Equal(t, []reservation.Command{
		{ProductID: 1, Quantity: 3},
		{ProductID: 2, Quantity: 1},
	}, published[0].Commands)
}

func TestCreateOrder_RejectsEmptyOrder(t *testing.T) {
	rec := publisher.NewRecorder()
	svc, _ := newServiceWithMock(t, rec)

	_, err := svc.CreateOrder(context.Background(), order.Order{CustomerID: 7})
	require.Error(t, err)
	require.Empty(t, rec.Published())
}

func TestCreateOrder_PublishFailurePropagatesAfterCommit(t *testing.T) {
	rec := publisher.NewRecorder()
	rec.Err = errors.New("broker down")
	svc, mock := newServiceWithMock(t, rec)

	expectOrderInsert(mock, 43, 1)

	created, err := svc.CreateOrder(context.Background(), order.Order{
		CustomerID: 7,
		OrderItems: []orderitem.OrderItem{{ProductID: 1, Quantity: 1, PriceCents: 100}},
	})

	// The order is already durable; the caller owns the decision of
	// whether the originating operation fails.
	require.Error(t, err)
	require.Equal(t, int64(43), created.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
