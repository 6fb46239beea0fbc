package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/mercatto/stock-reservation/internal/service/models/product"
)

func newRepoWithMock(t *testing.T) (*StockRepository, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return NewStockRepository(mock), mock
}

func productRow(p product.Product) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "name", "description", "price_cents", "quantity", "created_at", "updated_at",
	}).AddRow(p.ID, p.Name, p.Description, p.PriceCents, p.Quantity, p.CreatedAt, p.UpdatedAt)
}

func TestGetByID_ReturnsProduct(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	now := time.Now()
	want := product.Product{
		ID:          1,
		Name:        "Keyboard",
		Description: "Mechanical, tenkeyless",
		PriceCents:  12900,
		Quantity:    25,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	mock.ExpectQuery("SELECT id, name, description, price_cents, quantity, created_at, updated_at FROM products").
		WithArgs(int64(1)).
		WillReturnRows(productRow(want))

	got, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_UnknownProduct(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery("SELECT id, name, description, price_cents, quantity, created_at, updated_at FROM products").
		WithArgs(int64(404)).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 404)
	require.ErrorIs(t, err, ErrProductNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_ReturnsAssignedID(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery("INSERT INTO products").
		WithArgs("Keyboard", "Mechanical, tenkeyless", int64(12900), 25, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(9)))

	got, err := repo.Insert(context.Background(), product.Product{
		Name:        "Keyboard",
		Description: "Mechanical, tenkeyless",
		PriceCents:  12900,
		Quantity:    25,
	})
	require.NoError(t, err)
	require.EqualValues(t, 9, got.ID)
	require.False(t, got.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDecrement_HasNoFloor(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	// The reservation path subtracts unconditionally; the balance is
	// allowed to go negative.
	mock.ExpectExec(`UPDATE products SET quantity = quantity - \$1`).
		WithArgs(3, pgxmock.AnyArg(), int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ok, err := repo.Decrement(context.Background(), 1, 3)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDecrement_UnknownProductAffectsNoRows(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`UPDATE products SET quantity = quantity - \$1`).
		WithArgs(3, pgxmock.AnyArg(), int64(404)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := repo.Decrement(context.Background(), 404, 3)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDecrementClamped_StopsAtZero(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`UPDATE products SET quantity = GREATEST\(quantity - \$1, 0\)`).
		WithArgs(99, pgxmock.AnyArg(), int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ok, err := repo.DecrementClamped(context.Background(), 1, 99)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetQuantity_ReportsMissingProduct(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec("UPDATE products SET quantity").
		WithArgs(10, pgxmock.AnyArg(), int64(404)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := repo.SetQuantity(context.Background(), 404, 10)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}
