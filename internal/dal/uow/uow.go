package uow

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/mercatto/stock-reservation/internal/dal/interfaces/iledgerrepo"
	"github.com/mercatto/stock-reservation/internal/dal/interfaces/iorderitemrepo"
	"github.com/mercatto/stock-reservation/internal/dal/interfaces/iorderrepo"
	"github.com/mercatto/stock-reservation/internal/dal/interfaces/istockrepo"
	"github.com/mercatto/stock-reservation/internal/dal/postgres"
	ledgerrepo "github.com/mercatto/stock-reservation/internal/dal/repositories/ledger/postgres"
	orderrepo "github.com/mercatto/stock-reservation/internal/dal/repositories/order/postgres"
	orderitemrepo "github.com/mercatto/stock-reservation/internal/dal/repositories/orderitem/postgres"
	stockrepo "github.com/mercatto/stock-reservation/internal/dal/repositories/stock/postgres"
)

// DB is the connection surface the unit of work needs: query execution
// plus the ability to open a transaction. *pgxpool.Pool satisfies it.
type DB interface {
	postgres.Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

type unitOfWork struct {
	db DB
	tx pgx.Tx

	stockRepo     istockrepo.IStockRepository
	ledgerRepo    iledgerrepo.ILedgerRepository
	orderRepo     iorderrepo.IOrderRepository
	orderItemRepo iorderitemrepo.IOrderItemRepository
}

// NewUnitOfWork creates a unit of work over the given database. Until
// Begin is called the repositories run outside any transaction.
func NewUnitOfWork(db DB) *unitOfWork {
	return &unitOfWork{
		db:            db,
		stockRepo:     stockrepo.NewStockRepository(db),
		ledgerRepo:    ledgerrepo.NewLedgerRepository(db),
		orderRepo:     orderrepo.NewOrderRepository(db),
		orderItemRepo: orderitemrepo.NewOrderItemRepository(db),
	}
}

func (u *unitOfWork) StockRepository() istockrepo.IStockRepository {
	return u.stockRepo
}

func (u *unitOfWork) LedgerRepository() iledgerrepo.ILedgerRepository {
	return u.ledgerRepo
}

func (u *unitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return u.orderRepo
}

func (u *unitOfWork) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return u.orderItemRepo
}

// Begin opens a transaction and rebinds all repositories to it.
func (u *unitOfWork) Begin(ctx context.Context) error {
	tx, err := u.db.Begin(ctx)
	if err != nil {
		return err
	}

	u.tx = tx
	u.stockRepo = stockrepo.NewStockRepository(tx)
	u.ledgerRepo = ledgerrepo.NewLedgerRepository(tx)
	u.orderRepo = orderrepo.NewOrderRepository(tx)
	u.orderItemRepo = orderitemrepo.NewOrderItemRepository(tx)

	return nil
}

func (u *unitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}

	return u.tx.Commit(ctx)
}

func (u *unitOfWork) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}

	return u.tx.Rollback(ctx)
}
