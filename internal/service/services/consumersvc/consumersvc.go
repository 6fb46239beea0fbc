package consumersvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/mercatto/stock-reservation/internal/dal/interfaces/iledgerrepo"
	"github.com/mercatto/stock-reservation/internal/dal/interfaces/istockrepo"
	"github.com/mercatto/stock-reservation/internal/dal/uow"
	"github.com/mercatto/stock-reservation/internal/service/models/ledger"
	"github.com/mercatto/stock-reservation/internal/service/models/reservation"
)

// unitOfWork is the transaction scope the service runs inside.
type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	StockRepository() istockrepo.IStockRepository
	LedgerRepository() iledgerrepo.ILedgerRepository
}

// ConsumerService applies reservation command batches to the stock
// store, exactly once in effect per message id.
type ConsumerService struct {
	db uow.DB
}

func (s *ConsumerService) newUOW() unitOfWork {
	return uow.NewUnitOfWork(s.db)
}

// option is a function that configures the ConsumerService.
type option func(*ConsumerService)

// MustNewConsumerService creates a new ConsumerService.
func MustNewConsumerService(opts ...option) *ConsumerService {
	s := &ConsumerService{}
	for _, opt := range opts {
		opt(s)
	}

	if s.db == nil {
		panic("consumersvc: database is not configured")
	}

	return s
}

// WithDB sets the database for the ConsumerService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithDB(db uow.DB) option {
	return func(s *ConsumerService) {
		s.db = db
	}
}

// ApplyReservations applies one command batch under the given message
// id. The ledger lookup, the stock decrements, and the ledger insert
// share one transaction: either the batch fully applies together with
// its ledger entry, or nothing happened at all.
//
// Returns ledger.ErrAlreadyProcessed for a duplicate message id,
// including the case where a concurrent consumer instance wins the
// ledger insert race.
func (s *ConsumerService) ApplyReservations(
	ctx context.Context,
	messageID string,
	commands []reservation.Command,
) error {
	ctx, span := otel.Tracer("service").Start(ctx, "Service.ApplyReservations")
	defer span.End()

	work := s.newUOW()

	if err := work.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// No-op after a successful commit.
		_ = work.Rollback(ctx)
	}()

	processed, err := work.LedgerRepository().Exists(ctx, messageID)
	if err != nil {
		return err
	}
	if processed {
		return fmt.Errorf("message %s: %w", messageID, ledger.ErrAlreadyProcessed)
	}

	for _, cmd := range commands {
		found, err := work.StockRepository().Decrement(ctx, cmd.ProductID, cmd.Quantity)
		if err != nil {
			return err
		}
		if !found {
			// Unknown products are a data gap, not a failure: skip and
			// keep the rest of the batch.
			slog.Warn("Product not found, skipping",
				"message_id", messageID,
				"product_id", cmd.ProductID)

			continue
		}

		slog.Info("Stock decremented",
			"message_id", messageID,
			"product_id", cmd.ProductID,
			"quantity", cmd.Quantity)
	}

	if err := work.LedgerRepository().Insert(ctx, ledger.Entry{
		MessageID:   messageID,
		ProcessedAt: time.Now(),
	}); err != nil {
		if errors.Is(err, ledger.ErrAlreadyProcessed) {
			return err
		}

		return fmt.Errorf("failed to record message in ledger: %w", err)
	}

	if err := work.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit reservation batch: %w", err)
	}

	return nil
}
