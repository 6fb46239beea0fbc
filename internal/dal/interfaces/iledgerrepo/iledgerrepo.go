package iledgerrepo

import (
	"context"
	"time"

	"github.com/mercatto/stock-reservation/internal/service/models/ledger"
)

// ILedgerRepository defines the interface for the idempotency ledger.
type ILedgerRepository interface {
	// Exists reports whether a message id has already been applied
	Exists(ctx context.Context, messageID string) (bool, error)

	// Insert records a message id as applied; returns
	// ledger.ErrAlreadyProcessed when the id is already recorded
	Insert(ctx context.Context, entry ledger.Entry) error

	// PurgeOlderThan deletes entries processed before the cutoff and
	// returns the number of rows removed
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
