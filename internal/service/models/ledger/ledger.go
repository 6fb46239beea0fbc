package ledger

import (
	"errors"
	"time"
)

// ErrAlreadyProcessed reports that a message id is already recorded in
// the idempotency ledger. Callers treat it as "skip and acknowledge",
// never as a failure.
var ErrAlreadyProcessed = errors.New("message already processed")

// Entry is one row of the idempotency ledger. Entries are created
// exactly once per applied message id and never updated.
type Entry struct {
	ID          int64
	MessageID   string
	ProcessedAt time.Time
}
