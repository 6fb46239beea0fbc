package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mercatto/stock-reservation/internal/dal/postgres"
	"github.com/mercatto/stock-reservation/internal/service/models/ledger"
)

// SQLSTATE for unique constraint violations.
const uniqueViolationCode = "23505"

// LedgerRepository implements the idempotency ledger for PostgreSQL.
type LedgerRepository struct {
	db postgres.Querier
}

// NewLedgerRepository creates a new ledger repository.
func NewLedgerRepository(db postgres.Querier) *LedgerRepository {
	return &LedgerRepository{
		db: db,
	}
}

// Exists reports whether a message id has already been applied.
func (r *LedgerRepository) Exists(ctx context.Context, messageID string) (bool, error) {
	query, args, err := sq.Select("1").
		From("processed_messages").
		Where(sq.Eq{"message_id": messageID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build select query: %w", err)
	}

	var one int
	err = r.db.QueryRow(ctx, query, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query ledger: %w", err)
	}

	return true, nil
}

// Insert records a message id as applied. A unique violation means
// another consumer instance won the race; it is reported as
// ledger.ErrAlreadyProcessed so callers ack-and-skip instead of failing.
func (r *LedgerRepository) Insert(ctx context.Context, entry ledger.Entry) error {
	query, args, err := sq.Insert("processed_messages").
		Columns(
			"message_id",
			"processed_at",
		).
		Values(
			entry.MessageID,
			entry.ProcessedAt,
		).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	_, err = r.db.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return fmt.Errorf("message %s: %w", entry.MessageID, ledger.ErrAlreadyProcessed)
		}

		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	return nil
}

// PurgeOlderThan deletes entries processed before the cutoff.
func (r *LedgerRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := sq.Delete("processed_messages").
		Where(sq.Lt{"processed_at": cutoff}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to purge ledger entries: %w", err)
	}

	return tag.RowsAffected(), nil
}
