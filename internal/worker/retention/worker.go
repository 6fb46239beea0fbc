package retention

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/mercatto/stock-reservation/internal/dal/interfaces/iledgerrepo"
)

// Worker purges old idempotency ledger entries. Retention is opt-in:
// with a zero retention window the ledger grows unbounded and the
// worker does nothing, because dropping entries re-opens the duplicate
// window for any message redelivered after the purge horizon.
type Worker struct {
	ledgerRepo   iledgerrepo.ILedgerRepository
	retention    time.Duration
	pollInterval time.Duration
	stopCh       chan struct{}
}

// NewWorker creates a new retention worker from configuration.
func NewWorker(ledgerRepo iledgerrepo.ILedgerRepository) *Worker {
	retentionDays := viper.GetInt("ledger.retention_days")

	pollIntervalSeconds := viper.GetInt("ledger.purge_interval_seconds")
	if pollIntervalSeconds == 0 {
		pollIntervalSeconds = 3600
	}

	return &Worker{
		ledgerRepo:   ledgerRepo,
		retention:    time.Duration(retentionDays) * 24 * time.Hour,
		pollInterval: time.Duration(pollIntervalSeconds) * time.Second,
		stopCh:       make(chan struct{}),
	}
}

// Start begins the purge loop. Returns immediately when retention is
// disabled.
func (w *Worker) Start(ctx context.Context) {
	if w.retention <= 0 {
		slog.Info("Ledger retention disabled, keeping entries forever")

		return
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	slog.Info("Ledger retention worker started",
		"retention", w.retention,
		"poll_interval", w.pollInterval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Ledger retention worker shutting down")

			return
		case <-w.stopCh:
			slog.Info("Ledger retention worker stopped")

			return
		case <-ticker.C:
			w.purge(ctx)
		}
	}
}

// Stop stops the worker.
func (w *Worker) Stop() {
	close(w.stopCh)
}

// purge deletes ledger entries older than the retention window.
func (w *Worker) purge(ctx context.Context) {
	cutoff := time.Now().Add(-w.retention)

	purged, err := w.ledgerRepo.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		slog.Error("Failed to purge ledger entries", "error", err)

		return
	}

	if purged > 0 {
		slog.Info("Purged ledger entries", "count", purged, "cutoff", cutoff)
	}
}
