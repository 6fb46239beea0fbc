package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mercatto/stock-reservation/internal/dal/postgres"
	ledgerrepo "github.com/mercatto/stock-reservation/internal/dal/repositories/ledger/postgres"
	"github.com/mercatto/stock-reservation/internal/otel"
	"github.com/mercatto/stock-reservation/internal/rabbitmq"
	"github.com/mercatto/stock-reservation/internal/service/services/consumersvc"
	"github.com/mercatto/stock-reservation/internal/transport/consumer"
	retentionworker "github.com/mercatto/stock-reservation/internal/worker/retention"
)

// App represents the application.
type App struct {
	consumerSvc     *consumersvc.ConsumerService
	consumerTransp  *consumer.Consumer
	retentionWorker *retentionworker.Worker
	rabbitMqClient  *rabbitmq.Client
	postgresClient  *postgres.Client
	otelController  *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel()
	rabbitMqClient := rabbitmq.MustNewClient()
	postgresClient := postgres.MustNewClient()

	consumerSvc := consumersvc.MustNewConsumerService(
		consumersvc.WithDB(postgresClient.Pool()),
	)

	consumerTransp := consumer.NewConsumer(rabbitMqClient, consumerSvc)

	// The ledger retention worker shares the pool but runs outside the
	// consumer's transactions.
	ledgerRepository := ledgerrepo.NewLedgerRepository(postgresClient.Pool())
	retentionWorker := retentionworker.NewWorker(ledgerRepository)

	return &App{
		consumerSvc:     consumerSvc,
		consumerTransp:  consumerTransp,
		retentionWorker: retentionWorker,
		rabbitMqClient:  rabbitMqClient,
		postgresClient:  postgresClient,
		otelController:  otelController,
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	// Create a channel to receive OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		slog.Info("Starting consumer")
		if err := a.consumerTransp.Run(ctx); err != nil {
			slog.Error("Consumer error", "error", err)
		}
	}()

	go func() {
		slog.Info("Starting ledger retention worker")
		a.retentionWorker.Start(ctx)
	}()

	<-stop
	slog.Info("Shutdown signal received")
	cancel()

	a.gracefulShutdown()
}

// gracefulShutdown performs graceful shutdown of all application components.
// It shuts down components sequentially: retention worker, consumer,
// RabbitMQ, PostgreSQL, and OpenTelemetry. In-flight unacknowledged
// messages are redelivered by the broker to the next consumer.
func (a *App) gracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.retentionWorker.Stop()
	slog.Info("Ledger retention worker stopped gracefully")

	if err := a.consumerTransp.Shutdown(); err != nil {
		slog.Error("Consumer shutdown error", "error", err)
	} else {
		slog.Info("Consumer stopped gracefully")
	}

	if err := a.rabbitMqClient.Close(); err != nil {
		slog.Error("RabbitMQ connection close error", "error", err)
	} else {
		slog.Info("RabbitMQ connection closed gracefully")
	}

	a.postgresClient.Close()

	if err := a.otelController.Shutdown(); err != nil {
		slog.Error("Otel trace provider connection close error", "error", err)
	} else {
		slog.Info("Otel trace provider connection closed gracefully")
	}

	select {
	case <-ctx.Done():
		slog.Warn("Shutdown timeout exceeded")
	default:
		slog.Info("Application shutdown complete")
	}
}
