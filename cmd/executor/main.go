// Command executor hosts C6, the trade-domain submission state machine:
// the approval consumer, the lease-holding submit worker, the
// reconciliation worker, and a read-only admin HTTP surface.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/tradebus/tradebus/internal/broker"
	"github.com/tradebus/tradebus/internal/bus"
	"github.com/tradebus/tradebus/internal/config"
	"github.com/tradebus/tradebus/internal/envelope"
	"github.com/tradebus/tradebus/internal/logger"
	"github.com/tradebus/tradebus/internal/server"
	"github.com/tradebus/tradebus/internal/streamlog"
	"github.com/tradebus/tradebus/internal/streams"
	"github.com/tradebus/tradebus/internal/tradestate"
)

func main() {
	cfg := config.MustLoad(".env", "config.yaml")

	log, err := logger.NewLogger(&logger.Config{Level: cfg.Log.Level, Development: cfg.Log.Development})
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	store, closeStore := mustOpenStore(cfg, log)
	defer closeStore()

	tradeSL, err := streamlog.Dial(cfg.StoreURLTrade)
	if err != nil {
		log.Fatalf("executor: dial trade store: %v", err)
	}

	registry := envelope.NewRegistry()
	if err := tradestate.RegisterLifecycleSchemas(registry); err != nil {
		log.Fatalf("executor: register lifecycle schemas: %v", err)
	}

	streamReg := streams.NewCoreRegistry()
	for _, s := range tradestate.LifecycleStreams {
		_ = streamReg.Declare(s)
		_ = streamReg.Declare(envelope.DLQStream(s))
	}
	if err := streams.LoadOverrides(streamReg, cfg.StreamsFile); err != nil {
		log.Fatalf("executor: load stream overrides: %v", err)
	}

	producer := bus.NewProducer(tradeSL, registry, streamReg, tradestate.LifecycleStreams, log)
	machine := tradestate.NewMachine(store, producer, log, cfg.Trade.LeaseTTL)

	adapter := broker.NoopAdapter{}

	hostname, _ := os.Hostname()
	submitWorker := tradestate.NewSubmitWorker(machine, store, adapter, hostname, cfg.Trade.LeaseTTL/2, log)
	reconciler := tradestate.NewReconciler(machine, store, adapter, cfg.Trade.ReconcilePeriod, log)

	cache := bus.NewMemoryIdempotencyCache()
	consumerCfg := bus.ConsumerConfig{
		MaxAttempts:       cfg.Bus.MaxAttempts,
		VisibilityTimeout: cfg.Bus.VisibilityTimeout,
		Concurrency:       cfg.Bus.WorkerConcurrency,
		IdempotencyTTL:    cfg.Bus.IdempotencyTTL,
		Backoff: bus.BackoffPolicy{
			Base:   cfg.Bus.RetryBackoffBase,
			Factor: cfg.Bus.RetryBackoffFactor,
			Cap:    cfg.Bus.RetryBackoffCap,
		},
	}
	approvalConsumer := tradestate.NewApprovalConsumer(consumerCfg, tradeSL, registry, cache, machine, log)

	app := server.NewServer(tradeSL, store, log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return approvalConsumer.Run(gctx) })
	g.Go(func() error { return submitWorker.Run(gctx) })
	g.Go(func() error { return reconciler.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		return app.Shutdown()
	})
	g.Go(func() error {
		if err := app.Listen(":8081"); err != nil {
			return err
		}
		return nil
	})

	log.Infof("executor: running (admin surface on :8081)")
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Errorf("executor: worker exited: %v", err)
	}
	log.Infof("executor: shut down")
}

func mustOpenStore(cfg *config.Config, log logger.InterfaceLogger) (tradestate.Store, func()) {
	if cfg.TradeDatabase.DSN == "" {
		log.Infof("executor: no trade_database.dsn configured, using in-memory store")
		return tradestate.NewMemoryStore(), func() {}
	}
	if cfg.TradeDatabase.Driver != string(tradestate.DriverPostgres) {
		log.Fatalf("executor: unsupported trade_database.driver %q, only %q is supported", cfg.TradeDatabase.Driver, tradestate.DriverPostgres)
	}

	db, err := tradestate.Connect(tradestate.DriverPostgres, cfg.TradeDatabase.DSN)
	if err != nil {
		log.Fatalf("executor: connect trade database: %v", err)
	}
	if err := tradestate.RunMigrations(db, tradestate.DriverPostgres); err != nil {
		log.Fatalf("executor: run migrations: %v", err)
	}
	return tradestate.NewPostgresStore(db, log), func() { _ = db.Close() }
}
