// Command bridge hosts the C5 trade bridge: the sole path from the compute
// plane into the physically isolated trade plane (spec.md §4.5).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tradebus/tradebus/internal/bridge"
	"github.com/tradebus/tradebus/internal/bus"
	"github.com/tradebus/tradebus/internal/config"
	"github.com/tradebus/tradebus/internal/envelope"
	"github.com/tradebus/tradebus/internal/logger"
	"github.com/tradebus/tradebus/internal/streamlog"
	"github.com/tradebus/tradebus/internal/tradestate"
)

func main() {
	cfg := config.MustLoad(".env", "config.yaml")

	log, err := logger.NewLogger(&logger.Config{Level: cfg.Log.Level, Development: cfg.Log.Development})
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	computeSL, err := streamlog.Dial(cfg.StoreURLCompute)
	if err != nil {
		log.Fatalf("bridge: dial compute store: %v", err)
	}
	tradeSL, err := streamlog.Dial(cfg.StoreURLTrade)
	if err != nil {
		log.Fatalf("bridge: dial trade store: %v", err)
	}

	registry := envelope.NewRegistry()
	if err := tradestate.RegisterLifecycleSchemas(registry); err != nil {
		log.Fatalf("bridge: register lifecycle schemas: %v", err)
	}
	for _, schema := range cfg.BridgeWhitelist {
		if err := registry.Register(schema, &envelope.PayloadRules{Strict: false}); err != nil {
			log.Fatalf("bridge: register whitelisted schema %s: %v", schema, err)
		}
	}

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

	b, err := bridge.New(cfg.BridgeWhitelist, computeSL, tradeSL, registry, cache, consumerCfg, log)
	if err != nil {
		log.Fatalf("bridge: construct: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go reportMetrics(ctx, b, log)

	log.Infof("bridge: forwarding %d whitelisted stream(s) into the trade plane", len(cfg.BridgeWhitelist))
	if err := b.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("bridge: run: %v", err)
	}
	log.Infof("bridge: shut down")
}

func reportMetrics(ctx context.Context, b *bridge.Bridge, log logger.InterfaceLogger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m := b.Metrics()
			log.Infof("bridge: forwarded=%d non_forwarded=%d dlqed=%d", m.Forwarded, m.NonForwarded, m.DLQed)
		}
	}
}
