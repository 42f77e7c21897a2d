// Command ingestgateway hosts the external-facing adapter: it reads raw
// market-tick JSON off a Kafka topic and republishes each tick as a
// perception.market_data.collected.v1 envelope into the compute plane.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tradebus/tradebus/internal/bus"
	"github.com/tradebus/tradebus/internal/config"
	"github.com/tradebus/tradebus/internal/envelope"
	"github.com/tradebus/tradebus/internal/ingest"
	"github.com/tradebus/tradebus/internal/logger"
	"github.com/tradebus/tradebus/internal/streamlog"
	"github.com/tradebus/tradebus/internal/streams"
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
		log.Fatalf("ingestgateway: dial compute store: %v", err)
	}

	registry := envelope.NewRegistry()
	streamReg := streams.NewCoreRegistry()
	if err := streams.LoadOverrides(streamReg, cfg.StreamsFile); err != nil {
		log.Fatalf("ingestgateway: load stream overrides: %v", err)
	}

	producer := bus.NewProducer(computeSL, registry, streamReg, []string{"perception.market_data.collected.v1"}, log)
	gateway := ingest.NewGateway(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Group, producer, computeSL, registry, log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Infof("ingestgateway: consuming topic=%s group=%s", cfg.Kafka.Topic, cfg.Kafka.Group)
	if err := gateway.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("ingestgateway: run: %v", err)
	}
	log.Infof("ingestgateway: shut down")
}
