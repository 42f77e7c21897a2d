// Package ingest is the one genuinely external-facing adapter the pipeline
// has: it reads raw market-tick JSON off an external Kafka topic (the
// boundary with the out-of-scope concrete data ingestion collaborator) and
// republishes each tick as a perception.market_data.collected.v1 envelope
// through the C3 producer API. Decode, validate, DLQ-on-failure, ack by not
// erroring — the same shape the teacher's internal/kafka/consumer.go uses
// for its order topic, generalized from one SQL upsert to one envelope
// publish.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/tradebus/tradebus/internal/bus"
	"github.com/tradebus/tradebus/internal/envelope"
	"github.com/tradebus/tradebus/internal/logger"
	"github.com/tradebus/tradebus/internal/streamlog"
)

const marketDataStream = "perception.market_data.collected.v1"

// Tick is the external feed's wire shape for one market-data observation.
type Tick struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}

// Gateway wraps a kafka-go Reader and republishes valid ticks through
// producer onto marketDataStream. Ticks that fail to decode or fail minimal
// structural validation go to the compute plane's DLQ instead of blocking
// the partition.
type Gateway struct {
	reader   *kafka.Reader
	producer *bus.Producer
	sl       streamlog.StreamLog
	registry *envelope.Registry
	log      logger.InterfaceLogger
	topic    string
}

func NewGateway(brokers []string, topic, groupID string, producer *bus.Producer, sl streamlog.StreamLog, registry *envelope.Registry, log logger.InterfaceLogger) *Gateway {
	r := kafka.NewReader(kafka.ReaderConfig{Brokers: brokers, Topic: topic, GroupID: groupID})
	return &Gateway{reader: r, producer: producer, sl: sl, registry: registry, log: log, topic: topic}
}

// Run consumes until ctx is canceled or the reader returns a fatal error.
func (g *Gateway) Run(ctx context.Context) error {
	defer func() {
		if err := g.reader.Close(); err != nil {
			g.log.Errorf("ingest: reader close: %v", err)
		}
	}()

	for {
		m, err := g.reader.ReadMessage(ctx)
		if err != nil {
			return err
		}

		var tick Tick
		if err := json.Unmarshal(m.Value, &tick); err != nil {
			g.log.Errorf("ingest: invalid JSON tick: %v", err)
			g.dlq(ctx, m.Value, "InvalidJSON", err.Error())
			continue
		}
		if err := validateTick(&tick); err != nil {
			g.log.Errorf("ingest: tick validation failed: %v", err)
			g.dlq(ctx, m.Value, "InvalidTick", err.Error())
			continue
		}

		payload, err := json.Marshal(map[string]any{
			"symbol": tick.Symbol, "price": tick.Price, "volume": tick.Volume,
		})
		if err != nil {
			g.log.Errorf("ingest: marshal tick payload: %v", err)
			continue
		}
		env := &envelope.Envelope{
			EventID:       uuid.NewString(),
			TraceID:       uuid.NewString(),
			ProducedAt:    time.Now().UTC(),
			Schema:        marketDataStream,
			SchemaVersion: 1,
			Payload:       payload,
		}
		if _, err := g.producer.Publish(ctx, marketDataStream, env); err != nil {
			g.log.Errorf("ingest: publish tick for %s: %v", tick.Symbol, err)
			g.dlq(ctx, m.Value, "PublishFailed", err.Error())
			continue
		}

		g.log.Infof("ingest: published tick for %s", tick.Symbol)
	}
}

func (g *Gateway) dlq(ctx context.Context, raw []byte, kind, detail string) {
	if err := bus.PublishDLQ(ctx, g.sl, g.registry, g.topic, "", raw, marketDataStream, "", kind, detail, 1); err != nil {
		g.log.Errorf("ingest: dlq write failed: %v", err)
	}
}

// validateTick performs minimal structural validation intrinsic to a single
// tick; deeper domain checks belong to the envelope registry's field rules
// once the tick becomes a perception.market_data.collected.v1 envelope.
func validateTick(t *Tick) error {
	var errs []string
	if t.Symbol == "" {
		errs = append(errs, "symbol is required")
	}
	if t.Price < 0 {
		errs = append(errs, "price must be >= 0")
	}
	if t.Volume < 0 {
		errs = append(errs, "volume must be >= 0")
	}
	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
