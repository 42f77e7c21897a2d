package bridge_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tradebus/tradebus/internal/bridge"
	"github.com/tradebus/tradebus/internal/bus"
	"github.com/tradebus/tradebus/internal/envelope"
	"github.com/tradebus/tradebus/internal/streamlog"
)

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Fatalf(string, ...interface{}) {}
func (nopLogger) Fatal(...interface{})          {}
func (nopLogger) Sync() error                   { return nil }

func approvedRules() *envelope.PayloadRules {
	return &envelope.PayloadRules{Strict: true, Fields: map[string]envelope.FieldRule{
		"symbol": {Type: envelope.TypeString, Required: true},
	}}
}

func approvedEnvelope(t *testing.T, eventID string) *envelope.Envelope {
	t.Helper()
	payload, _ := json.Marshal(map[string]any{"symbol": "600000.SH"})
	return &envelope.Envelope{
		EventID: eventID, TraceID: "T1", ProducedAt: time.Now().UTC(),
		Schema: "risk.order.approved.v1", SchemaVersion: 1, Payload: payload,
	}
}

func TestBridge_RejectsEmptyWhitelistAtConstruction(t *testing.T) {
	reg := envelope.NewRegistry()
	computeSL := streamlog.NewMemoryStore()
	tradeSL := streamlog.NewMemoryStore()
	cache := bus.NewMemoryIdempotencyCache()

	_, err := bridge.New(nil, computeSL, tradeSL, reg, cache, bus.ConsumerConfig{}, nopLogger{})
	require.Error(t, err)
}

func TestBridge_RejectsNonApprovalStreamInWhitelist(t *testing.T) {
	reg := envelope.NewRegistry()
	computeSL := streamlog.NewMemoryStore()
	tradeSL := streamlog.NewMemoryStore()
	cache := bus.NewMemoryIdempotencyCache()

	_, err := bridge.New([]string{"strategy.candidate_action.generated.v1"}, computeSL, tradeSL, reg, cache, bus.ConsumerConfig{}, nopLogger{})
	require.Error(t, err)

	_, err = bridge.New([]string{"risk.order.approved.v1", "strategy.candidate_action.generated.v1"}, computeSL, tradeSL, reg, cache, bus.ConsumerConfig{}, nopLogger{})
	require.Error(t, err)
}

func TestBridge_ForwardsValidWhitelistedEventVerbatim(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reg := envelope.NewRegistry()
	require.NoError(t, reg.Register("risk.order.approved.v1", approvedRules()))

	computeSL := streamlog.NewMemoryStore()
	tradeSL := streamlog.NewMemoryStore()
	cache := bus.NewMemoryIdempotencyCache()

	producer := bus.NewProducer(computeSL, reg, nil, nil, nopLogger{})
	env := approvedEnvelope(t, "E1")
	_, err := producer.Publish(ctx, "risk.order.approved.v1", env)
	require.NoError(t, err)

	b, err := bridge.New([]string{"risk.order.approved.v1"}, computeSL, tradeSL, reg, cache,
		bus.ConsumerConfig{PollInterval: 10 * time.Millisecond}, nopLogger{})
	require.NoError(t, err)

	runCtx, runCancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer runCancel()
	_ = b.Run(runCtx)

	entries, err := tradeSL.ReadRange(ctx, "risk.order.approved.v1", "", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	forwarded, err := envelope.Decode(entries[0].Bytes)
	require.NoError(t, err)
	require.Equal(t, "E1", forwarded.EventID) // event_id preserved verbatim.

	require.EqualValues(t, 1, b.Metrics().Forwarded)
}

func TestBridge_InvalidEnvelopeDLQsOnComputePlaneAndIsNeverForwarded(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reg := envelope.NewRegistry()
	require.NoError(t, reg.Register("risk.order.approved.v1", approvedRules()))

	computeSL := streamlog.NewMemoryStore()
	tradeSL := streamlog.NewMemoryStore()
	cache := bus.NewMemoryIdempotencyCache()

	// Missing required "symbol" field.
	payload, _ := json.Marshal(map[string]any{})
	env := &envelope.Envelope{
		EventID: "E2", TraceID: "T1", ProducedAt: time.Now().UTC(),
		Schema: "risk.order.approved.v1", SchemaVersion: 1, Payload: payload,
	}
	b64, err := envelope.Encode(env)
	require.NoError(t, err)
	_, err = computeSL.Append(ctx, "risk.order.approved.v1", b64)
	require.NoError(t, err)

	b, err := bridge.New([]string{"risk.order.approved.v1"}, computeSL, tradeSL, reg, cache,
		bus.ConsumerConfig{PollInterval: 10 * time.Millisecond}, nopLogger{})
	require.NoError(t, err)

	runCtx, runCancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer runCancel()
	_ = b.Run(runCtx)

	tradeEntries, err := tradeSL.ReadRange(ctx, "risk.order.approved.v1", "", 10)
	require.NoError(t, err)
	require.Empty(t, tradeEntries)

	dlqEntries, err := computeSL.ReadRange(ctx, "dlq.risk.order.approved.v1", "", 10)
	require.NoError(t, err)
	require.Len(t, dlqEntries, 1)

	require.Zero(t, b.Metrics().Forwarded)
}

func TestBridge_NonWhitelistedStreamNeverReadOrForwarded(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reg := envelope.NewRegistry()
	require.NoError(t, reg.Register("risk.order.approved.v1", approvedRules()))
	require.NoError(t, reg.Register("strategy.candidate_action.generated.v1", &envelope.PayloadRules{Strict: true}))

	computeSL := streamlog.NewMemoryStore()
	tradeSL := streamlog.NewMemoryStore()
	cache := bus.NewMemoryIdempotencyCache()

	producer := bus.NewProducer(computeSL, reg, nil, nil, nopLogger{})
	payload, _ := json.Marshal(map[string]any{})
	env := &envelope.Envelope{
		EventID: "E3", TraceID: "T1", ProducedAt: time.Now().UTC(),
		Schema: "strategy.candidate_action.generated.v1", SchemaVersion: 1, Payload: payload,
	}
	_, err := producer.Publish(ctx, "strategy.candidate_action.generated.v1", env)
	require.NoError(t, err)

	b, err := bridge.New([]string{"risk.order.approved.v1"}, computeSL, tradeSL, reg, cache,
		bus.ConsumerConfig{PollInterval: 10 * time.Millisecond}, nopLogger{})
	require.NoError(t, err)

	runCtx, runCancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer runCancel()
	_ = b.Run(runCtx)

	tradeEntries, err := tradeSL.ReadRange(ctx, "strategy.candidate_action.generated.v1", "", 10)
	require.NoError(t, err)
	require.Empty(t, tradeEntries)

	// Not a validation failure, so no DLQ entry either (spec.md S5).
	dlqEntries, err := computeSL.ReadRange(ctx, "dlq.strategy.candidate_action.generated.v1", "", 10)
	require.NoError(t, err)
	require.Empty(t, dlqEntries)
}
