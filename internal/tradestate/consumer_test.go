package tradestate_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tradebus/tradebus/internal/bus"
	"github.com/tradebus/tradebus/internal/envelope"
	"github.com/tradebus/tradebus/internal/streamlog"
	"github.com/tradebus/tradebus/internal/tradestate"
)

func approvalRegistry(t *testing.T) *envelope.Registry {
	t.Helper()
	reg := envelope.NewRegistry()
	require.NoError(t, reg.Register("risk.order.approved.v1", &envelope.PayloadRules{Strict: false}))
	require.NoError(t, tradestate.RegisterLifecycleSchemas(reg))
	return reg
}

func TestApprovalConsumer_ValidApproval_AdmitsIntent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reg := approvalRegistry(t)
	tradeSL := streamlog.NewMemoryStore()
	cache := bus.NewMemoryIdempotencyCache()
	store := tradestate.NewMemoryStore()
	producer := bus.NewProducer(tradeSL, reg, nil, tradestate.LifecycleStreams, nopLogger{})
	machine := tradestate.NewMachine(store, producer, nopLogger{}, 10*time.Second)

	payload, _ := json.Marshal(map[string]any{
		"intent_id": "I1", "approved": true, "request_hash": "H1", "target_qty": 10.0,
	})
	env := &envelope.Envelope{
		EventID: "E1", TraceID: "I1", ProducedAt: time.Now().UTC(),
		Schema: "risk.order.approved.v1", SchemaVersion: 1, Payload: payload,
	}
	rawProducer := bus.NewProducer(tradeSL, reg, nil, nil, nopLogger{})
	_, err := rawProducer.Publish(ctx, "risk.order.approved.v1", env)
	require.NoError(t, err)

	consumer := tradestate.NewApprovalConsumer(bus.ConsumerConfig{PollInterval: 10 * time.Millisecond}, tradeSL, reg, cache, machine, nopLogger{})
	runCtx, runCancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer runCancel()
	_ = consumer.Run(runCtx)

	intent, err := store.GetIntent(ctx, "I1")
	require.NoError(t, err)
	require.Equal(t, tradestate.StateRiskApproved, intent.State)
}

func TestApprovalConsumer_MissingIntentID_RoutesToDLQ(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reg := approvalRegistry(t)
	tradeSL := streamlog.NewMemoryStore()
	cache := bus.NewMemoryIdempotencyCache()
	store := tradestate.NewMemoryStore()
	producer := bus.NewProducer(tradeSL, reg, nil, tradestate.LifecycleStreams, nopLogger{})
	machine := tradestate.NewMachine(store, producer, nopLogger{}, 10*time.Second)

	payload, _ := json.Marshal(map[string]any{"approved": true})
	env := &envelope.Envelope{
		EventID: "E2", TraceID: "T2", ProducedAt: time.Now().UTC(),
		Schema: "risk.order.approved.v1", SchemaVersion: 1, Payload: payload,
	}
	rawProducer := bus.NewProducer(tradeSL, reg, nil, nil, nopLogger{})
	_, err := rawProducer.Publish(ctx, "risk.order.approved.v1", env)
	require.NoError(t, err)

	consumer := tradestate.NewApprovalConsumer(bus.ConsumerConfig{PollInterval: 10 * time.Millisecond}, tradeSL, reg, cache, machine, nopLogger{})
	runCtx, runCancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer runCancel()
	_ = consumer.Run(runCtx)

	dlq, err := tradeSL.ReadRange(ctx, "dlq.risk.order.approved.v1", "", 10)
	require.NoError(t, err)
	require.Len(t, dlq, 1)
}
