package stageproc_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tradebus/tradebus/internal/bus"
	"github.com/tradebus/tradebus/internal/envelope"
	"github.com/tradebus/tradebus/internal/stageproc"
	"github.com/tradebus/tradebus/internal/streamlog"
)

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Fatalf(string, ...interface{}) {}
func (nopLogger) Fatal(...interface{})          {}
func (nopLogger) Sync() error                   { return nil }

func TestProcessor_TransformEmitsDeclaredOutputOnly(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sl := streamlog.NewMemoryStore()
	reg := envelope.NewRegistry()
	require.NoError(t, reg.Register("perception.market_data.collected.v1", &envelope.PayloadRules{Strict: true}))
	require.NoError(t, reg.Register("variables.market.computed.v1", &envelope.PayloadRules{Strict: true}))

	payload, _ := json.Marshal(map[string]any{})
	in := &envelope.Envelope{
		EventID: "E1", TraceID: "T1", ProducedAt: time.Now().UTC(),
		Schema: "perception.market_data.collected.v1", SchemaVersion: 1, Payload: payload,
	}
	b, _ := envelope.Encode(in)
	_, err := sl.Append(ctx, "perception.market_data.collected.v1", b)
	require.NoError(t, err)

	binding := stageproc.Binding{
		InputStream:   "perception.market_data.collected.v1",
		Group:         "variables",
		OutputStreams: []string{"variables.market.computed.v1"},
		Transform: func(ctx context.Context, sc *stageproc.Context) bus.HandlerResult {
			out := &envelope.Envelope{
				EventID: "derived-" + sc.Event.EventID, ProducedAt: time.Now().UTC(),
				Schema: "variables.market.computed.v1", SchemaVersion: 1, Payload: json.RawMessage(`{}`),
			}
			if _, err := sc.Emit(ctx, "variables.market.computed.v1", out); err != nil {
				return bus.ResultFatal(err.Error())
			}
			return bus.ResultOk()
		},
	}
	cache := bus.NewMemoryIdempotencyCache()
	proc := stageproc.New(binding, sl, reg, nil, cache, nopLogger{})

	runCtx, runCancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer runCancel()
	_ = proc.Run(runCtx)

	out, err := sl.ReadRange(ctx, "variables.market.computed.v1", "", 10)
	require.NoError(t, err)
	require.Len(t, out, 1)

	outEnv, err := envelope.Decode(out[0].Bytes)
	require.NoError(t, err)
	require.Equal(t, "T1", outEnv.TraceID) // trace_id propagated unchanged.
}

func TestProcessor_CannotEmitToUndeclaredStream(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sl := streamlog.NewMemoryStore()
	reg := envelope.NewRegistry()
	require.NoError(t, reg.Register("perception.market_data.collected.v1", &envelope.PayloadRules{Strict: true}))
	require.NoError(t, reg.Register("evolution.parameter.proposed.v1", &envelope.PayloadRules{Strict: true}))

	payload, _ := json.Marshal(map[string]any{})
	in := &envelope.Envelope{
		EventID: "E1", TraceID: "T1", ProducedAt: time.Now().UTC(),
		Schema: "perception.market_data.collected.v1", SchemaVersion: 1, Payload: payload,
	}
	b, _ := envelope.Encode(in)
	_, err := sl.Append(ctx, "perception.market_data.collected.v1", b)
	require.NoError(t, err)

	var capturedErr error
	binding := stageproc.Binding{
		InputStream:   "perception.market_data.collected.v1",
		Group:         "variables",
		OutputStreams: []string{"variables.market.computed.v1"},
		Transform: func(ctx context.Context, sc *stageproc.Context) bus.HandlerResult {
			_, err := sc.Emit(ctx, "evolution.parameter.proposed.v1", &envelope.Envelope{
				EventID: "x", ProducedAt: time.Now().UTC(), Schema: "evolution.parameter.proposed.v1",
				SchemaVersion: 1, Payload: json.RawMessage(`{}`),
			})
			capturedErr = err
			return bus.ResultOk()
		},
	}
	cache := bus.NewMemoryIdempotencyCache()
	proc := stageproc.New(binding, sl, reg, nil, cache, nopLogger{})

	runCtx, runCancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer runCancel()
	_ = proc.Run(runCtx)

	require.ErrorIs(t, capturedErr, bus.ErrUnauthorizedStream)
}
