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

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Fatalf(string, ...interface{}) {}
func (nopLogger) Fatal(...interface{})          {}
func (nopLogger) Sync() error                   { return nil }

func newMachine(t *testing.T) (*tradestate.Machine, tradestate.Store, streamlog.StreamLog) {
	t.Helper()
	reg := envelope.NewRegistry()
	require.NoError(t, tradestate.RegisterLifecycleSchemas(reg))
	sl := streamlog.NewMemoryStore()
	producer := bus.NewProducer(sl, reg, nil, tradestate.LifecycleStreams, nopLogger{})
	store := tradestate.NewMemoryStore()
	return tradestate.NewMachine(store, producer, nopLogger{}, 50*time.Millisecond), store, sl
}

func lastEvent(t *testing.T, ctx context.Context, sl streamlog.StreamLog, stream string) *envelope.Envelope {
	t.Helper()
	entries, err := sl.ReadRange(ctx, stream, "", 100)
	require.NoError(t, err)
	require.NotEmpty(t, entries, "expected at least one event on %s", stream)
	env, err := envelope.Decode(entries[len(entries)-1].Bytes)
	require.NoError(t, err)
	return env
}

func TestMachine_ApprovalRejection_NeverReachesSubmission(t *testing.T) {
	ctx := context.Background()
	m, store, sl := newMachine(t)

	require.NoError(t, m.HandleApproval(ctx, "I1", false, "risk_limit_breached", json.RawMessage(`{}`), "H1", 100))

	intent, err := store.GetIntent(ctx, "I1")
	require.NoError(t, err)
	require.Equal(t, tradestate.StateRejected, intent.State)
	require.True(t, tradestate.IsTerminal(intent.State))

	env := lastEvent(t, ctx, sl, "trade.intent.rejected.v1")
	require.Equal(t, "I1", env.TraceID)
}

func TestMachine_RedeliveredApproval_IsNoOp(t *testing.T) {
	ctx := context.Background()
	m, store, sl := newMachine(t)

	require.NoError(t, m.HandleApproval(ctx, "I1", true, "", json.RawMessage(`{}`), "H1", 100))
	require.NoError(t, m.HandleApproval(ctx, "I1", true, "", json.RawMessage(`{}`), "H1", 100))

	entries, err := sl.ReadRange(ctx, "trade.intent.approved.v1", "", 100)
	require.NoError(t, err)
	require.Len(t, entries, 1, "redelivery of an already-admitted intent must not re-emit")

	intent, err := store.GetIntent(ctx, "I1")
	require.NoError(t, err)
	require.Equal(t, tradestate.StateRiskApproved, intent.State)
}

func TestMachine_HappyPath_ApprovalToFullFill(t *testing.T) {
	ctx := context.Background()
	m, store, sl := newMachine(t)

	require.NoError(t, m.HandleApproval(ctx, "I1", true, "", json.RawMessage(`{}`), "H1", 10))

	acquired, err := m.TryBeginSubmitting(ctx, "I1", "worker-a")
	require.NoError(t, err)
	require.True(t, acquired)

	intent, err := store.GetIntent(ctx, "I1")
	require.NoError(t, err)
	require.Equal(t, tradestate.StateSubmitting, intent.State)
	orderID := intent.CurrentOrderID
	require.NotEmpty(t, orderID)

	require.NoError(t, m.HandleBrokerAck(ctx, "I1", "worker-a", "BROKER-1", json.RawMessage(`{}`), json.RawMessage(`{}`)))

	intent, err = store.GetIntent(ctx, "I1")
	require.NoError(t, err)
	require.Equal(t, tradestate.StateSubmitted, intent.State)

	require.NoError(t, m.HandleFill(ctx, tradestate.Fill{
		NaturalKey: "BROKER-1|fill-1", OrderID: orderID, BrokerOrderID: "BROKER-1",
		Qty: 4, Price: 10.5, Ts: time.Now(),
	}))
	intent, err = store.GetIntent(ctx, "I1")
	require.NoError(t, err)
	require.Equal(t, tradestate.StatePartiallyFilled, intent.State)
	_ = lastEvent(t, ctx, sl, "trade.fill.recorded.v1")

	require.NoError(t, m.HandleFill(ctx, tradestate.Fill{
		NaturalKey: "BROKER-1|fill-2", OrderID: orderID, BrokerOrderID: "BROKER-1",
		Qty: 6, Price: 10.5, Ts: time.Now(),
	}))
	intent, err = store.GetIntent(ctx, "I1")
	require.NoError(t, err)
	require.Equal(t, tradestate.StateFilled, intent.State)
	require.True(t, tradestate.IsTerminal(intent.State))
	_ = lastEvent(t, ctx, sl, "trade.order.filled.v1")
}

func TestMachine_DuplicateFill_IsDiscardedAndCounted(t *testing.T) {
	ctx := context.Background()
	m, store, _ := newMachine(t)

	require.NoError(t, m.HandleApproval(ctx, "I1", true, "", json.RawMessage(`{}`), "H1", 10))
	_, err := m.TryBeginSubmitting(ctx, "I1", "worker-a")
	require.NoError(t, err)
	intent, _ := store.GetIntent(ctx, "I1")
	orderID := intent.CurrentOrderID
	require.NoError(t, m.HandleBrokerAck(ctx, "I1", "worker-a", "BROKER-1", nil, nil))

	fill := tradestate.Fill{NaturalKey: "BROKER-1|fill-1", OrderID: orderID, Qty: 4, Price: 10, Ts: time.Now()}
	require.NoError(t, m.HandleFill(ctx, fill))
	require.NoError(t, m.HandleFill(ctx, fill))

	n, err := store.DuplicateFillCount(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	intent, _ = store.GetIntent(ctx, "I1")
	require.Equal(t, tradestate.StatePartiallyFilled, intent.State)
}

func TestMachine_ConflictingDuplicateFill_ReturnsErrFillConflict(t *testing.T) {
	ctx := context.Background()
	m, store, _ := newMachine(t)

	require.NoError(t, m.HandleApproval(ctx, "I1", true, "", json.RawMessage(`{}`), "H1", 10))
	_, err := m.TryBeginSubmitting(ctx, "I1", "worker-a")
	require.NoError(t, err)
	intent, _ := store.GetIntent(ctx, "I1")
	orderID := intent.CurrentOrderID
	require.NoError(t, m.HandleBrokerAck(ctx, "I1", "worker-a", "BROKER-1", nil, nil))

	require.NoError(t, m.HandleFill(ctx, tradestate.Fill{NaturalKey: "K1", OrderID: orderID, Qty: 4, Price: 10, Ts: time.Now()}))
	err = m.HandleFill(ctx, tradestate.Fill{NaturalKey: "K1", OrderID: orderID, Qty: 5, Price: 11, Ts: time.Now()})
	require.Error(t, err)
	var conflict *tradestate.ErrFillConflict
	require.ErrorAs(t, err, &conflict)
}

func TestMachine_SendTimeoutThenReconcileFound_ResolvesToSubmitted(t *testing.T) {
	ctx := context.Background()
	m, store, _ := newMachine(t)

	require.NoError(t, m.HandleApproval(ctx, "I1", true, "", json.RawMessage(`{}`), "H1", 10))
	_, err := m.TryBeginSubmitting(ctx, "I1", "worker-a")
	require.NoError(t, err)

	require.NoError(t, m.HandleSendTimeout(ctx, "I1", "worker-a"))
	intent, err := store.GetIntent(ctx, "I1")
	require.NoError(t, err)
	require.Equal(t, tradestate.StateSubmitUnknown, intent.State)

	require.NoError(t, m.HandleReconcileFound(ctx, "I1", "BROKER-9", tradestate.StateSubmitted))
	intent, err = store.GetIntent(ctx, "I1")
	require.NoError(t, err)
	require.Equal(t, tradestate.StateSubmitted, intent.State)
}

func TestMachine_SendTimeoutThenReconcileAbsent_RetriesSubmission(t *testing.T) {
	ctx := context.Background()
	m, store, _ := newMachine(t)

	require.NoError(t, m.HandleApproval(ctx, "I1", true, "", json.RawMessage(`{}`), "H1", 10))
	_, err := m.TryBeginSubmitting(ctx, "I1", "worker-a")
	require.NoError(t, err)
	require.NoError(t, m.HandleSendTimeout(ctx, "I1", "worker-a"))

	require.NoError(t, m.HandleReconcileAbsent(ctx, "I1"))
	intent, err := store.GetIntent(ctx, "I1")
	require.NoError(t, err)
	require.Equal(t, tradestate.StateSubmitting, intent.State)
}

func TestMachine_BrokerReject_IsTerminal(t *testing.T) {
	ctx := context.Background()
	m, store, _ := newMachine(t)

	require.NoError(t, m.HandleApproval(ctx, "I1", true, "", json.RawMessage(`{}`), "H1", 10))
	_, err := m.TryBeginSubmitting(ctx, "I1", "worker-a")
	require.NoError(t, err)

	require.NoError(t, m.HandleBrokerReject(ctx, "I1", "worker-a", json.RawMessage(`{}`), "INSUFFICIENT_MARGIN"))
	intent, err := store.GetIntent(ctx, "I1")
	require.NoError(t, err)
	require.Equal(t, tradestate.StateRejected, intent.State)
	require.True(t, tradestate.IsTerminal(intent.State))
}

func TestMachine_CancelFlow_PartiallyFilledToCancelled(t *testing.T) {
	ctx := context.Background()
	m, store, _ := newMachine(t)

	require.NoError(t, m.HandleApproval(ctx, "I1", true, "", json.RawMessage(`{}`), "H1", 10))
	_, err := m.TryBeginSubmitting(ctx, "I1", "worker-a")
	require.NoError(t, err)
	intent, _ := store.GetIntent(ctx, "I1")
	orderID := intent.CurrentOrderID
	require.NoError(t, m.HandleBrokerAck(ctx, "I1", "worker-a", "BROKER-1", nil, nil))
	require.NoError(t, m.HandleFill(ctx, tradestate.Fill{NaturalKey: "K1", OrderID: orderID, Qty: 3, Price: 10, Ts: time.Now()}))

	require.NoError(t, m.HandleCancelRequest(ctx, "I1", "CR1"))
	intent, err = store.GetIntent(ctx, "I1")
	require.NoError(t, err)
	require.Equal(t, tradestate.StateCancelPending, intent.State)

	require.NoError(t, m.HandleBrokerCancelAck(ctx, "I1"))
	intent, err = store.GetIntent(ctx, "I1")
	require.NoError(t, err)
	require.Equal(t, tradestate.StateCancelled, intent.State)
	require.True(t, tradestate.IsTerminal(intent.State))
}

func TestMachine_SecondWorkerCannotBeginSubmittingWhileLeaseHeld(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newMachine(t)

	require.NoError(t, m.HandleApproval(ctx, "I1", true, "", json.RawMessage(`{}`), "H1", 10))

	acquired, err := m.TryBeginSubmitting(ctx, "I1", "worker-a")
	require.NoError(t, err)
	require.True(t, acquired)

	acquired, err = m.TryBeginSubmitting(ctx, "I1", "worker-b")
	require.NoError(t, err)
	require.False(t, acquired, "a second worker must not acquire a live lease")
}

func TestMachine_LeaseExpiry_AnotherWorkerCannotRestartSubmitting(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newMachine(t)

	require.NoError(t, m.HandleApproval(ctx, "I1", true, "", json.RawMessage(`{}`), "H1", 10))
	acquired, err := m.TryBeginSubmitting(ctx, "I1", "worker-a")
	require.NoError(t, err)
	require.True(t, acquired)

	time.Sleep(75 * time.Millisecond) // longer than the 50ms leaseTTL configured in newMachine.

	acquired, err = m.TryBeginSubmitting(ctx, "I1", "worker-b")
	require.Error(t, err) // BeginSubmitting re-checks state: already SUBMITTING, not RISK_APPROVED.
	require.False(t, acquired)
}
