package tradestate_test

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tradebus/tradebus/internal/tradestate"
)

type fakeInquirer struct {
	verdict tradestate.Verdict
	err     error
	calls   int32
}

func (f *fakeInquirer) Reconcile(_ context.Context, _ *tradestate.Intent) (tradestate.Verdict, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.verdict, f.err
}

func submitUnknownIntent(t *testing.T, ctx context.Context, m *tradestate.Machine, store tradestate.Store, id string) {
	t.Helper()
	require.NoError(t, m.HandleApproval(ctx, id, true, "", json.RawMessage(`{}`), "H1", 10))
	acquired, err := m.TryBeginSubmitting(ctx, id, "worker-a")
	require.NoError(t, err)
	require.True(t, acquired)
	require.NoError(t, m.HandleSendTimeout(ctx, id, "worker-a"))
	intent, err := store.GetIntent(ctx, id)
	require.NoError(t, err)
	require.Equal(t, tradestate.StateSubmitUnknown, intent.State)
}

func TestReconciler_FoundVerdict_ResolvesIntent(t *testing.T) {
	ctx := context.Background()
	m, store, _ := newMachine(t)
	submitUnknownIntent(t, ctx, m, store, "I1")

	broker := &fakeInquirer{verdict: tradestate.Verdict{Found: true, BrokerOrderID: "B1", ResolvedState: tradestate.StateSubmitted}}
	r := tradestate.NewReconciler(m, store, broker, 20*time.Millisecond, nopLogger{})

	runCtx, cancel := context.WithTimeout(ctx, 120*time.Millisecond)
	defer cancel()
	_ = r.Run(runCtx)

	intent, err := store.GetIntent(ctx, "I1")
	require.NoError(t, err)
	require.Equal(t, tradestate.StateSubmitted, intent.State)
	require.GreaterOrEqual(t, atomic.LoadInt32(&broker.calls), int32(1))
}

func TestReconciler_AbsentVerdict_RetriesSubmission(t *testing.T) {
	ctx := context.Background()
	m, store, _ := newMachine(t)
	submitUnknownIntent(t, ctx, m, store, "I1")

	broker := &fakeInquirer{verdict: tradestate.Verdict{Found: false, Ambiguous: false}}
	r := tradestate.NewReconciler(m, store, broker, 20*time.Millisecond, nopLogger{})

	runCtx, cancel := context.WithTimeout(ctx, 60*time.Millisecond)
	defer cancel()
	_ = r.Run(runCtx)

	intent, err := store.GetIntent(ctx, "I1")
	require.NoError(t, err)
	require.Equal(t, tradestate.StateSubmitting, intent.State)
}

func TestReconciler_AmbiguousVerdict_NeverAutoRetries(t *testing.T) {
	ctx := context.Background()
	m, store, _ := newMachine(t)
	submitUnknownIntent(t, ctx, m, store, "I1")

	broker := &fakeInquirer{verdict: tradestate.Verdict{Ambiguous: true}}
	r := tradestate.NewReconciler(m, store, broker, 10*time.Millisecond, nopLogger{})

	runCtx, cancel := context.WithTimeout(ctx, 150*time.Millisecond)
	defer cancel()
	_ = r.Run(runCtx)

	intent, err := store.GetIntent(ctx, "I1")
	require.NoError(t, err)
	require.Equal(t, tradestate.StateSubmitUnknown, intent.State, "an ambiguous verdict must leave the intent exactly where it was")
	require.GreaterOrEqual(t, atomic.LoadInt32(&broker.calls), int32(2))
}

func TestReconciler_BrokerError_LeavesIntentUntouchedForNextSweep(t *testing.T) {
	ctx := context.Background()
	m, store, _ := newMachine(t)
	submitUnknownIntent(t, ctx, m, store, "I1")

	broker := &fakeInquirer{err: context.DeadlineExceeded}
	r := tradestate.NewReconciler(m, store, broker, 15*time.Millisecond, nopLogger{})

	runCtx, cancel := context.WithTimeout(ctx, 60*time.Millisecond)
	defer cancel()
	_ = r.Run(runCtx)

	intent, err := store.GetIntent(ctx, "I1")
	require.NoError(t, err)
	require.Equal(t, tradestate.StateSubmitUnknown, intent.State)
}
