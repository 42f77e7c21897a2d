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

type fakeSender struct {
	result tradestate.SendResult
	err    error
	calls  int32
}

func (f *fakeSender) Send(_ context.Context, _ *tradestate.Intent) (tradestate.SendResult, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.result, f.err
}

func approvedIntent(t *testing.T, ctx context.Context, m *tradestate.Machine, id string) {
	t.Helper()
	require.NoError(t, m.HandleApproval(ctx, id, true, "", json.RawMessage(`{}`), "H1", 10))
}

func TestSubmitWorker_BrokerAck_MovesIntentToSubmitted(t *testing.T) {
	ctx := context.Background()
	m, store, _ := newMachine(t)
	approvedIntent(t, ctx, m, "I1")

	sender := &fakeSender{result: tradestate.SendResult{Outcome: tradestate.SendAcked, BrokerOrderID: "B1"}}
	w := tradestate.NewSubmitWorker(m, store, sender, "worker-a", 15*time.Millisecond, nopLogger{})

	runCtx, cancel := context.WithTimeout(ctx, 60*time.Millisecond)
	defer cancel()
	_ = w.Run(runCtx)

	intent, err := store.GetIntent(ctx, "I1")
	require.NoError(t, err)
	require.Equal(t, tradestate.StateSubmitted, intent.State)
}

func TestSubmitWorker_BrokerRejected_MovesIntentToRejected(t *testing.T) {
	ctx := context.Background()
	m, store, _ := newMachine(t)
	approvedIntent(t, ctx, m, "I1")

	sender := &fakeSender{result: tradestate.SendResult{Outcome: tradestate.SendRejected, NormalizedCode: "INSUFFICIENT_MARGIN"}}
	w := tradestate.NewSubmitWorker(m, store, sender, "worker-a", 15*time.Millisecond, nopLogger{})

	runCtx, cancel := context.WithTimeout(ctx, 60*time.Millisecond)
	defer cancel()
	_ = w.Run(runCtx)

	intent, err := store.GetIntent(ctx, "I1")
	require.NoError(t, err)
	require.Equal(t, tradestate.StateRejected, intent.State)
}

func TestSubmitWorker_BrokerUnknown_MovesIntentToSubmitUnknown(t *testing.T) {
	ctx := context.Background()
	m, store, _ := newMachine(t)
	approvedIntent(t, ctx, m, "I1")

	sender := &fakeSender{result: tradestate.SendResult{Outcome: tradestate.SendUnknown}}
	w := tradestate.NewSubmitWorker(m, store, sender, "worker-a", 15*time.Millisecond, nopLogger{})

	runCtx, cancel := context.WithTimeout(ctx, 60*time.Millisecond)
	defer cancel()
	_ = w.Run(runCtx)

	intent, err := store.GetIntent(ctx, "I1")
	require.NoError(t, err)
	require.Equal(t, tradestate.StateSubmitUnknown, intent.State)
}

func TestSubmitWorker_SendError_MovesIntentToSubmitUnknown(t *testing.T) {
	ctx := context.Background()
	m, store, _ := newMachine(t)
	approvedIntent(t, ctx, m, "I1")

	sender := &fakeSender{err: context.DeadlineExceeded}
	w := tradestate.NewSubmitWorker(m, store, sender, "worker-a", 15*time.Millisecond, nopLogger{})

	runCtx, cancel := context.WithTimeout(ctx, 60*time.Millisecond)
	defer cancel()
	_ = w.Run(runCtx)

	intent, err := store.GetIntent(ctx, "I1")
	require.NoError(t, err)
	require.Equal(t, tradestate.StateSubmitUnknown, intent.State)
}

func TestSubmitWorker_TwoWorkersOnSameIntent_OnlyOneSends(t *testing.T) {
	ctx := context.Background()
	m, store, _ := newMachine(t)
	approvedIntent(t, ctx, m, "I1")

	senderA := &fakeSender{result: tradestate.SendResult{Outcome: tradestate.SendAcked, BrokerOrderID: "B1"}}
	senderB := &fakeSender{result: tradestate.SendResult{Outcome: tradestate.SendAcked, BrokerOrderID: "B2"}}
	wa := tradestate.NewSubmitWorker(m, store, senderA, "worker-a", 5*time.Millisecond, nopLogger{})
	wb := tradestate.NewSubmitWorker(m, store, senderB, "worker-b", 5*time.Millisecond, nopLogger{})

	runCtx, cancel := context.WithTimeout(ctx, 40*time.Millisecond)
	defer cancel()
	go func() { _ = wa.Run(runCtx) }()
	_ = wb.Run(runCtx)

	totalSends := atomic.LoadInt32(&senderA.calls) + atomic.LoadInt32(&senderB.calls)
	require.LessOrEqual(t, totalSends, int32(1), "only the worker holding the lease may send")

	intent, err := store.GetIntent(ctx, "I1")
	require.NoError(t, err)
	require.Equal(t, tradestate.StateSubmitted, intent.State)
}
