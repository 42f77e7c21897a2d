package tradestate

import (
	"context"
	"time"

	"github.com/tradebus/tradebus/internal/logger"
)

// BrokerInquirer is the boundary contract a broker adapter implements for
// the reconciler (broker adapters themselves are out of scope, spec.md §1).
// Reconcile matches intent against the broker's open orders and today's
// fills by request_hash and/or remark-embedded intent_id (spec.md §4.6.4).
type BrokerInquirer interface {
	Reconcile(ctx context.Context, intent *Intent) (Verdict, error)
}

// Verdict is a reconciler's decision for one SUBMIT_UNKNOWN intent.
type Verdict struct {
	Found         bool
	Ambiguous     bool
	BrokerOrderID string
	ResolvedState State // only meaningful when Found
}

// Reconciler is the periodic worker of spec.md §4.6.4: it sweeps every
// SUBMIT_UNKNOWN intent, asks the broker adapter to resolve it, and drives
// the machine's HandleReconcileFound/HandleReconcileAbsent transitions. Ambiguous
// verdicts never auto-retry — they escalate at a bounded rate instead
// (§4.6.3: "no blind retry from SUBMIT_UNKNOWN").
type Reconciler struct {
	machine  *Machine
	store    Store
	broker   BrokerInquirer
	period   time.Duration
	limiter  *rateLimiter
	logger   logger.InterfaceLogger
}

func NewReconciler(machine *Machine, store Store, broker BrokerInquirer, period time.Duration, log logger.InterfaceLogger) *Reconciler {
	if period <= 0 {
		period = 30 * time.Second
	}
	return &Reconciler{
		machine: machine, store: store, broker: broker, period: period,
		limiter: newRateLimiter(5, 1.0/60), // at most 5 escalations, refilling 1/minute.
		logger:  log,
	}
}

// Run sweeps on every tick until ctx is canceled.
func (r *Reconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reconciler) sweep(ctx context.Context) {
	pending, err := r.store.PendingSubmitUnknown(ctx)
	if err != nil {
		r.logger.Errorf("tradestate: reconciler list pending: %v", err)
		return
	}
	for _, intent := range pending {
		r.resolveOne(ctx, intent)
	}
}

func (r *Reconciler) resolveOne(ctx context.Context, intent *Intent) {
	verdict, err := r.broker.Reconcile(ctx, intent)
	if err != nil {
		r.logger.Errorf("tradestate: reconcile %s: %v", intent.IntentID, err)
		return
	}

	switch {
	case verdict.Found:
		if err := r.machine.HandleReconcileFound(ctx, intent.IntentID, verdict.BrokerOrderID, verdict.ResolvedState); err != nil {
			r.logger.Errorf("tradestate: reconcile found %s: %v", intent.IntentID, err)
		}
	case verdict.Ambiguous:
		if r.limiter.Allow() {
			if err := r.escalate(ctx, intent.IntentID); err != nil {
				r.logger.Errorf("tradestate: escalate %s: %v", intent.IntentID, err)
			}
		}
		// Remains in SUBMIT_UNKNOWN; no automated retry (spec.md §4.6.3).
	default:
		if err := r.machine.HandleReconcileAbsent(ctx, intent.IntentID); err != nil {
			r.logger.Errorf("tradestate: reconcile absent %s: %v", intent.IntentID, err)
		}
	}
}

func (r *Reconciler) escalate(ctx context.Context, intentID string) error {
	return r.machine.PublishAlert(ctx, intentID, "trade.reconcile.ambiguous.v1",
		[]byte(`{"intent_id":"`+intentID+`"}`))
}
