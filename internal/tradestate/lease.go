package tradestate

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tradebus/tradebus/internal/logger"
)

// BrokerSender is the boundary contract a broker adapter implements for
// submission (broker adapters are out of scope, spec.md §1): send one
// approved intent and report what happened.
type BrokerSender interface {
	Send(ctx context.Context, intent *Intent) (SendResult, error)
}

// SendResult is what a broker send attempt produced, matching the three
// SUBMITTING-state transitions of §4.6.2.
type SendResult struct {
	Outcome        SendOutcome
	BrokerOrderID  string
	RawRequest     json.RawMessage
	RawResponse    json.RawMessage
	NormalizedCode string
}

type SendOutcome int

const (
	SendAcked SendOutcome = iota
	SendUnknown
	SendRejected
)

// SubmitWorker is the lease-holding worker pool of spec.md §5 ("the
// SUBMITTING lease is a record (intent_id, owner, expires_at)"): it sweeps
// RISK_APPROVED intents, acquires the lease for each, and drives the send.
// Losing a lease race to another worker is not an error — the other worker
// owns that intent's submission now.
type SubmitWorker struct {
	machine *Machine
	store   Store
	broker  BrokerSender
	owner   string
	period  time.Duration
	logger  logger.InterfaceLogger
}

func NewSubmitWorker(machine *Machine, store Store, broker BrokerSender, owner string, period time.Duration, log logger.InterfaceLogger) *SubmitWorker {
	if period <= 0 {
		period = time.Second
	}
	return &SubmitWorker{machine: machine, store: store, broker: broker, owner: owner, period: period, logger: log}
}

func (w *SubmitWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *SubmitWorker) sweep(ctx context.Context) {
	pending, err := w.store.PendingRiskApproved(ctx)
	if err != nil {
		w.logger.Errorf("tradestate: submit worker list pending: %v", err)
		return
	}
	for _, intent := range pending {
		w.submitOne(ctx, intent.IntentID)
	}
}

func (w *SubmitWorker) submitOne(ctx context.Context, intentID string) {
	acquired, err := w.machine.TryBeginSubmitting(ctx, intentID, w.owner)
	if err != nil {
		w.logger.Errorf("tradestate: begin submitting %s: %v", intentID, err)
		return
	}
	if !acquired {
		return // another worker holds the lease; not an error.
	}

	intent, err := w.store.GetIntent(ctx, intentID)
	if err != nil {
		w.logger.Errorf("tradestate: reload intent %s: %v", intentID, err)
		return
	}

	result, err := w.broker.Send(ctx, intent)
	if err != nil {
		if hErr := w.machine.HandleSendTimeout(ctx, intentID, w.owner); hErr != nil {
			w.logger.Errorf("tradestate: mark submit_unknown %s: %v", intentID, hErr)
		}
		return
	}

	switch result.Outcome {
	case SendAcked:
		if err := w.machine.HandleBrokerAck(ctx, intentID, w.owner, result.BrokerOrderID, result.RawRequest, result.RawResponse); err != nil {
			w.logger.Errorf("tradestate: broker ack %s: %v", intentID, err)
		}
	case SendUnknown:
		if err := w.machine.HandleSendTimeout(ctx, intentID, w.owner); err != nil {
			w.logger.Errorf("tradestate: submit_unknown %s: %v", intentID, err)
		}
	case SendRejected:
		if err := w.machine.HandleBrokerReject(ctx, intentID, w.owner, result.RawResponse, result.NormalizedCode); err != nil {
			w.logger.Errorf("tradestate: broker reject %s: %v", intentID, err)
		}
	}
}
