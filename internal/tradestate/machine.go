package tradestate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tradebus/tradebus/internal/bus"
	"github.com/tradebus/tradebus/internal/envelope"
	"github.com/tradebus/tradebus/internal/logger"
)

// Machine drives the §4.6.2 transition table over a Store, publishing each
// resulting outbox event through a bus.Producer restricted to the trade.*
// lifecycle streams.
type Machine struct {
	store    Store
	producer *bus.Producer
	logger   logger.InterfaceLogger
	leaseTTL time.Duration
}

// LifecycleStreams are every trade.* stream the machine is authorized to
// publish to (spec.md §4.6.2's "Emitted event" column).
var LifecycleStreams = []string{
	"trade.intent.approved.v1", "trade.intent.rejected.v1", "trade.submit.started.v1",
	"trade.order.submitted.v1", "trade.submit.unknown.v1", "trade.order.rejected.v1",
	"trade.reconcile.resolved.v1", "trade.submit.retried.v1", "trade.fill.recorded.v1",
	"trade.order.filled.v1", "trade.cancel.requested.v1", "trade.order.cancelled.v1",
	"trade.reconcile.ambiguous.v1",
}

// RegisterLifecycleSchemas declares every trade.* stream against registry
// with permissive payload rules: the lifecycle events are operational
// telemetry, not cross-stage contracts, so §4.1's strict field-by-field
// rules are not warranted — only the envelope shape is enforced.
func RegisterLifecycleSchemas(registry *envelope.Registry) error {
	for _, schema := range LifecycleStreams {
		if err := registry.Register(schema, &envelope.PayloadRules{Strict: false}); err != nil {
			return err
		}
	}
	return nil
}

func NewMachine(store Store, producer *bus.Producer, log logger.InterfaceLogger, leaseTTL time.Duration) *Machine {
	if leaseTTL <= 0 {
		leaseTTL = 10 * time.Second
	}
	return &Machine{store: store, producer: producer, logger: log, leaseTTL: leaseTTL}
}

// emit publishes an outbox row's payload on its declared stream and marks
// it published on success. A publish failure leaves the row unpublished and
// returns the error. The state transition has already committed, so a
// redelivered approval finds its inbox record and returns before emit; no
// code path re-publishes unpublished outbox rows.
func (m *Machine) emit(ctx context.Context, rec *OutboxRecord) error {
	if rec == nil {
		return nil
	}
	env := &envelope.Envelope{
		EventID:       uuid.NewString(),
		TraceID:       rec.IntentID,
		ProducedAt:    time.Now().UTC(),
		Schema:        rec.Stream,
		SchemaVersion: 1,
		Payload:       json.RawMessage(rec.Payload),
	}
	if _, err := m.producer.Publish(ctx, rec.Stream, env); err != nil {
		return fmt.Errorf("tradestate: publish %s: %w", rec.Stream, err)
	}
	return m.store.MarkOutboxPublished(ctx, rec.ID)
}

// HandleApproval processes one risk.order.approved.v1 (or .rejected) event.
// Redelivery of an already-admitted intent_id is a no-op by construction
// (spec.md §4.6.3).
func (m *Machine) HandleApproval(ctx context.Context, intentID string, approved bool, reason string, snapshot json.RawMessage, requestHash string, targetQty float64) error {
	if _, found, err := m.store.InboxLookup(ctx, intentID); err != nil {
		return err
	} else if found {
		return nil
	}
	_, rec, err := m.store.AdmitApproval(ctx, intentID, approved, reason, snapshot, requestHash, targetQty)
	if err != nil {
		return err
	}
	return m.emit(ctx, rec)
}

// TryBeginSubmitting acquires the SUBMITTING lease for intentID and, on
// success, records RISK_APPROVED → SUBMITTING. Returns (false, nil) if the
// lease is currently held by another owner.
func (m *Machine) TryBeginSubmitting(ctx context.Context, intentID, owner string) (bool, error) {
	acquired, err := m.store.AcquireLease(ctx, intentID, owner, m.leaseTTL)
	if err != nil || !acquired {
		return false, err
	}
	rec, err := m.store.BeginSubmitting(ctx, intentID, owner, uuid.NewString())
	if err != nil {
		return false, err
	}
	return true, m.emit(ctx, rec)
}

func (m *Machine) HandleBrokerAck(ctx context.Context, intentID, owner, brokerOrderID string, rawReq, rawResp json.RawMessage) error {
	rec, err := m.store.ConfirmSubmitted(ctx, intentID, owner, brokerOrderID, rawReq, rawResp)
	if err != nil {
		return err
	}
	return m.emit(ctx, rec)
}

func (m *Machine) HandleSendTimeout(ctx context.Context, intentID, owner string) error {
	rec, err := m.store.MarkSubmitUnknown(ctx, intentID, owner)
	if err != nil {
		return err
	}
	return m.emit(ctx, rec)
}

func (m *Machine) HandleBrokerReject(ctx context.Context, intentID, owner string, rawResp json.RawMessage, normalizedCode string) error {
	rec, err := m.store.RejectFromSubmitting(ctx, intentID, owner, rawResp, normalizedCode)
	if err != nil {
		return err
	}
	return m.emit(ctx, rec)
}

func (m *Machine) HandleReconcileFound(ctx context.Context, intentID, brokerOrderID string, resolved State) error {
	rec, err := m.store.ReconcileFound(ctx, intentID, brokerOrderID, resolved)
	if err != nil {
		return err
	}
	return m.emit(ctx, rec)
}

func (m *Machine) HandleReconcileAbsent(ctx context.Context, intentID string) error {
	rec, err := m.store.ReconcileRetry(ctx, intentID)
	if err != nil {
		return err
	}
	return m.emit(ctx, rec)
}

// HandleFill applies a fill. A conflicting duplicate returns *ErrFillConflict;
// a clean duplicate and a new fill both return nil (only the new fill emits
// an event). A conflict does not change the intent's state and emits no
// event.
func (m *Machine) HandleFill(ctx context.Context, f Fill) error {
	rec, dup, err := m.store.RecordFill(ctx, f)
	if err != nil {
		return err
	}
	if dup {
		return nil
	}
	return m.emit(ctx, rec)
}

func (m *Machine) HandleCancelRequest(ctx context.Context, intentID, cancelRequestID string) error {
	rec, err := m.store.RequestCancel(ctx, intentID, cancelRequestID)
	if err != nil {
		return err
	}
	return m.emit(ctx, rec)
}

// PublishAlert emits a bare telemetry event (no state transition, no
// outbox row) on one of the machine's authorized lifecycle streams — used
// by the reconciler's rate-limited trade.reconcile.ambiguous.v1 escalation.
func (m *Machine) PublishAlert(ctx context.Context, intentID, stream string, payload json.RawMessage) error {
	env := &envelope.Envelope{
		EventID: uuid.NewString(), TraceID: intentID, ProducedAt: time.Now().UTC(),
		Schema: stream, SchemaVersion: 1, Payload: payload,
	}
	_, err := m.producer.Publish(ctx, stream, env)
	return err
}

func (m *Machine) HandleBrokerCancelAck(ctx context.Context, intentID string) error {
	rec, err := m.store.ConfirmCancelled(ctx, intentID)
	if err != nil {
		return err
	}
	return m.emit(ctx, rec)
}
