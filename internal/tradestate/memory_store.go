package tradestate

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

var nowFunc = time.Now

// MemoryStore is an in-process Store, used by every unit test that
// exercises tradestate transitions without a live Postgres. It mirrors
// PostgresStore's transition semantics without a database (spec.md §5:
// one transaction per transition — emulated here with a single mutex).
type MemoryStore struct {
	mu sync.Mutex

	intents   map[string]*Intent
	orders    map[string]*Order
	fillByKey map[string]*Fill
	inbox     map[string]*InboxRecord
	outbox    []*OutboxRecord
	nextOutboxID int64
	dupFills  int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		intents:   make(map[string]*Intent),
		orders:    make(map[string]*Order),
		fillByKey: make(map[string]*Fill),
		inbox:     make(map[string]*InboxRecord),
	}
}

func (s *MemoryStore) appendOutbox(intentID, stream string, payload any) *OutboxRecord {
	s.nextOutboxID++
	b, _ := json.Marshal(payload)
	rec := &OutboxRecord{ID: s.nextOutboxID, IntentID: intentID, Stream: stream, Payload: b, CreatedAt: nowFunc()}
	s.outbox = append(s.outbox, rec)
	return rec
}

func (s *MemoryStore) GetIntent(_ context.Context, intentID string) (*Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.intents[intentID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *i
	return &cp, nil
}

func (s *MemoryStore) InboxLookup(_ context.Context, intentID string) (*InboxRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.inbox[intentID]
	return r, ok, nil
}

func (s *MemoryStore) AdmitApproval(_ context.Context, intentID string, approved bool, reason string, snapshot json.RawMessage, requestHash string, targetQty float64) (*Intent, *OutboxRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.inbox[intentID]; ok {
		// Already admitted: idempotency at the boundary (spec.md §4.6.3).
		return s.intents[intentID], nil, fmt.Errorf("tradestate: intent %s already admitted with status %s: %w", intentID, rec.Status, ErrAlreadyAdmitted)
	}

	now := nowFunc()
	intent := &Intent{
		IntentID: intentID, ApprovalSnapshot: snapshot, RequestHash: requestHash,
		TargetQty: targetQty, CreatedAt: now, UpdatedAt: now,
	}

	var outbox *OutboxRecord
	if !approved {
		intent.State = StateRejected
		s.inbox[intentID] = &InboxRecord{IntentID: intentID, Status: InboxRejected, ResultDigest: reason, RecordedAt: now}
		outbox = s.appendOutbox(intentID, "trade.intent.rejected.v1", map[string]any{"intent_id": intentID, "reason": reason})
	} else {
		intent.State = StateRiskApproved
		s.inbox[intentID] = &InboxRecord{IntentID: intentID, Status: InboxAccepted, ResultDigest: "risk_approved", RecordedAt: now}
		outbox = s.appendOutbox(intentID, "trade.intent.approved.v1", map[string]any{"intent_id": intentID, "request_hash": requestHash, "target_qty": targetQty})
	}
	s.intents[intentID] = intent

	cp := *intent
	return &cp, outbox, nil
}

func (s *MemoryStore) AcquireLease(_ context.Context, intentID, owner string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.intents[intentID]
	if !ok {
		return false, ErrNotFound
	}
	now := nowFunc()
	if intent.LeaseOwner != "" && intent.LeaseOwner != owner && intent.LeaseExpiresAt.After(now) {
		return false, nil
	}
	intent.LeaseOwner = owner
	intent.LeaseExpiresAt = now.Add(ttl)
	intent.UpdatedAt = now
	return true, nil
}

func (s *MemoryStore) checkLease(intent *Intent, owner string) error {
	if intent.LeaseOwner != owner || intent.LeaseExpiresAt.Before(nowFunc()) {
		return &ErrLeaseLost{IntentID: intent.IntentID}
	}
	return nil
}

func (s *MemoryStore) BeginSubmitting(_ context.Context, intentID, owner, submitAttemptID string) (*OutboxRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.intents[intentID]
	if !ok {
		return nil, ErrNotFound
	}
	if intent.State != StateRiskApproved {
		return nil, &ErrInvalidTransition{IntentID: intentID, From: intent.State, Input: "lease_acquired"}
	}
	if err := s.checkLease(intent, owner); err != nil {
		return nil, err
	}
	intent.State = StateSubmitting
	intent.AttemptCounter++
	intent.CurrentOrderID = submitAttemptID
	intent.UpdatedAt = nowFunc()
	s.orders[submitAttemptID] = &Order{
		OrderID: submitAttemptID, IntentID: intentID, RequestHash: intent.RequestHash,
		State: StateSubmitting, TargetQty: intent.TargetQty,
	}
	return s.appendOutbox(intentID, "trade.submit.started.v1", map[string]any{"intent_id": intentID, "submit_attempt_id": submitAttemptID}), nil
}

func (s *MemoryStore) ConfirmSubmitted(_ context.Context, intentID, owner, brokerOrderID string, rawReq, rawResp json.RawMessage) (*OutboxRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.intents[intentID]
	if !ok {
		return nil, ErrNotFound
	}
	if intent.State != StateSubmitting {
		return nil, &ErrInvalidTransition{IntentID: intentID, From: intent.State, Input: "broker_ack"}
	}
	if err := s.checkLease(intent, owner); err != nil {
		return nil, err
	}
	order := s.orders[intent.CurrentOrderID]
	order.BrokerOrderID = brokerOrderID
	order.RawRequest, order.RawResponse = rawReq, rawResp
	order.State = StateSubmitted
	intent.State = StateSubmitted
	intent.UpdatedAt = nowFunc()
	return s.appendOutbox(intentID, "trade.order.submitted.v1", map[string]any{"intent_id": intentID, "broker_order_id": brokerOrderID}), nil
}

func (s *MemoryStore) MarkSubmitUnknown(_ context.Context, intentID, owner string) (*OutboxRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.intents[intentID]
	if !ok {
		return nil, ErrNotFound
	}
	if intent.State != StateSubmitting {
		return nil, &ErrInvalidTransition{IntentID: intentID, From: intent.State, Input: "send_timeout"}
	}
	if err := s.checkLease(intent, owner); err != nil {
		return nil, err
	}
	intent.State = StateSubmitUnknown
	intent.UpdatedAt = nowFunc()
	return s.appendOutbox(intentID, "trade.submit.unknown.v1", map[string]any{"intent_id": intentID, "request_hash": intent.RequestHash}), nil
}

func (s *MemoryStore) RejectFromSubmitting(_ context.Context, intentID, owner string, rawResp json.RawMessage, normalizedCode string) (*OutboxRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.intents[intentID]
	if !ok {
		return nil, ErrNotFound
	}
	if intent.State != StateSubmitting {
		return nil, &ErrInvalidTransition{IntentID: intentID, From: intent.State, Input: "broker_reject"}
	}
	if err := s.checkLease(intent, owner); err != nil {
		return nil, err
	}
	if order := s.orders[intent.CurrentOrderID]; order != nil {
		order.RawResponse = rawResp
		order.State = StateRejected
	}
	intent.State = StateRejected
	intent.UpdatedAt = nowFunc()
	return s.appendOutbox(intentID, "trade.order.rejected.v1", map[string]any{"intent_id": intentID, "normalized_code": normalizedCode}), nil
}

func (s *MemoryStore) ReconcileFound(_ context.Context, intentID, brokerOrderID string, resolved State) (*OutboxRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.intents[intentID]
	if !ok {
		return nil, ErrNotFound
	}
	if intent.State != StateSubmitUnknown {
		return nil, &ErrInvalidTransition{IntentID: intentID, From: intent.State, Input: "reconcile_found"}
	}
	if order := s.orders[intent.CurrentOrderID]; order != nil {
		order.BrokerOrderID = brokerOrderID
		order.State = resolved
	}
	intent.State = resolved
	intent.UpdatedAt = nowFunc()
	return s.appendOutbox(intentID, "trade.reconcile.resolved.v1", map[string]any{"intent_id": intentID, "broker_order_id": brokerOrderID, "resolved_state": string(resolved)}), nil
}

func (s *MemoryStore) ReconcileRetry(_ context.Context, intentID string) (*OutboxRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.intents[intentID]
	if !ok {
		return nil, ErrNotFound
	}
	if intent.State != StateSubmitUnknown {
		return nil, &ErrInvalidTransition{IntentID: intentID, From: intent.State, Input: "reconcile_absent"}
	}
	intent.State = StateSubmitting
	intent.UpdatedAt = nowFunc()
	return s.appendOutbox(intentID, "trade.submit.retried.v1", map[string]any{"intent_id": intentID}), nil
}

func (s *MemoryStore) RecordFill(_ context.Context, f Fill) (*OutboxRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.fillByKey[f.NaturalKey]; ok {
		if existing.Qty != f.Qty || existing.Price != f.Price {
			return nil, false, &ErrFillConflict{NaturalKey: f.NaturalKey, OrderID: f.OrderID}
		}
		s.dupFills++
		return nil, true, nil
	}

	order, ok := s.orders[f.OrderID]
	if !ok {
		return nil, false, ErrNotFound
	}
	intent, ok := s.intents[order.IntentID]
	if !ok {
		return nil, false, ErrNotFound
	}
	if intent.State != StateSubmitted && intent.State != StatePartiallyFilled {
		return nil, false, &ErrInvalidTransition{IntentID: intent.IntentID, From: intent.State, Input: "fill"}
	}

	s.fillByKey[f.NaturalKey] = &f
	order.CumQty += f.Qty
	intent.CumQty = order.CumQty
	intent.UpdatedAt = nowFunc()

	if order.CumQty >= order.TargetQty {
		order.State = StateFilled
		intent.State = StateFilled
		rec := s.appendOutbox(intent.IntentID, "trade.order.filled.v1", map[string]any{
			"intent_id": intent.IntentID, "order_id": order.OrderID, "cum_qty": order.CumQty,
		})
		return rec, false, nil
	}

	order.State = StatePartiallyFilled
	intent.State = StatePartiallyFilled
	rec := s.appendOutbox(intent.IntentID, "trade.fill.recorded.v1", map[string]any{
		"intent_id": intent.IntentID, "order_id": order.OrderID, "natural_key": f.NaturalKey,
		"qty": f.Qty, "cum_qty": order.CumQty, "target_qty": order.TargetQty,
	})
	return rec, false, nil
}

func (s *MemoryStore) RequestCancel(_ context.Context, intentID, cancelRequestID string) (*OutboxRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.intents[intentID]
	if !ok {
		return nil, ErrNotFound
	}
	if intent.State != StateSubmitted && intent.State != StatePartiallyFilled {
		return nil, &ErrInvalidTransition{IntentID: intentID, From: intent.State, Input: "cancel_request"}
	}
	intent.State = StateCancelPending
	intent.UpdatedAt = nowFunc()
	return s.appendOutbox(intentID, "trade.cancel.requested.v1", map[string]any{"intent_id": intentID, "cancel_request_id": cancelRequestID}), nil
}

func (s *MemoryStore) ConfirmCancelled(_ context.Context, intentID string) (*OutboxRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.intents[intentID]
	if !ok {
		return nil, ErrNotFound
	}
	if intent.State != StateCancelPending {
		return nil, &ErrInvalidTransition{IntentID: intentID, From: intent.State, Input: "broker_cancel_ack"}
	}
	intent.State = StateCancelled
	intent.UpdatedAt = nowFunc()
	return s.appendOutbox(intentID, "trade.order.cancelled.v1", map[string]any{"intent_id": intentID}), nil
}

func (s *MemoryStore) PendingSubmitUnknown(_ context.Context) ([]*Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Intent
	for _, i := range s.intents {
		if i.State == StateSubmitUnknown {
			cp := *i
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemoryStore) PendingRiskApproved(_ context.Context) ([]*Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Intent
	for _, i := range s.intents {
		if i.State == StateRiskApproved {
			cp := *i
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemoryStore) MarkOutboxPublished(_ context.Context, outboxID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.outbox {
		if rec.ID == outboxID {
			rec.Published = true
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) DuplicateFillCount(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dupFills, nil
}
