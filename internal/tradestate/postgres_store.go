package tradestate

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tradebus/tradebus/internal/logger"
)

// PostgresStore is the C6 Store backed by Postgres. Every mutating method
// commits its state write, outbox insert, and inbox update as one
// transaction (spec.md §5). It is the production trade-plane store; tests
// and --local-store convenience mode use MemoryStore instead.
type PostgresStore struct {
	db     *sql.DB
	logger logger.InterfaceLogger
}

func NewPostgresStore(db *sql.DB, log logger.InterfaceLogger) *PostgresStore {
	return &PostgresStore{db: db, logger: log}
}

var _ Store = (*PostgresStore)(nil)

func (s *PostgresStore) GetIntent(ctx context.Context, intentID string) (*Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var i Intent
	var leaseExpires sql.NullTime
	err := s.db.QueryRowContext(ctx, `
SELECT intent_id, approval_snapshot, state, attempt_counter, lease_owner, lease_expires_at,
       request_hash, target_qty, cum_qty, current_order_id, created_at, updated_at
FROM intents WHERE intent_id = $1`, intentID).Scan(
		&i.IntentID, &i.ApprovalSnapshot, &i.State, &i.AttemptCounter, &i.LeaseOwner, &leaseExpires,
		&i.RequestHash, &i.TargetQty, &i.CumQty, &i.CurrentOrderID, &i.CreatedAt, &i.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("tradestate: select intent: %w", err)
	}
	if leaseExpires.Valid {
		i.LeaseExpiresAt = leaseExpires.Time
	}
	return &i, nil
}

func (s *PostgresStore) InboxLookup(ctx context.Context, intentID string) (*InboxRecord, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var r InboxRecord
	err := s.db.QueryRowContext(ctx, `
SELECT intent_id, status, result_digest, recorded_at FROM inbox WHERE intent_id = $1`, intentID).
		Scan(&r.IntentID, &r.Status, &r.ResultDigest, &r.RecordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("tradestate: select inbox: %w", err)
	}
	return &r, true, nil
}

func (s *PostgresStore) insertOutbox(ctx context.Context, tx *sql.Tx, intentID, stream string, payload any) (*OutboxRecord, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("tradestate: marshal outbox payload: %w", err)
	}
	rec := &OutboxRecord{IntentID: intentID, Stream: stream, Payload: b, CreatedAt: time.Now()}
	err = tx.QueryRowContext(ctx, `
INSERT INTO outbox (intent_id, stream, payload) VALUES ($1, $2, $3) RETURNING id`,
		intentID, stream, b).Scan(&rec.ID)
	if err != nil {
		return nil, fmt.Errorf("tradestate: insert outbox: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) AdmitApproval(ctx context.Context, intentID string, approved bool, reason string, snapshot json.RawMessage, requestHash string, targetQty float64) (*Intent, *OutboxRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("tradestate: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM inbox WHERE intent_id = $1)`, intentID).Scan(&exists); err != nil {
		return nil, nil, fmt.Errorf("tradestate: check inbox: %w", err)
	}
	if exists {
		return nil, nil, fmt.Errorf("tradestate: intent %s already admitted: %w", intentID, ErrAlreadyAdmitted)
	}

	state := StateRiskApproved
	if !approved {
		state = StateRejected
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO intents (intent_id, approval_snapshot, state, request_hash, target_qty)
VALUES ($1, $2, $3, $4, $5)`, intentID, []byte(snapshot), state, requestHash, targetQty); err != nil {
		return nil, nil, fmt.Errorf("tradestate: insert intent: %w", err)
	}

	status := InboxAccepted
	digest := "risk_approved"
	stream := "trade.intent.approved.v1"
	payload := map[string]any{"intent_id": intentID, "request_hash": requestHash, "target_qty": targetQty}
	if !approved {
		status = InboxRejected
		digest = reason
		stream = "trade.intent.rejected.v1"
		payload = map[string]any{"intent_id": intentID, "reason": reason}
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO inbox (intent_id, status, result_digest) VALUES ($1, $2, $3)`, intentID, status, digest); err != nil {
		return nil, nil, fmt.Errorf("tradestate: insert inbox: %w", err)
	}

	rec, err := s.insertOutbox(ctx, tx, intentID, stream, payload)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("tradestate: commit: %w", err)
	}

	return &Intent{IntentID: intentID, ApprovalSnapshot: snapshot, State: state, RequestHash: requestHash, TargetQty: targetQty}, rec, nil
}

func (s *PostgresStore) AcquireLease(ctx context.Context, intentID, owner string, ttl time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `
UPDATE intents SET lease_owner = $1, lease_expires_at = $2, updated_at = now()
WHERE intent_id = $3 AND (lease_expires_at IS NULL OR lease_expires_at < now() OR lease_owner = $1)`,
		owner, time.Now().Add(ttl), intentID)
	if err != nil {
		return false, fmt.Errorf("tradestate: acquire lease: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *PostgresStore) transitionTx(ctx context.Context, intentID, owner string, from []State, to State, mutate func(tx *sql.Tx) error, stream string, payload any) (*OutboxRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("tradestate: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var state State
	var leaseOwner string
	var leaseExpires sql.NullTime
	if err := tx.QueryRowContext(ctx, `SELECT state, lease_owner, lease_expires_at FROM intents WHERE intent_id = $1 FOR UPDATE`, intentID).
		Scan(&state, &leaseOwner, &leaseExpires); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("tradestate: select intent for update: %w", err)
	}

	if owner != "" {
		if leaseOwner != owner || !leaseExpires.Valid || leaseExpires.Time.Before(time.Now()) {
			return nil, &ErrLeaseLost{IntentID: intentID}
		}
	}

	allowed := len(from) == 0
	for _, f := range from {
		if state == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, &ErrInvalidTransition{IntentID: intentID, From: state, Input: stream}
	}

	if mutate != nil {
		if err := mutate(tx); err != nil {
			return nil, err
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE intents SET state = $1, updated_at = now() WHERE intent_id = $2`, to, intentID); err != nil {
		return nil, fmt.Errorf("tradestate: update intent state: %w", err)
	}

	rec, err := s.insertOutbox(ctx, tx, intentID, stream, payload)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("tradestate: commit: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) BeginSubmitting(ctx context.Context, intentID, owner, submitAttemptID string) (*OutboxRecord, error) {
	return s.transitionTx(ctx, intentID, owner, []State{StateRiskApproved}, StateSubmitting, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
UPDATE intents SET attempt_counter = attempt_counter + 1, current_order_id = $1 WHERE intent_id = $2`,
			submitAttemptID, intentID); err != nil {
			return fmt.Errorf("tradestate: bump attempt counter: %w", err)
		}
		var requestHash string
		var targetQty float64
		if err := tx.QueryRowContext(ctx, `SELECT request_hash, target_qty FROM intents WHERE intent_id = $1`, intentID).
			Scan(&requestHash, &targetQty); err != nil {
			return fmt.Errorf("tradestate: read request_hash: %w", err)
		}
		_, err := tx.ExecContext(ctx, `
INSERT INTO orders (order_id, intent_id, request_hash, state, target_qty) VALUES ($1, $2, $3, $4, $5)`,
			submitAttemptID, intentID, requestHash, StateSubmitting, targetQty)
		return err
	}, "trade.submit.started.v1", map[string]any{"intent_id": intentID, "submit_attempt_id": submitAttemptID})
}

func (s *PostgresStore) currentOrderID(ctx context.Context, tx *sql.Tx, intentID string) (string, error) {
	var orderID string
	err := tx.QueryRowContext(ctx, `SELECT current_order_id FROM intents WHERE intent_id = $1`, intentID).Scan(&orderID)
	return orderID, err
}

func (s *PostgresStore) ConfirmSubmitted(ctx context.Context, intentID, owner, brokerOrderID string, rawReq, rawResp json.RawMessage) (*OutboxRecord, error) {
	return s.transitionTx(ctx, intentID, owner, []State{StateSubmitting}, StateSubmitted, func(tx *sql.Tx) error {
		orderID, err := s.currentOrderID(ctx, tx, intentID)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
UPDATE orders SET broker_order_id = $1, raw_request = $2, raw_response = $3, state = $4 WHERE order_id = $5`,
			brokerOrderID, []byte(rawReq), []byte(rawResp), StateSubmitted, orderID)
		return err
	}, "trade.order.submitted.v1", map[string]any{"intent_id": intentID, "broker_order_id": brokerOrderID})
}

func (s *PostgresStore) MarkSubmitUnknown(ctx context.Context, intentID, owner string) (*OutboxRecord, error) {
	var requestHash string
	row := s.db.QueryRowContext(ctx, `SELECT request_hash FROM intents WHERE intent_id = $1`, intentID)
	_ = row.Scan(&requestHash)
	return s.transitionTx(ctx, intentID, owner, []State{StateSubmitting}, StateSubmitUnknown, nil,
		"trade.submit.unknown.v1", map[string]any{"intent_id": intentID, "request_hash": requestHash})
}

func (s *PostgresStore) RejectFromSubmitting(ctx context.Context, intentID, owner string, rawResp json.RawMessage, normalizedCode string) (*OutboxRecord, error) {
	return s.transitionTx(ctx, intentID, owner, []State{StateSubmitting}, StateRejected, func(tx *sql.Tx) error {
		orderID, err := s.currentOrderID(ctx, tx, intentID)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE orders SET raw_response = $1, state = $2 WHERE order_id = $3`,
			[]byte(rawResp), StateRejected, orderID)
		return err
	}, "trade.order.rejected.v1", map[string]any{"intent_id": intentID, "normalized_code": normalizedCode})
}

func (s *PostgresStore) ReconcileFound(ctx context.Context, intentID, brokerOrderID string, resolved State) (*OutboxRecord, error) {
	return s.transitionTx(ctx, intentID, "", []State{StateSubmitUnknown}, resolved, func(tx *sql.Tx) error {
		orderID, err := s.currentOrderID(ctx, tx, intentID)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE orders SET broker_order_id = $1, state = $2 WHERE order_id = $3`,
			brokerOrderID, resolved, orderID)
		return err
	}, "trade.reconcile.resolved.v1", map[string]any{"intent_id": intentID, "broker_order_id": brokerOrderID, "resolved_state": string(resolved)})
}

func (s *PostgresStore) ReconcileRetry(ctx context.Context, intentID string) (*OutboxRecord, error) {
	return s.transitionTx(ctx, intentID, "", []State{StateSubmitUnknown}, StateSubmitting, nil,
		"trade.submit.retried.v1", map[string]any{"intent_id": intentID})
}

func (s *PostgresStore) RecordFill(ctx context.Context, f Fill) (*OutboxRecord, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("tradestate: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existingQty, existingPx float64
	err = tx.QueryRowContext(ctx, `SELECT qty, price FROM fills WHERE natural_key = $1`, f.NaturalKey).Scan(&existingQty, &existingPx)
	if err == nil {
		if existingQty != f.Qty || existingPx != f.Price {
			return nil, false, &ErrFillConflict{NaturalKey: f.NaturalKey, OrderID: f.OrderID}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE dup_fill_counter SET count = count + 1 WHERE id = 1`); err != nil {
			return nil, false, fmt.Errorf("tradestate: bump dup counter: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, false, fmt.Errorf("tradestate: commit: %w", err)
		}
		return nil, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("tradestate: select fill: %w", err)
	}

	var intentID string
	var cumQty, targetQty float64
	if err := tx.QueryRowContext(ctx, `
SELECT o.intent_id, o.cum_qty, o.target_qty FROM orders o WHERE o.order_id = $1 FOR UPDATE`, f.OrderID).
		Scan(&intentID, &cumQty, &targetQty); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, ErrNotFound
		}
		return nil, false, fmt.Errorf("tradestate: select order: %w", err)
	}

	var state State
	if err := tx.QueryRowContext(ctx, `SELECT state FROM intents WHERE intent_id = $1`, intentID).Scan(&state); err != nil {
		return nil, false, fmt.Errorf("tradestate: select intent state: %w", err)
	}
	if state != StateSubmitted && state != StatePartiallyFilled {
		return nil, false, &ErrInvalidTransition{IntentID: intentID, From: state, Input: "fill"}
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO fills (natural_key, order_id, qty, price, ts) VALUES ($1, $2, $3, $4, $5)`,
		f.NaturalKey, f.OrderID, f.Qty, f.Price, f.Ts); err != nil {
		return nil, false, fmt.Errorf("tradestate: insert fill: %w", err)
	}

	newCum := cumQty + f.Qty
	if _, err := tx.ExecContext(ctx, `UPDATE orders SET cum_qty = $1 WHERE order_id = $2`, newCum, f.OrderID); err != nil {
		return nil, false, fmt.Errorf("tradestate: update order cum_qty: %w", err)
	}

	newState := StatePartiallyFilled
	stream := "trade.fill.recorded.v1"
	payload := map[string]any{"intent_id": intentID, "order_id": f.OrderID, "natural_key": f.NaturalKey, "qty": f.Qty, "cum_qty": newCum, "target_qty": targetQty}
	if newCum >= targetQty {
		newState = StateFilled
		stream = "trade.order.filled.v1"
		payload = map[string]any{"intent_id": intentID, "order_id": f.OrderID, "cum_qty": newCum}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE intents SET state = $1, cum_qty = $2, updated_at = now() WHERE intent_id = $3`,
		newState, newCum, intentID); err != nil {
		return nil, false, fmt.Errorf("tradestate: update intent cum_qty: %w", err)
	}
	if newState == StateFilled {
		if _, err := tx.ExecContext(ctx, `UPDATE orders SET state = $1 WHERE order_id = $2`, StateFilled, f.OrderID); err != nil {
			return nil, false, fmt.Errorf("tradestate: finalize order: %w", err)
		}
	}

	rec, err := s.insertOutbox(ctx, tx, intentID, stream, payload)
	if err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("tradestate: commit: %w", err)
	}
	return rec, false, nil
}

func (s *PostgresStore) RequestCancel(ctx context.Context, intentID, cancelRequestID string) (*OutboxRecord, error) {
	return s.transitionTx(ctx, intentID, "", []State{StateSubmitted, StatePartiallyFilled}, StateCancelPending, nil,
		"trade.cancel.requested.v1", map[string]any{"intent_id": intentID, "cancel_request_id": cancelRequestID})
}

func (s *PostgresStore) ConfirmCancelled(ctx context.Context, intentID string) (*OutboxRecord, error) {
	return s.transitionTx(ctx, intentID, "", []State{StateCancelPending}, StateCancelled, nil,
		"trade.order.cancelled.v1", map[string]any{"intent_id": intentID})
}

func (s *PostgresStore) PendingSubmitUnknown(ctx context.Context) ([]*Intent, error) {
	return s.listByState(ctx, StateSubmitUnknown)
}

func (s *PostgresStore) PendingRiskApproved(ctx context.Context) ([]*Intent, error) {
	return s.listByState(ctx, StateRiskApproved)
}

func (s *PostgresStore) listByState(ctx context.Context, state State) ([]*Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
SELECT intent_id, approval_snapshot, state, attempt_counter, lease_owner, lease_expires_at,
       request_hash, target_qty, cum_qty, current_order_id, created_at, updated_at
FROM intents WHERE state = $1`, state)
	if err != nil {
		return nil, fmt.Errorf("tradestate: list by state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Intent
	for rows.Next() {
		var i Intent
		var leaseExpires sql.NullTime
		if err := rows.Scan(&i.IntentID, &i.ApprovalSnapshot, &i.State, &i.AttemptCounter, &i.LeaseOwner, &leaseExpires,
			&i.RequestHash, &i.TargetQty, &i.CumQty, &i.CurrentOrderID, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, fmt.Errorf("tradestate: scan intent: %w", err)
		}
		if leaseExpires.Valid {
			i.LeaseExpiresAt = leaseExpires.Time
		}
		out = append(out, &i)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkOutboxPublished(ctx context.Context, outboxID int64) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	res, err := s.db.ExecContext(ctx, `UPDATE outbox SET published = true WHERE id = $1`, outboxID)
	if err != nil {
		return fmt.Errorf("tradestate: mark outbox published: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DuplicateFillCount(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT count FROM dup_fill_counter WHERE id = 1`).Scan(&n)
	return n, err
}
