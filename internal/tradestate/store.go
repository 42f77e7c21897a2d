package tradestate

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound mirrors the teacher's repository.ErrNotFound for a missing
// intent/order lookup.
var ErrNotFound = errors.New("tradestate: not found")

// ErrAlreadyAdmitted is wrapped into AdmitApproval's error when intentID
// already has an InboxRecord — the boundary idempotency case of §4.6.3.
var ErrAlreadyAdmitted = errors.New("tradestate: intent already admitted")

// Store is the transactional persistence port for C6. Every method that
// mutates an intent's state performs its write, its outbox insert, and its
// inbox update as one atomic unit (spec.md §5: "each transition is one
// transaction encompassing state write, outbox write, and inbox update").
type Store interface {
	// GetIntent loads an intent by id. Returns ErrNotFound if absent.
	GetIntent(ctx context.Context, intentID string) (*Intent, error)

	// InboxLookup returns the recorded outcome for intentID, if any. A
	// redelivered approval event with a found InboxRecord must not re-enter
	// the machine (spec.md §4.6.3).
	InboxLookup(ctx context.Context, intentID string) (*InboxRecord, bool, error)

	// AdmitApproval upserts a new intent from a first-seen approved snapshot,
	// recording the NEW → RISK_APPROVED transition, an inbox record, and an
	// outbox row for trade.intent_approved. approved=false records a
	// rejection (NEW → REJECTED, trade.intent_rejected) instead.
	AdmitApproval(ctx context.Context, intentID string, approved bool, reason string, snapshot json.RawMessage, requestHash string, targetQty float64) (*Intent, *OutboxRecord, error)

	// AcquireLease attempts to take the SUBMITTING-state lease for
	// intentID. The write is conditional: expires_at < now OR owner = self
	// (spec.md §5). Returns false if another owner currently holds it.
	AcquireLease(ctx context.Context, intentID, owner string, ttl time.Duration) (bool, error)

	// BeginSubmitting records RISK_APPROVED → SUBMITTING under the caller's
	// lease, assigning submitAttemptID, and returns the trade.submit_started
	// outbox row.
	BeginSubmitting(ctx context.Context, intentID, owner, submitAttemptID string) (*OutboxRecord, error)

	// ConfirmSubmitted records SUBMITTING → SUBMITTED on broker ACK.
	ConfirmSubmitted(ctx context.Context, intentID, owner, brokerOrderID string, rawReq, rawResp json.RawMessage) (*OutboxRecord, error)

	// MarkSubmitUnknown records SUBMITTING → SUBMIT_UNKNOWN on a send
	// timeout or connection loss.
	MarkSubmitUnknown(ctx context.Context, intentID, owner string) (*OutboxRecord, error)

	// RejectFromSubmitting records SUBMITTING → REJECTED on an explicit
	// broker reject.
	RejectFromSubmitting(ctx context.Context, intentID, owner string, rawResp json.RawMessage, normalizedCode string) (*OutboxRecord, error)

	// ReconcileFound records SUBMIT_UNKNOWN → {SUBMITTED, PARTIALLY_FILLED,
	// FILLED} (whichever the broker's view implies) after the reconciler
	// matches a broker order for intentID.
	ReconcileFound(ctx context.Context, intentID, brokerOrderID string, resolved State) (*OutboxRecord, error)

	// ReconcileRetry records SUBMIT_UNKNOWN → SUBMITTING after the
	// reconciler confirms the broker has no record of the order.
	ReconcileRetry(ctx context.Context, intentID string) (*OutboxRecord, error)

	// RecordFill applies a fill under the natural-key dedup rule. dup is
	// true if this natural key was already recorded (no-op, discarded,
	// counted in metrics). A conflicting duplicate returns *ErrFillConflict
	// without recording the fill; the intent's state is left unchanged.
	RecordFill(ctx context.Context, f Fill) (outbox *OutboxRecord, dup bool, err error)

	// RequestCancel records SUBMITTED/PARTIALLY_FILLED → CANCEL_PENDING.
	RequestCancel(ctx context.Context, intentID, cancelRequestID string) (*OutboxRecord, error)

	// ConfirmCancelled records CANCEL_PENDING → CANCELLED on broker ACK.
	ConfirmCancelled(ctx context.Context, intentID string) (*OutboxRecord, error)

	// PendingSubmitUnknown lists every intent currently in SUBMIT_UNKNOWN,
	// for the reconciliation worker to sweep.
	PendingSubmitUnknown(ctx context.Context) ([]*Intent, error)

	// PendingRiskApproved lists every intent currently in RISK_APPROVED,
	// for the submit worker to lease and send.
	PendingRiskApproved(ctx context.Context) ([]*Intent, error)

	// MarkOutboxPublished records that an outbox row was durably appended
	// to the stream log, so it is never re-emitted.
	MarkOutboxPublished(ctx context.Context, outboxID int64) error

	// DuplicateFillCount returns the running count of discarded duplicate
	// fills, for metrics (spec.md §8.1 invariant 5).
	DuplicateFillCount(ctx context.Context) (int64, error)
}
