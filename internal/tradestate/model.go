// Package tradestate implements the C6 submission state machine: the
// inbox-deduplicated intent/order/fill lifecycle that is the executor's
// integrity layer on the trade plane (spec.md §3.4, §4.6).
package tradestate

import (
	"encoding/json"
	"strconv"
	"time"
)

// State is an intent-level state in the §4.6.1 machine.
type State string

const (
	StateNew              State = "NEW"
	StateRiskApproved     State = "RISK_APPROVED"
	StateSubmitting       State = "SUBMITTING"
	StateSubmitted        State = "SUBMITTED"
	StatePartiallyFilled  State = "PARTIALLY_FILLED"
	StateFilled           State = "FILLED"
	StateRejected         State = "REJECTED"
	StateCancelPending    State = "CANCEL_PENDING"
	StateCancelled        State = "CANCELLED"
	StateSubmitUnknown    State = "SUBMIT_UNKNOWN"
)

// terminal holds the states §4.6.2 declares terminal: no further transition
// may mutate an intent once it lands here.
var terminal = map[State]bool{
	StateFilled:    true,
	StateCancelled: true,
	StateRejected:  true,
}

// IsTerminal reports whether s has no outgoing transitions.
func IsTerminal(s State) bool { return terminal[s] }

// Intent is the trade-domain aggregate root (spec.md §3.4).
type Intent struct {
	IntentID         string
	ApprovalSnapshot json.RawMessage
	State            State
	AttemptCounter   int
	LeaseOwner       string
	LeaseExpiresAt   time.Time
	RequestHash      string
	TargetQty        float64
	CumQty           float64
	CurrentOrderID   string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Order is the broker-facing half of an intent. BeginSubmitting creates it;
// a reconcile retry (SUBMIT_UNKNOWN → SUBMITTING) keeps the same Order.
type Order struct {
	OrderID       string
	IntentID      string
	BrokerOrderID string // empty until the broker ACKs.
	RequestHash   string
	State         State
	CumQty        float64
	TargetQty     float64
	RawRequest    json.RawMessage
	RawResponse   json.RawMessage
}

// Fill is one broker execution report. NaturalKey implements spec.md §3.4's
// dedup key: the broker fill id if present, else a composite of
// (broker_order_id, ts, px, qty).
type Fill struct {
	NaturalKey    string
	OrderID       string
	BrokerOrderID string
	Qty           float64
	Price         float64
	Ts            time.Time
}

// FillNaturalKey derives the natural key for a fill lacking a broker-issued
// fill id.
func FillNaturalKey(brokerOrderID string, ts time.Time, px, qty float64) string {
	return brokerOrderID + "|" + ts.UTC().Format(time.RFC3339Nano) + "|" +
		strconv.FormatFloat(px, 'g', -1, 64) + "|" + strconv.FormatFloat(qty, 'g', -1, 64)
}

// InboxStatus is the coarse outcome recorded for an intent_id so that a
// redelivered approval event never re-enters the machine (spec.md §4.6.3).
type InboxStatus string

const (
	InboxAccepted InboxStatus = "accepted"
	InboxRejected InboxStatus = "rejected"
)

// InboxRecord is spec.md §3.4's InboxRecord: every externally observable
// outcome for an intent_id derives from exactly one of these.
type InboxRecord struct {
	IntentID     string
	Status       InboxStatus
	ResultDigest string
	RecordedAt   time.Time
}

// OutboxRecord is a pending lifecycle event awaiting reliable append to the
// trade plane (spec.md §3.4).
type OutboxRecord struct {
	ID        int64
	IntentID  string
	Stream    string
	Payload   []byte
	Published bool
	CreatedAt time.Time
}

// ErrFillConflict is raised when a duplicate fill natural key arrives with a
// conflicting (qty, price) — spec.md §4.6.3.
type ErrFillConflict struct {
	NaturalKey string
	OrderID    string
}

func (e *ErrFillConflict) Error() string {
	return "tradestate: fill conflict for natural key " + e.NaturalKey + " on order " + e.OrderID
}

// ErrLeaseLost is returned when a caller's lease has expired or been stolen
// before a SUBMITTING-state mutation could complete (spec.md §7).
type ErrLeaseLost struct{ IntentID string }

func (e *ErrLeaseLost) Error() string {
	return "tradestate: lease lost for intent " + e.IntentID
}

// ErrInvalidTransition is returned when a caller requests a transition the
// §4.6.2 table does not permit from the intent's current state.
type ErrInvalidTransition struct {
	IntentID string
	From     State
	Input    string
}

func (e *ErrInvalidTransition) Error() string {
	return "tradestate: intent " + e.IntentID + " in state " + string(e.From) + " has no transition for input " + e.Input
}
