package tradestate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tradebus/tradebus/internal/bus"
	"github.com/tradebus/tradebus/internal/envelope"
	"github.com/tradebus/tradebus/internal/logger"
	"github.com/tradebus/tradebus/internal/streamlog"
)

// approvalPayload is risk.order.approved.v1's payload shape, as far as C6
// cares: whether risk approved the candidate action, and the intent's
// identity and target quantity.
type approvalPayload struct {
	IntentID    string  `json:"intent_id"`
	Approved    bool    `json:"approved"`
	Reason      string  `json:"reason"`
	RequestHash string  `json:"request_hash"`
	TargetQty   float64 `json:"target_qty"`
}

// NewApprovalConsumer wires a bus.Consumer on the trade plane's
// risk.order.approved.v1 stream into machine.HandleApproval (spec.md §4.6:
// "Consumes risk.order.approved.v1 on the trade plane").
func NewApprovalConsumer(cfg bus.ConsumerConfig, tradeSL streamlog.StreamLog, registry *envelope.Registry, cache bus.IdempotencyCache, machine *Machine, log logger.InterfaceLogger) *bus.Consumer {
	cfg.Stream = "risk.order.approved.v1"
	if cfg.Group == "" {
		cfg.Group = "tradestate"
	}

	handler := func(ctx context.Context, env *envelope.Envelope) bus.HandlerResult {
		var p approvalPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return bus.ResultFatal(fmt.Sprintf("malformed approval payload: %v", err))
		}
		if p.IntentID == "" {
			return bus.ResultFatal("approval payload missing intent_id")
		}
		if err := machine.HandleApproval(ctx, p.IntentID, p.Approved, p.Reason, env.Payload, p.RequestHash, p.TargetQty); err != nil {
			return bus.ResultRetryable(err.Error())
		}
		return bus.ResultOk()
	}

	return bus.NewConsumer(cfg, tradeSL, registry, cache, handler, log)
}
