// Package broker holds the boundary seam for broker adapters, which are
// explicitly out of scope (spec.md §1: "broker adapters" are modeled only
// by their contract — tradestate.BrokerSender and tradestate.BrokerInquirer).
// NoopAdapter is the placeholder the executor binary wires in until a real
// adapter exists; it never sends anything and never invents a fill.
package broker

import (
	"context"
	"errors"

	"github.com/tradebus/tradebus/internal/tradestate"
)

// ErrNotConfigured is returned by every NoopAdapter call.
var ErrNotConfigured = errors.New("broker: no adapter configured")

// NoopAdapter implements both tradestate.BrokerSender and
// tradestate.BrokerInquirer by refusing every call. Wiring a real adapter
// means satisfying the same two interfaces.
type NoopAdapter struct{}

var (
	_ tradestate.BrokerSender   = NoopAdapter{}
	_ tradestate.BrokerInquirer = NoopAdapter{}
)

func (NoopAdapter) Send(ctx context.Context, intent *tradestate.Intent) (tradestate.SendResult, error) {
	return tradestate.SendResult{}, ErrNotConfigured
}

func (NoopAdapter) Reconcile(ctx context.Context, intent *tradestate.Intent) (tradestate.Verdict, error) {
	return tradestate.Verdict{}, ErrNotConfigured
}
