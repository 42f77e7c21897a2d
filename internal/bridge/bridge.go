// Package bridge implements the C5 Trade Bridge: the sole path from the
// compute plane into the physically isolated trade plane (spec.md §4.5).
// It is a stateless forwarder — idempotency on the trade side is the
// downstream consumer's concern, not the bridge's.
package bridge

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/tradebus/tradebus/internal/bus"
	"github.com/tradebus/tradebus/internal/envelope"
	"github.com/tradebus/tradebus/internal/logger"
	"github.com/tradebus/tradebus/internal/streamlog"
)

const consumerGroup = "trade-bridge"

// Metrics exposes the bridge's forwarding counters. NonForwarded counts
// events the handler declines to forward; the bridge only consumes
// whitelisted streams, so events on other streams are never read and never
// counted. DLQed is not incremented by any code path: invalid envelopes are
// routed to the DLQ by bus.Consumer before the bridge's handler runs.
type Metrics struct {
	Forwarded    int64
	NonForwarded int64
	DLQed        int64
}

// Bridge reads a fixed whitelist of streams from the compute plane and
// re-appends each valid event, verbatim, to the identically named stream
// on the trade plane. Nothing else may write to the trade plane.
type Bridge struct {
	whitelist map[string]bool
	consumers []*bus.Consumer
	metrics   Metrics
}

// isApprovalStream reports whether name follows the <layer>.<entity>.approved.v<major>
// convention the bridge whitelist is restricted to (spec.md §4.5/§4.6: the
// bridge forwards only approved-order events; DefaultBridgeWhitelist's
// "risk.order.approved.v1" is the canonical instance).
func isApprovalStream(name string) bool {
	if _, ok := envelope.SchemaMajor(name); !ok {
		return false
	}
	parts := strings.Split(name, ".")
	return len(parts) == 4 && parts[2] == "approved"
}

// New builds a Bridge. Configuring any stream outside whitelist is a
// startup-time error (spec.md §4.5: "Any attempt to configure a
// non-approval stream is rejected at startup") — and so is configuring the
// whitelist itself with a non-approval-type stream name.
func New(whitelist []string, computeSL, tradeSL streamlog.StreamLog, registry *envelope.Registry, cache bus.IdempotencyCache, cfg bus.ConsumerConfig, log logger.InterfaceLogger) (*Bridge, error) {
	if len(whitelist) == 0 {
		return nil, fmt.Errorf("bridge: whitelist must not be empty")
	}
	set := make(map[string]bool, len(whitelist))
	for _, s := range whitelist {
		if !isApprovalStream(s) {
			return nil, fmt.Errorf("bridge: whitelist entry %q is not an approval-type stream (expected <layer>.<entity>.approved.v<major>)", s)
		}
		set[s] = true
	}

	b := &Bridge{whitelist: set}
	producer := bus.NewProducer(tradeSL, registry, nil, whitelist, log)

	for _, stream := range whitelist {
		stream := stream
		handler := func(ctx context.Context, env *envelope.Envelope) bus.HandlerResult {
			if !set[env.Schema] {
				// Defense in depth: the consumer only reads whitelisted
				// streams, so this should be unreachable in practice.
				atomic.AddInt64(&b.metrics.NonForwarded, 1)
				return bus.ResultOk()
			}
			if _, err := producer.Publish(ctx, stream, env); err != nil {
				if err == bus.ErrUnauthorizedStream {
					atomic.AddInt64(&b.metrics.NonForwarded, 1)
					return bus.ResultOk()
				}
				return bus.ResultRetryable(err.Error())
			}
			atomic.AddInt64(&b.metrics.Forwarded, 1)
			return bus.ResultOk()
		}

		consumerCfg := cfg
		consumerCfg.Group = consumerGroup
		consumerCfg.Stream = stream
		b.consumers = append(b.consumers, bus.NewConsumer(consumerCfg, computeSL, registry, cache, handler, log))
	}

	return b, nil
}

// Run hosts every whitelisted stream's consumer until ctx is canceled or
// one of them returns a non-context error.
func (b *Bridge) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, c := range b.consumers {
		c := c
		g.Go(func() error { return c.Run(ctx) })
	}
	return g.Wait()
}

// Metrics returns a snapshot of the bridge's forwarding counters.
func (b *Bridge) Metrics() Metrics {
	return Metrics{
		Forwarded:    atomic.LoadInt64(&b.metrics.Forwarded),
		NonForwarded: atomic.LoadInt64(&b.metrics.NonForwarded),
		DLQed:        atomic.LoadInt64(&b.metrics.DLQed),
	}
}
