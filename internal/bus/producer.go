// Package bus implements the C3 message bus: producer/consumer contracts,
// retry policy, idempotent dispatch, and DLQ routing (spec.md §4.3).
package bus

import (
	"context"
	"errors"
	"fmt"

	"github.com/tradebus/tradebus/internal/envelope"
	"github.com/tradebus/tradebus/internal/logger"
	"github.com/tradebus/tradebus/internal/streamlog"
	"github.com/tradebus/tradebus/internal/streams"
)

// ErrUnauthorizedStream is spec.md §7's UnauthorizedStream: a configuration
// bug, fatal at startup / synchronous to the caller, never silent.
var ErrUnauthorizedStream = errors.New("bus: producer not declared for stream")

// PublishResult is one envelope's outcome within a PublishBatch call.
type PublishResult struct {
	Offset streamlog.Offset
	Err    error
}

// Producer is the C3 producer contract (spec.md §4.3.1).
type Producer struct {
	log      streamlog.StreamLog
	registry *envelope.Registry
	streams  *streams.Registry
	declared map[string]bool
	logger   logger.InterfaceLogger
}

// NewProducer builds a Producer authorized to publish only to
// declaredOutputs (spec.md §3.3: "a processor MAY only append to declared
// output_streams"). An empty declaredOutputs means "no restriction". The
// bridge passes its whitelist as declaredOutputs; the replay harness appends
// to the stream log directly and does not use a Producer.
func NewProducer(sl streamlog.StreamLog, registry *envelope.Registry, streamReg *streams.Registry, declaredOutputs []string, log logger.InterfaceLogger) *Producer {
	declared := make(map[string]bool, len(declaredOutputs))
	for _, s := range declaredOutputs {
		declared[s] = true
	}
	return &Producer{log: sl, registry: registry, streams: streamReg, declared: declared, logger: log}
}

// Publish validates env via the schema registry, then appends it. A
// validation failure is a ContractViolation surfaced to the caller — never
// silent (spec.md §4.3.1).
func (p *Producer) Publish(ctx context.Context, stream string, env *envelope.Envelope) (streamlog.Offset, error) {
	if len(p.declared) > 0 && !p.declared[stream] {
		return "", fmt.Errorf("%w: %s", ErrUnauthorizedStream, stream)
	}
	if err := p.registry.Validate(env); err != nil {
		return "", err
	}
	if p.streams != nil {
		_ = p.streams.Declare(stream) // self-healing registration; a stream named by a valid schema is always declarable.
	}
	b, err := envelope.Encode(env)
	if err != nil {
		return "", err
	}
	off, err := p.log.Append(ctx, stream, b)
	if err != nil {
		p.logger.Errorf("bus: append to %s failed: %v", stream, err)
		return "", err
	}
	return off, nil
}

// PublishBatch publishes each envelope individually; partial appends MAY
// occur (spec.md §4.3.1 — "all-or-nothing per batch is not promised").
func (p *Producer) PublishBatch(ctx context.Context, stream string, envs []*envelope.Envelope) []PublishResult {
	out := make([]PublishResult, len(envs))
	for i, e := range envs {
		off, err := p.Publish(ctx, stream, e)
		out[i] = PublishResult{Offset: off, Err: err}
	}
	return out
}
