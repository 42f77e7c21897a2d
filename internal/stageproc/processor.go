// Package stageproc is the C7 reusable host every pipeline stage (and the
// one example ingestion gateway) wires its transform into: it declares
// input/output streams, constructs the consumer binding in bus, and
// enforces output-stream whitelisting (spec.md §4.7, §3.3).
package stageproc

import (
	"context"

	"github.com/tradebus/tradebus/internal/bus"
	"github.com/tradebus/tradebus/internal/envelope"
	"github.com/tradebus/tradebus/internal/logger"
	"github.com/tradebus/tradebus/internal/streamlog"
	"github.com/tradebus/tradebus/internal/streams"
)

// Context is the minimal surface exposed to a stage handler.
type Context struct {
	Event   *envelope.Envelope
	TraceID string

	emit func(ctx context.Context, stream string, env *envelope.Envelope) (streamlog.Offset, error)
}

// Emit appends env to stream, subject to the binding's output whitelist.
func (c *Context) Emit(ctx context.Context, stream string, env *envelope.Envelope) (streamlog.Offset, error) {
	return c.emit(ctx, stream, env)
}

// TransformFunc is a stage's business logic: consume one validated input
// event, optionally emit zero or more output events via sc.Emit.
type TransformFunc func(ctx context.Context, sc *Context) bus.HandlerResult

// Binding is the declared tuple of spec.md §3.3.
type Binding struct {
	InputStream    string
	Group          string
	OutputStreams  []string
	Transform      TransformFunc
	ConsumerConfig bus.ConsumerConfig
}

// Processor hosts one Binding: it owns a bus.Producer restricted to
// OutputStreams and a bus.Consumer on InputStream/Group whose handler
// invokes Transform.
type Processor struct {
	binding  Binding
	consumer *bus.Consumer
}

// New constructs a Processor. cache is the idempotency cache the consumer
// dedups against; streamReg, if non-nil, is used to self-register the
// binding's streams.
func New(binding Binding, sl streamlog.StreamLog, registry *envelope.Registry, streamReg *streams.Registry, cache bus.IdempotencyCache, log logger.InterfaceLogger) *Processor {
	producer := bus.NewProducer(sl, registry, streamReg, binding.OutputStreams, log)

	handler := func(ctx context.Context, env *envelope.Envelope) bus.HandlerResult {
		sc := &Context{
			Event:   env,
			TraceID: env.TraceID,
			emit: func(ctx context.Context, stream string, out *envelope.Envelope) (streamlog.Offset, error) {
				if out.TraceID == "" {
					out.TraceID = env.TraceID // derived events propagate trace_id unchanged (spec.md §3.1).
				}
				return producer.Publish(ctx, stream, out)
			},
		}
		return binding.Transform(ctx, sc)
	}

	cfg := binding.ConsumerConfig
	cfg.Group = binding.Group
	cfg.Stream = binding.InputStream
	consumer := bus.NewConsumer(cfg, sl, registry, cache, handler, log)

	return &Processor{binding: binding, consumer: consumer}
}

// Run blocks hosting the binding until ctx is canceled.
func (p *Processor) Run(ctx context.Context) error {
	return p.consumer.Run(ctx)
}
