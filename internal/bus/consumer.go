package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tradebus/tradebus/internal/envelope"
	"github.com/tradebus/tradebus/internal/logger"
	"github.com/tradebus/tradebus/internal/streamlog"
)

// Outcome is a handler's result shape (spec.md §4.3.2): the bus never
// relies on a panic/recover unwind to distinguish retriable from fatal.
type Outcome int

const (
	Ok Outcome = iota
	Retryable
	Fatal
)

// HandlerResult is what a Handler returns. Digest, if set, is recorded in
// the idempotency cache on Ok; an empty Digest defaults to a fixed marker,
// which is sufficient unless the caller needs FillConflict-style detection
// of a re-delivery that would have produced a different result.
type HandlerResult struct {
	Outcome Outcome
	Reason  string
	Digest  string
}

func ResultOk() HandlerResult                { return HandlerResult{Outcome: Ok} }
func ResultRetryable(reason string) HandlerResult { return HandlerResult{Outcome: Retryable, Reason: reason} }
func ResultFatal(reason string) HandlerResult     { return HandlerResult{Outcome: Fatal, Reason: reason} }

// Handler processes one validated envelope.
type Handler func(ctx context.Context, env *envelope.Envelope) HandlerResult

// ConsumerConfig is the §4.3.2 registration tuple, minus handler (passed
// separately to NewConsumer).
type ConsumerConfig struct {
	Group             string
	Stream            string
	ConsumerName      string
	MaxAttempts       int
	VisibilityTimeout time.Duration
	Concurrency       int
	IdempotencyTTL    time.Duration
	Backoff           BackoffPolicy
	PollInterval      time.Duration
}

func defaultConsumerConfig(group, stream string) ConsumerConfig {
	return ConsumerConfig{
		Group:             group,
		Stream:            stream,
		ConsumerName:      fmt.Sprintf("%s-%d", group, time.Now().UnixNano()),
		MaxAttempts:       5,
		VisibilityTimeout: 30 * time.Second,
		Concurrency:       4,
		IdempotencyTTL:    7 * 24 * time.Hour,
		Backoff:           DefaultBackoffPolicy,
		PollInterval:      200 * time.Millisecond,
	}
}

// Consumer is the C3 consumer contract: at-least-once delivery, idempotent
// dispatch, retry with attempt caps, DLQ routing (spec.md §4.3.2).
type Consumer struct {
	cfg      ConsumerConfig
	sl       streamlog.StreamLog
	registry *envelope.Registry
	cache    IdempotencyCache
	handler  Handler
	logger   logger.InterfaceLogger

	sf       singleflight.Group
	attempts sync.Map // key: group\x00eventID -> int
	pollWait time.Duration
}

// NewConsumer wires a Consumer. cfg's zero-valued fields are filled from
// defaultConsumerConfig(cfg.Group, cfg.Stream).
func NewConsumer(cfg ConsumerConfig, sl streamlog.StreamLog, registry *envelope.Registry, cache IdempotencyCache, handler Handler, log logger.InterfaceLogger) *Consumer {
	d := defaultConsumerConfig(cfg.Group, cfg.Stream)
	if cfg.ConsumerName != "" {
		d.ConsumerName = cfg.ConsumerName
	}
	if cfg.MaxAttempts > 0 {
		d.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.VisibilityTimeout > 0 {
		d.VisibilityTimeout = cfg.VisibilityTimeout
	}
	if cfg.Concurrency > 0 {
		d.Concurrency = cfg.Concurrency
	}
	if cfg.IdempotencyTTL > 0 {
		d.IdempotencyTTL = cfg.IdempotencyTTL
	}
	if cfg.Backoff != (BackoffPolicy{}) {
		d.Backoff = cfg.Backoff
	}
	if cfg.PollInterval > 0 {
		d.PollInterval = cfg.PollInterval
	}
	return &Consumer{cfg: d, sl: sl, registry: registry, cache: cache, handler: handler, logger: log, pollWait: d.PollInterval}
}

// Run blocks consuming cfg.Stream under cfg.Group until ctx is canceled.
// Ceasing new GroupRead calls on cancellation and letting in-flight work
// finish is the caller's responsibility via ctx's grace period (spec.md §5).
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.sl.CreateGroup(ctx, c.cfg.Stream, c.cfg.Group, streamlog.StartBeginning, ""); err != nil {
		return fmt.Errorf("bus: create group: %w", err)
	}

	sem := make(chan struct{}, c.cfg.Concurrency)
	var wg sync.WaitGroup

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		default:
		}

		entries, err := c.sl.GroupRead(ctx, c.cfg.Stream, c.cfg.Group, c.cfg.ConsumerName, c.cfg.Concurrency, c.cfg.PollInterval)
		if err != nil {
			c.logger.Errorf("bus: group read on %s/%s: %v", c.cfg.Stream, c.cfg.Group, err)
			entries = nil
		}
		if len(entries) == 0 {
			claimed, err := c.sl.ClaimStale(ctx, c.cfg.Stream, c.cfg.Group, c.cfg.ConsumerName, c.cfg.VisibilityTimeout, c.cfg.Concurrency)
			if err != nil {
				c.logger.Errorf("bus: claim stale on %s/%s: %v", c.cfg.Stream, c.cfg.Group, err)
			}
			entries = claimed
		}

		if len(entries) == 0 {
			c.growPollWait()
			select {
			case <-ctx.Done():
				wg.Wait()
				return ctx.Err()
			case <-time.After(c.pollWait):
			}
			continue
		}
		c.pollWait = c.cfg.PollInterval

		for _, e := range entries {
			e := e
			sem <- struct{}{}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() { <-sem }()
				c.process(ctx, e)
			}()
		}
	}
}

func (c *Consumer) growPollWait() {
	next := time.Duration(float64(c.pollWait) * c.cfg.Backoff.Factor)
	if next > c.cfg.Backoff.Cap {
		next = c.cfg.Backoff.Cap
	}
	if next < c.cfg.PollInterval {
		next = c.cfg.PollInterval
	}
	c.pollWait = next
}

func (c *Consumer) process(ctx context.Context, e streamlog.Entry) {
	env, err := envelope.Decode(e.Bytes)
	if err != nil {
		c.dlqAndAck(ctx, e, "", "", "InvalidEnvelope", err.Error(), 0)
		return
	}
	if err := c.registry.Validate(env); err != nil {
		kind := "ContractViolation"
		if ve, ok := err.(*envelope.Error); ok {
			kind = string(ve.Kind)
		}
		c.dlqAndAck(ctx, e, env.Schema, env.TraceID, kind, err.Error(), 0)
		return
	}

	digest, found, err := c.cache.Get(ctx, c.cfg.Group, env.EventID)
	if err != nil {
		c.logger.Errorf("bus: idempotency get: %v", err)
	}
	if found {
		_ = digest
		_ = c.sl.Ack(ctx, c.cfg.Stream, c.cfg.Group, e.Offset)
		return
	}

	sfKey := c.cfg.Group + "\x00" + env.EventID
	_, _, _ = c.sf.Do(sfKey, func() (interface{}, error) {
		c.dispatch(ctx, e, env)
		return nil, nil
	})
}

func (c *Consumer) dispatch(ctx context.Context, e streamlog.Entry, env *envelope.Envelope) {
	// Re-check after winning the singleflight: another goroutine in a
	// different process (or an earlier round in this one) may have already
	// recorded a result while we waited.
	if _, found, _ := c.cache.Get(ctx, c.cfg.Group, env.EventID); found {
		_ = c.sl.Ack(ctx, c.cfg.Stream, c.cfg.Group, e.Offset)
		return
	}

	handlerCtx := ctx
	var cancel context.CancelFunc
	handlerCtx, cancel = context.WithTimeout(ctx, c.handlerTimeout())
	defer cancel()

	result := c.handler(handlerCtx, env)

	switch result.Outcome {
	case Ok:
		digest := result.Digest
		if digest == "" {
			digest = "ok"
		}
		if err := c.cache.Put(ctx, c.cfg.Group, env.EventID, digest, c.cfg.IdempotencyTTL); err != nil {
			c.logger.Errorf("bus: idempotency put: %v", err)
		}
		c.attempts.Delete(c.attemptKey(env.EventID))
		_ = c.sl.Ack(ctx, c.cfg.Stream, c.cfg.Group, e.Offset)

	case Retryable:
		attempt := c.incrAttempt(env.EventID)
		if attempt >= c.cfg.MaxAttempts {
			c.dlqAndAck(ctx, e, env.Schema, env.TraceID, "RetryableExhausted", result.Reason, attempt)
			c.attempts.Delete(c.attemptKey(env.EventID))
			return
		}
		// Leave pending: claim_stale redelivers after VisibilityTimeout.

	case Fatal:
		attempt := c.incrAttempt(env.EventID)
		c.dlqAndAck(ctx, e, env.Schema, env.TraceID, "FatalError", result.Reason, attempt)
		c.attempts.Delete(c.attemptKey(env.EventID))
	}
}

func (c *Consumer) handlerTimeout() time.Duration {
	if c.cfg.VisibilityTimeout > 0 {
		return c.cfg.VisibilityTimeout
	}
	return 30 * time.Second
}

func (c *Consumer) attemptKey(eventID string) string { return c.cfg.Group + "\x00" + eventID }

func (c *Consumer) incrAttempt(eventID string) int {
	k := c.attemptKey(eventID)
	v, _ := c.attempts.LoadOrStore(k, 0)
	n := v.(int) + 1
	c.attempts.Store(k, n)
	return n
}

func (c *Consumer) dlqAndAck(ctx context.Context, e streamlog.Entry, schema, traceID, errKind, errDetail string, attempts int) {
	if schema == "" {
		schema = c.cfg.Stream
	}
	if err := publishDLQ(ctx, c.sl, c.registry, c.cfg.Stream, e.Offset, e.Bytes, schema, traceID, errKind, errDetail, attempts); err != nil {
		c.logger.Errorf("bus: publish to DLQ failed for %s: %v", c.cfg.Stream, err)
	}
	if err := c.sl.Ack(ctx, c.cfg.Stream, c.cfg.Group, e.Offset); err != nil {
		c.logger.Errorf("bus: ack after DLQ failed: %v", err)
	}
}
