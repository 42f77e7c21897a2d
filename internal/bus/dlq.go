package bus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/tradebus/tradebus/internal/envelope"
	"github.com/tradebus/tradebus/internal/streamlog"
)

// dlqPayload is the payload shape of spec.md §4.3.3.
type dlqPayload struct {
	OriginalStream   string          `json:"original_stream"`
	OriginalOffset   string          `json:"original_offset"`
	OriginalEnvelope json.RawMessage `json:"original_envelope"`
	ErrorKind        string          `json:"error_kind"`
	ErrorDetail      string          `json:"error_detail"`
	Attempts         int             `json:"attempts"`
}

// buildDLQEnvelope wraps originalBytes (the raw, possibly-invalid bytes
// read off the stream) into a DLQ envelope. traceID is inherited from the
// original envelope when it could be decoded; callers pass "" otherwise and
// buildDLQEnvelope falls back to a fresh trace of its own, since an
// undecodable event has no trace to inherit.
func buildDLQEnvelope(originalStream string, originalOffset streamlog.Offset, originalBytes []byte, origSchema, traceID, errKind, errDetail string, attempts int) (*envelope.Envelope, string) {
	if traceID == "" {
		traceID = uuid.NewString()
	}
	payload := dlqPayload{
		OriginalStream:   originalStream,
		OriginalOffset:   string(originalOffset),
		OriginalEnvelope: json.RawMessage(originalBytes),
		ErrorKind:        errKind,
		ErrorDetail:      errDetail,
		Attempts:         attempts,
	}
	payloadBytes, _ := json.Marshal(payload)

	schema := envelope.DLQSchema(origSchema)
	dlqStream := envelope.DLQStream(originalStream)
	env := &envelope.Envelope{
		EventID:       uuid.NewString(),
		TraceID:       traceID,
		ProducedAt:    time.Now().UTC(),
		Schema:        schema,
		SchemaVersion: 1,
		Payload:       payloadBytes,
	}
	return env, dlqStream
}

// dlqRules is the payload contract every dlq.* schema satisfies. publishDLQ
// registers it under the dlq.<stream> name each time it writes to that DLQ.
func dlqRules() *envelope.PayloadRules {
	return &envelope.PayloadRules{
		Strict: true,
		Fields: map[string]envelope.FieldRule{
			"original_stream":   {Type: envelope.TypeString, Required: true},
			"original_offset":   {Type: envelope.TypeString, Required: true},
			"original_envelope": {Type: envelope.TypeObject, Required: true},
			"error_kind":        {Type: envelope.TypeString, Required: true},
			"error_detail":      {Type: envelope.TypeString, Required: true},
			"attempts":          {Type: envelope.TypeNumber, Required: true, MinSet: true, Min: 0},
		},
	}
}

// PublishDLQ is publishDLQ exported for callers outside the package that
// sit at the system's edge and need the same DLQ-routing convention without
// going through a full Consumer (internal/ingest: a raw external message
// that fails to even decode into an envelope has nowhere else to go).
func PublishDLQ(ctx context.Context, sl streamlog.StreamLog, registry *envelope.Registry, originalStream string, originalOffset streamlog.Offset, originalBytes []byte, origSchema, traceID, errKind, errDetail string, attempts int) error {
	return publishDLQ(ctx, sl, registry, originalStream, originalOffset, originalBytes, origSchema, traceID, errKind, errDetail, attempts)
}

// publishDLQ appends a DLQ envelope built from the given failure context.
// DLQ writes bypass the producer's declared-output whitelist check: every
// consumer is implicitly authorized to write to its own stream's DLQ.
func publishDLQ(ctx context.Context, sl streamlog.StreamLog, registry *envelope.Registry, originalStream string, originalOffset streamlog.Offset, originalBytes []byte, origSchema, traceID, errKind, errDetail string, attempts int) error {
	env, dlqStream := buildDLQEnvelope(originalStream, originalOffset, originalBytes, origSchema, traceID, errKind, errDetail, attempts)
	_ = registry.Register(dlqStream, dlqRules()) // idempotent; ignore SchemaConflict from a pre-existing differently-shaped registration, DLQ shape never changes across call sites.

	if err := registry.Validate(env); err != nil {
		return err
	}
	b, err := envelope.Encode(env)
	if err != nil {
		return err
	}
	_, err = sl.Append(ctx, dlqStream, b)
	return err
}
