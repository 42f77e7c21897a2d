package envelope_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tradebus/tradebus/internal/envelope"
)

func marketDataRules() *envelope.PayloadRules {
	return &envelope.PayloadRules{
		Strict: true,
		Fields: map[string]envelope.FieldRule{
			"symbol": {Type: envelope.TypeString, Required: true, MaxLength: 32},
			"price":  {Type: envelope.TypeNumber, Required: true, MinSet: true, Min: 0.0001},
			"volume": {Type: envelope.TypeNumber, Required: true, MinSet: true, Min: 0},
		},
	}
}

func validEnvelope(t *testing.T) *envelope.Envelope {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"symbol": "600000.SH",
		"price":  10.5,
		"volume": 10000,
	})
	require.NoError(t, err)
	return &envelope.Envelope{
		EventID:       "E1",
		TraceID:       "T1",
		ProducedAt:    time.Now().UTC(),
		Schema:        "perception.market_data.collected.v1",
		SchemaVersion: 1,
		Payload:       payload,
	}
}

func TestRegistryValidate_Valid(t *testing.T) {
	r := envelope.NewRegistry()
	require.NoError(t, r.Register("perception.market_data.collected.v1", marketDataRules()))

	err := r.Validate(validEnvelope(t))
	require.NoError(t, err)
}

func TestRegistryValidate_MissingTraceID(t *testing.T) {
	r := envelope.NewRegistry()
	require.NoError(t, r.Register("perception.market_data.collected.v1", marketDataRules()))

	e := validEnvelope(t)
	e.TraceID = ""
	err := r.Validate(e)
	require.Error(t, err)
	var ve *envelope.Error
	require.ErrorAs(t, err, &ve)
	require.Equal(t, envelope.MissingField, ve.Kind)
}

func TestRegistryValidate_SchemaVersionMismatch(t *testing.T) {
	r := envelope.NewRegistry()
	require.NoError(t, r.Register("perception.market_data.collected.v1", marketDataRules()))

	e := validEnvelope(t)
	e.SchemaVersion = 2
	err := r.Validate(e)
	require.Error(t, err)
	var ve *envelope.Error
	require.ErrorAs(t, err, &ve)
	require.Equal(t, envelope.VersionMismatch, ve.Kind)
}

func TestRegistryValidate_UnknownPayloadField(t *testing.T) {
	r := envelope.NewRegistry()
	require.NoError(t, r.Register("perception.market_data.collected.v1", marketDataRules()))

	e := validEnvelope(t)
	e.Payload, _ = json.Marshal(map[string]any{
		"symbol": "600000.SH", "price": 10.5, "volume": 10000, "extra": "nope",
	})
	err := r.Validate(e)
	require.Error(t, err)
	var ve *envelope.Error
	require.ErrorAs(t, err, &ve)
	require.Equal(t, envelope.UnknownField, ve.Kind)
}

func TestRegistryValidate_ExtremePayloadValues(t *testing.T) {
	r := envelope.NewRegistry()
	require.NoError(t, r.Register("perception.market_data.collected.v1", marketDataRules()))

	e := validEnvelope(t)
	e.Payload, _ = json.Marshal(map[string]any{
		"symbol": "600000.SH", "price": 0, "volume": -1,
	})
	err := r.Validate(e)
	require.Error(t, err)
	var ve *envelope.Error
	require.ErrorAs(t, err, &ve)
	require.Equal(t, envelope.PayloadInvalid, ve.Kind)
}

func TestRegistryRegister_ConflictingRedefinition(t *testing.T) {
	r := envelope.NewRegistry()
	require.NoError(t, r.Register("perception.market_data.collected.v1", marketDataRules()))

	other := marketDataRules()
	other.Fields["extra_required"] = envelope.FieldRule{Type: envelope.TypeString, Required: true}

	err := r.Register("perception.market_data.collected.v1", other)
	require.Error(t, err)
	var ve *envelope.Error
	require.ErrorAs(t, err, &ve)
	require.Equal(t, envelope.SchemaConflict, ve.Kind)
}

func TestRegistryRegister_IdempotentSameDigest(t *testing.T) {
	r := envelope.NewRegistry()
	require.NoError(t, r.Register("perception.market_data.collected.v1", marketDataRules()))
	require.NoError(t, r.Register("perception.market_data.collected.v1", marketDataRules()))
}

func TestDLQStream(t *testing.T) {
	require.Equal(t, "dlq.risk.order.approved.v1", envelope.DLQStream("risk.order.approved.v1"))
	require.Equal(t, "dlq.risk.order.approved.v1", envelope.DLQStream("dlq.risk.order.approved.v1"))
	require.True(t, envelope.IsDLQStream("dlq.risk.order.approved.v1"))
	require.False(t, envelope.IsDLQStream("risk.order.approved.v1"))
}
