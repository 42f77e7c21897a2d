package envelope_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tradebus/tradebus/internal/envelope"
)

func TestDecodeEncodeRoundTrip(t *testing.T) {
	raw := []byte(`{
		"event_id": "E1",
		"trace_id": "T1",
		"produced_at": "2026-07-30T10:00:00Z",
		"schema": "risk.order.approved.v1",
		"schema_version": 1,
		"payload": {"symbol": "600000.SH"}
	}`)
	e, err := envelope.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, "E1", e.EventID)
	require.Equal(t, 1, e.SchemaVersion)

	out, err := envelope.Encode(e)
	require.NoError(t, err)

	again, err := envelope.Decode(out)
	require.NoError(t, err)
	require.Equal(t, e.EventID, again.EventID)
	require.Equal(t, e.Schema, again.Schema)
	require.True(t, e.ProducedAt.Equal(again.ProducedAt))
}

func TestDecode_UnknownTopLevelField(t *testing.T) {
	raw := []byte(`{
		"event_id": "E1",
		"trace_id": "T1",
		"produced_at": "2026-07-30T10:00:00Z",
		"schema": "risk.order.approved.v1",
		"schema_version": 1,
		"payload": {},
		"extra_top_level": true
	}`)
	_, err := envelope.Decode(raw)
	require.Error(t, err)
	require.True(t, envelope.IsContractViolation(err))
}

func TestDecode_CorruptBytes(t *testing.T) {
	_, err := envelope.Decode([]byte(`{not json`))
	require.Error(t, err)
	require.True(t, envelope.IsContractViolation(err))
}

func TestSchemaMajor(t *testing.T) {
	major, ok := envelope.SchemaMajor("risk.order.approved.v1")
	require.True(t, ok)
	require.Equal(t, 1, major)

	_, ok = envelope.SchemaMajor("not-a-schema")
	require.False(t, ok)
}
