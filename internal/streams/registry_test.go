package streams_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tradebus/tradebus/internal/streams"
)

func TestNewCoreRegistry_DeclaresDLQs(t *testing.T) {
	r := streams.NewCoreRegistry()
	require.True(t, r.Exists("risk.order.approved.v1"))
	require.True(t, r.Exists("dlq.risk.order.approved.v1"))
}

func TestDeclare_DifferentMajorIsADistinctStream(t *testing.T) {
	r := streams.NewRegistry()
	require.NoError(t, r.Declare("risk.order.approved.v1"))
	err := r.Declare("risk.order.approved.v2")
	// Different stream name entirely (v2 != v1 in the name), so this is a
	// fresh declaration, not a conflict.
	require.NoError(t, err)
}

func TestDeclare_InvalidName(t *testing.T) {
	r := streams.NewRegistry()
	err := r.Declare("not-a-stream-name")
	require.Error(t, err)
}
