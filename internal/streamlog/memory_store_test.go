package streamlog_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tradebus/tradebus/internal/streamlog"
)

func TestMemoryStore_AppendAndGroupRead(t *testing.T) {
	ctx := context.Background()
	s := streamlog.NewMemoryStore()

	_, err := s.Append(ctx, "risk.order.approved.v1", []byte("e1"))
	require.NoError(t, err)
	_, err = s.Append(ctx, "risk.order.approved.v1", []byte("e2"))
	require.NoError(t, err)

	require.NoError(t, s.CreateGroup(ctx, "risk.order.approved.v1", "g1", streamlog.StartBeginning, ""))

	entries, err := s.GroupRead(ctx, "risk.order.approved.v1", "g1", "c1", 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// A second read returns nothing new until a claim happens.
	entries, err = s.GroupRead(ctx, "risk.order.approved.v1", "g1", "c2", 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 0)
}

func TestMemoryStore_AckRemovesFromPending(t *testing.T) {
	ctx := context.Background()
	s := streamlog.NewMemoryStore()
	_, _ = s.Append(ctx, "s1", []byte("e1"))
	require.NoError(t, s.CreateGroup(ctx, "s1", "g1", streamlog.StartBeginning, ""))

	entries, err := s.GroupRead(ctx, "s1", "g1", "c1", 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, s.Ack(ctx, "s1", "g1", entries[0].Offset))

	claimed, err := s.ClaimStale(ctx, "s1", "g1", "c2", 0, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 0)
}

func TestMemoryStore_ClaimStaleReassigns(t *testing.T) {
	ctx := context.Background()
	s := streamlog.NewMemoryStore()
	_, _ = s.Append(ctx, "s1", []byte("e1"))
	require.NoError(t, s.CreateGroup(ctx, "s1", "g1", streamlog.StartBeginning, ""))

	_, err := s.GroupRead(ctx, "s1", "g1", "c1", 10, 0)
	require.NoError(t, err)

	claimed, err := s.ClaimStale(ctx, "s1", "g1", "c2", 0, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	require.Equal(t, []byte("e1"), claimed[0].Bytes)
}

func TestMemoryStore_ReadRangeIgnoresGroups(t *testing.T) {
	ctx := context.Background()
	s := streamlog.NewMemoryStore()
	off1, _ := s.Append(ctx, "s1", []byte("e1"))
	_, _ = s.Append(ctx, "s1", []byte("e2"))

	entries, err := s.ReadRange(ctx, "s1", "", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	entries, err = s.ReadRange(ctx, "s1", off1, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, []byte("e2"), entries[0].Bytes)
}

func TestMemoryStore_CreateGroupStartEndSkipsExisting(t *testing.T) {
	ctx := context.Background()
	s := streamlog.NewMemoryStore()
	_, _ = s.Append(ctx, "s1", []byte("old"))
	require.NoError(t, s.CreateGroup(ctx, "s1", "g1", streamlog.StartEnd, ""))
	_, _ = s.Append(ctx, "s1", []byte("new"))

	entries, err := s.GroupRead(ctx, "s1", "g1", "c1", 10, time.Millisecond)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, []byte("new"), entries[0].Bytes)
}
