package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBlacklistAddContains(t *testing.T) {
	_, rdb := newTestRedis(t)
	bl := NewBlacklist(rdb)
	ctx := context.Background()

	ok, err := bl.Contains(ctx, "some-token")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, bl.Add(ctx, "some-token", time.Hour))

	ok, err = bl.Contains(ctx, "some-token")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestBlacklistNonPositiveTTLIsNoop(t *testing.T) {
	_, rdb := newTestRedis(t)
	bl := NewBlacklist(rdb)
	ctx := context.Background()

	require.NoError(t, bl.Add(ctx, "dead-token", 0))
	require.NoError(t, bl.Add(ctx, "dead-token", -time.Minute))

	ok, err := bl.Contains(ctx, "dead-token")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBlacklistEntrySelfExpires(t *testing.T) {
	mr, rdb := newTestRedis(t)
	bl := NewBlacklist(rdb)
	ctx := context.Background()

	require.NoError(t, bl.Add(ctx, "some-token", time.Hour))

	mr.FastForward(59 * time.Minute)
	ok, err := bl.Contains(ctx, "some-token")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = bl.Contains(ctx, "some-token")
	require.NoError(t, err)
	require.False(t, ok)
}
