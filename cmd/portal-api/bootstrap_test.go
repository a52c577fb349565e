package main

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestOpenRedis_SharesOneClient(t *testing.T) {
	mr := miniredis.RunT(t)
	rc, rl, closeRedis := openRedis(mr.Addr())

	ctx := context.Background()
	require.NoError(t, rc.Set(ctx, "track:CL0000000001:view", []byte("{}"), time.Minute))
	ok, n, err := rl.Allow(ctx, "rl:track:192.0.2.1", 5, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1), n)

	closeRedis()

	_, _, err = rc.Get(ctx, "track:CL0000000001:view")
	require.ErrorIs(t, err, redis.ErrClosed)
	_, _, err = rl.Allow(ctx, "rl:track:192.0.2.1", 5, time.Minute)
	require.ErrorIs(t, err, redis.ErrClosed)
}
