package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{
		Addr: server.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return server, client
}

func TestNewSharedWindow_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewSharedWindow should panic with nil redis client")
		}
	}()
	NewSharedWindow(nil, "")
}

func TestSharedWindow_Consume(t *testing.T) {
	tt := []struct {
		desc        string
		runs        int
		limit       int
		timeAdvance time.Duration
		allowed     bool
		uses        int64
	}{
		{
			desc:    "allows requests under limit",
			runs:    50,
			limit:   120,
			allowed: true,
			uses:    50,
		},
		{
			desc:    "allows the request reaching the limit",
			runs:    120,
			limit:   120,
			allowed: true,
			uses:    120,
		},
		{
			desc:    "denies requests over limit without counting them",
			runs:    121,
			limit:   120,
			allowed: false,
			uses:    120,
		},
		{
			desc:        "starts a new window after expiry",
			runs:        3,
			limit:       2,
			timeAdvance: 31 * time.Second,
			allowed:     true,
			uses:        1,
		},
	}

	for _, ts := range tt {
		t.Run(ts.desc, func(t *testing.T) {
			server, client := setupMiniredis(t)
			window := NewSharedWindow(client, "")
			ctx := context.Background()

			var last Admission
			var err error
			for x := 0; x < ts.runs; x++ {
				last, err = window.Consume(ctx, "shared-key", ts.limit, time.Minute)
				require.NoError(t, err)
				if ts.timeAdvance != 0 {
					server.FastForward(ts.timeAdvance)
				}
			}

			assert.Equal(t, ts.allowed, last.Allowed)
			assert.Equal(t, ts.uses, last.Uses)
			assert.True(t, last.ResetIn > 0 && last.ResetIn <= time.Minute, "ResetIn = %v", last.ResetIn)
		})
	}
}

func TestSharedWindow_KeyIsHashed(t *testing.T) {
	server, client := setupMiniredis(t)
	window := NewSharedWindow(client, "test")

	_, err := window.Consume(context.Background(), "super-secret-key", 10, time.Minute)
	require.NoError(t, err)

	keys := server.Keys()
	require.Len(t, keys, 1)
	assert.NotContains(t, keys[0], "super-secret-key")
	assert.Contains(t, keys[0], "test:")
}

func TestSharedWindow_UsesAndReset(t *testing.T) {
	_, client := setupMiniredis(t)
	window := NewSharedWindow(client, "")
	ctx := context.Background()

	uses, err := window.Uses(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, int64(0), uses)

	for i := 0; i < 3; i++ {
		_, err := window.Consume(ctx, "key", 10, time.Minute)
		require.NoError(t, err)
	}

	uses, err = window.Uses(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, int64(3), uses)

	require.NoError(t, window.Reset(ctx, "key"))

	uses, err = window.Uses(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, int64(0), uses)
}

func TestPool_SharedWindowAcrossPools(t *testing.T) {
	server, client := setupMiniredis(t)

	cfg := testConfig(3, time.Minute)
	cfg.Shared = NewSharedWindow(client, "")

	first, err := NewPool([]string{"shared-key"}, cfg, zerolog.Nop())
	require.NoError(t, err)
	second, err := NewPool([]string{"shared-key"}, cfg, zerolog.Nop())
	require.NoError(t, err)

	ctx := context.Background()
	admitted := 0
	for i := 0; i < 4; i++ {
		for _, pool := range []*Pool{first, second} {
			if _, ok, err := pool.TryAcquire(ctx); err == nil && ok {
				admitted++
			}
		}
	}
	assert.Equal(t, 3, admitted, "two pools sharing a key must share its quota")

	// Denied shared consumptions are refunded locally.
	assert.LessOrEqual(t, first.States()[0].Uses+second.States()[0].Uses, 3)

	server.FastForward(time.Minute + time.Second)

	_, ok, err := second.TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "shared window should admit again after expiry")
}

func TestPool_SharedWindowError(t *testing.T) {
	_, client := setupMiniredis(t)

	cfg := testConfig(3, time.Minute)
	cfg.Shared = NewSharedWindow(client, "")
	pool, err := NewPool([]string{"shared-key"}, cfg, zerolog.Nop())
	require.NoError(t, err)

	client.Close()

	_, _, err = pool.TryAcquire(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, pool.States()[0].Uses, "failed shared consumption must be refunded")
}
