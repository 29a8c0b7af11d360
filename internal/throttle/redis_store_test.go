package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quillpad/identity/internal/config"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "throttle"), mr
}

func TestRedisStore_Incr(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	count, err := store.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = store.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// The window TTL is anchored to the first failure.
	mr.FastForward(time.Minute + time.Second)
	count, err = store.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRedisStore_SetIfAbsent(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	created, err := store.SetIfAbsent(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.SetIfAbsent(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.False(t, created)

	mr.FastForward(time.Minute + time.Second)
	created, err = store.SetIfAbsent(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestRedisStore_TTL(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	ttl, err := store.TTL(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), ttl)

	_, err = store.SetIfAbsent(ctx, "k", time.Minute)
	require.NoError(t, err)

	ttl, err = store.TTL(ctx, "k")
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	mr.FastForward(time.Minute + time.Second)
	ttl, err = store.TTL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), ttl)
}

func TestRedisStore_Delete(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	_, err := store.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, "k"))

	count, err := store.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestThrottle_OverRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log, err := zap.NewDevelopment()
	require.NoError(t, err)

	cfg := &config.ThrottleConfig{
		MaxAttempts: 3,
		Window:      time.Minute,
		Penalty:     5 * time.Minute,
	}
	th := New(cfg, NewRedisStore(client, "throttle"), log)
	ctx := context.Background()

	for i := 0; i < cfg.MaxAttempts; i++ {
		th.RecordFailure(ctx, "ip:10.0.0.1")
	}

	decision, err := th.Check(ctx, "ip:10.0.0.1")
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	assert.Greater(t, decision.RetryAfter, time.Duration(0))

	// Failures while blocked must not extend the penalty.
	mr.FastForward(cfg.Penalty / 2)
	th.RecordFailure(ctx, "ip:10.0.0.1")
	decision, err = th.Check(ctx, "ip:10.0.0.1")
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	assert.LessOrEqual(t, decision.RetryAfter, cfg.Penalty/2)

	mr.FastForward(cfg.Penalty/2 + time.Second)
	decision, err = th.Check(ctx, "ip:10.0.0.1")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}
