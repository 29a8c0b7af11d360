package throttle

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/quillpad/identity/internal/config"
)

// Decision is the outcome of a throttle check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Throttle limits repeated authentication attempts per client key. Failures
// are counted in a fixed window; reaching the maximum flips the key into a
// blocked state for a fixed penalty. Further attempts while blocked do not
// extend the penalty.
type Throttle struct {
	config *config.ThrottleConfig
	store  Store
	log    *zap.Logger
}

func New(cfg *config.ThrottleConfig, store Store, log *zap.Logger) *Throttle {
	return &Throttle{
		config: cfg,
		store:  store,
		log:    log,
	}
}

func failKey(key string) string  { return "fail:" + key }
func blockKey(key string) string { return "block:" + key }

// Check reports whether an attempt for key may proceed.
func (t *Throttle) Check(ctx context.Context, key string) (Decision, error) {
	ttl, err := t.store.TTL(ctx, blockKey(key))
	if err != nil {
		// Fail open: throttling is a rate limit, not an authorization check.
		t.log.Error("throttle store unavailable", zap.Error(err))
		return Decision{Allowed: true}, err
	}
	if ttl > 0 {
		return Decision{Allowed: false, RetryAfter: ttl}, nil
	}
	return Decision{Allowed: true}, nil
}

// RecordFailure counts a failed attempt and starts the penalty once the
// window maximum is reached.
func (t *Throttle) RecordFailure(ctx context.Context, key string) {
	count, err := t.store.Incr(ctx, failKey(key), t.config.Window)
	if err != nil {
		t.log.Error("throttle store unavailable", zap.Error(err))
		return
	}

	if count >= int64(t.config.MaxAttempts) {
		created, err := t.store.SetIfAbsent(ctx, blockKey(key), t.config.Penalty)
		if err != nil {
			t.log.Error("throttle store unavailable", zap.Error(err))
			return
		}
		if created {
			t.log.Warn("client key blocked",
				zap.String("key", key),
				zap.Int64("failures", count),
				zap.Duration("penalty", t.config.Penalty))
			// The counter restarts once the penalty elapses.
			if err := t.store.Delete(ctx, failKey(key)); err != nil {
				t.log.Error("throttle store unavailable", zap.Error(err))
			}
		}
	}
}

// RecordSuccess resets the failure counter for key.
func (t *Throttle) RecordSuccess(ctx context.Context, key string) {
	if err := t.store.Delete(ctx, failKey(key)); err != nil {
		t.log.Error("throttle store unavailable", zap.Error(err))
	}
}
