package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lock serializes message handling per user. A second message arriving
// while the first is still being processed must be rejected, not queued.
// The expiry is a safety net: if a holder dies without releasing, the
// user is unblocked once it lapses.
type Lock struct {
	client *redis.Client
	expiry time.Duration
}

// NewLock creates a per-user processing lock
func NewLock(client *redis.Client, expiry time.Duration) *Lock {
	if expiry <= 0 {
		expiry = 60 * time.Second
	}
	return &Lock{client: client, expiry: expiry}
}

func lockKey(userID string) string {
	return fmt.Sprintf("practice:user:%s:lock", userID)
}

// Acquire attempts to take the user's lock. It never blocks: the return
// value reports whether the caller now holds the lock.
func (l *Lock) Acquire(ctx context.Context, userID string) (bool, error) {
	ok, err := l.client.SetNX(ctx, lockKey(userID), "1", l.expiry).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire user lock: %w", err)
	}
	if !ok {
		slog.Debug("user lock busy", "user_id", userID)
	}
	return ok, nil
}

// Release drops the user's lock. Releasing a lock that already expired
// is a no-op.
func (l *Lock) Release(ctx context.Context, userID string) error {
	if err := l.client.Del(ctx, lockKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to release user lock: %w", err)
	}
	return nil
}
