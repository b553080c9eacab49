package distlock

import (
	"context"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// Locker serializes an action across processes. The database guard
// remains the correctness backstop; the lock only avoids wasted work when
// two writers race for the same resource.
type Locker interface {
	WithLock(ctx context.Context, name string, fn func() error) error
}

type redsyncLocker struct {
	rs     *redsync.Redsync
	expiry time.Duration
}

func NewRedsyncLocker(client *redis.Client, expiry time.Duration) *redsyncLocker {
	return &redsyncLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		expiry: expiry,
	}
}

func (l *redsyncLocker) WithLock(ctx context.Context, name string, fn func() error) error {
	mutex := l.rs.NewMutex(name,
		redsync.WithExpiry(l.expiry),
		redsync.WithTries(5),
		redsync.WithRetryDelay(50*time.Millisecond),
	)

	if err := mutex.LockContext(ctx); err != nil {
		return err
	}

	defer func() {
		_, _ = mutex.UnlockContext(ctx)
	}()

	return fn()
}
