package testutil

import "context"

// MockLocker runs the critical section without any real locking.
type MockLocker struct {
	WithLockFunc func(ctx context.Context, name string, fn func() error) error
}

func (m *MockLocker) WithLock(ctx context.Context, name string, fn func() error) error {
	if m.WithLockFunc != nil {
		return m.WithLockFunc(ctx, name, fn)
	}

	return fn()
}
