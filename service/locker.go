// service/locker.go
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const reconcileLockName = "dynamic-group-reconcile"

// Locker serializes reconciliation runs.
type Locker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

// LockStore is the Redis side of RedisLocker. db.RedisStore implements it.
type LockStore interface {
	LockResource(ctx context.Context, resourceName, token string, ttl time.Duration) (bool, error)
	UnlockResource(ctx context.Context, resourceName, token string) (bool, error)
}

// RedisLocker holds the reconcile lock in Redis so that several processes
// sharing a database never apply concurrently. Each acquisition stores its
// own token, so a run that outlived the TTL cannot release a lock taken
// since by another process.
type RedisLocker struct {
	store LockStore
	ttl   time.Duration

	mu    sync.Mutex
	token string
}

func NewRedisLocker(store LockStore, ttl time.Duration) *RedisLocker {
	return &RedisLocker{store: store, ttl: ttl}
}

func (l *RedisLocker) TryLock(ctx context.Context) (bool, error) {
	token := uuid.NewString()
	locked, err := l.store.LockResource(ctx, reconcileLockName, token, l.ttl)
	if err != nil || !locked {
		return false, err
	}

	l.mu.Lock()
	l.token = token
	l.mu.Unlock()
	return true, nil
}

func (l *RedisLocker) Unlock(ctx context.Context) error {
	l.mu.Lock()
	token := l.token
	l.token = ""
	l.mu.Unlock()

	if token == "" {
		return fmt.Errorf("reconcile lock is not held")
	}
	released, err := l.store.UnlockResource(ctx, reconcileLockName, token)
	if err != nil {
		return err
	}
	if !released {
		return fmt.Errorf("reconcile lock expired before release (ttl %s)", l.ttl)
	}
	return nil
}

// LocalLocker is an in-process Locker.
type LocalLocker struct {
	mu sync.Mutex
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{}
}

func (l *LocalLocker) TryLock(ctx context.Context) (bool, error) {
	return l.mu.TryLock(), nil
}

func (l *LocalLocker) Unlock(ctx context.Context) error {
	l.mu.Unlock()
	return nil
}
