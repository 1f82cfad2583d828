package valkey

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrLockTimeout is returned when a lock could not be obtained before the context expired.
var ErrLockTimeout = errors.New("timed out waiting for distributed lock")

// KeyedLock is a best-effort distributed mutex built on SET NX EX.
// The TTL bounds how long a crashed holder can block others.
type KeyedLock struct {
	client    *Client
	namespace string
	ttl       time.Duration
	retry     time.Duration
}

func NewKeyedLock(client *Client, namespace string, ttl time.Duration) *KeyedLock {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &KeyedLock{
		client:    client,
		namespace: namespace,
		ttl:       ttl,
		retry:     25 * time.Millisecond,
	}
}

// TryLock attempts to take the lock once.
func (l *KeyedLock) TryLock(ctx context.Context, key string) (bool, error) {
	inner := l.client.Inner()
	cmd := inner.B().Set().
		Key(l.client.Key("lock", l.namespace, key)).
		Value("1").
		Nx().
		Ex(l.ttl).
		Build()

	if err := inner.Do(ctx, cmd).Error(); err != nil {
		if IsNil(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	return true, nil
}

// Acquire blocks until the lock is held or ctx ends. The returned release func is safe to call once.
func (l *KeyedLock) Acquire(ctx context.Context, key string) (func(), error) {
	for {
		ok, err := l.TryLock(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			return func() { l.unlock(key) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, ErrLockTimeout
		case <-time.After(l.retry):
		}
	}
}

func (l *KeyedLock) unlock(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	inner := l.client.Inner()
	if err := inner.Do(ctx, inner.B().Del().Key(l.client.Key("lock", l.namespace, key)).Build()).Error(); err != nil {
		logrus.WithError(err).Warnf("[VALKEY] Failed to release lock %s/%s", l.namespace, key)
	}
}
