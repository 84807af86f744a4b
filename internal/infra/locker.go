package infra

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ErrLockBusy is returned when a lock is still held by someone else after retrying.
var ErrLockBusy = errors.New("resource is busy, try again")

// Locker serialises work on a key across goroutines (and processes, when Redis-backed).
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

type redisLocker struct {
	client *redislock.Client
	ttl    time.Duration
}

// NewLocker returns a Redis lock when rdb is set and an in-process lock otherwise.
func NewLocker(rdb *redis.Client, ttl time.Duration) Locker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if rdb == nil {
		return NewLocalLocker()
	}
	return &redisLocker{client: redislock.New(rdb), ttl: ttl}
}

func (l *redisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	lock, err := l.client.Obtain(ctx, "lock:"+key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 50),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLockBusy
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}
	return func() {
		// release with a fresh context so a cancelled request still frees the key
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			log.Warn().Err(err).Str("key", key).Msg("lock release failed")
		}
	}, nil
}

type localLock struct {
	ch   chan struct{}
	refs int
}

// localLocker keeps an entry only while someone holds or waits for the key.
type localLocker struct {
	mu    sync.Mutex
	locks map[string]*localLock
}

func NewLocalLocker() Locker {
	return &localLocker{locks: make(map[string]*localLock)}
}

func (l *localLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	lk, ok := l.locks[key]
	if !ok {
		lk = &localLock{ch: make(chan struct{}, 1)}
		l.locks[key] = lk
	}
	lk.refs++
	l.mu.Unlock()

	select {
	case lk.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-lk.ch
				l.drop(key, lk)
			})
		}, nil
	case <-ctx.Done():
		l.drop(key, lk)
		return nil, ctx.Err()
	}
}

func (l *localLocker) drop(key string, lk *localLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk.refs--
	if lk.refs == 0 && l.locks[key] == lk {
		delete(l.locks, key)
	}
}

func (l *localLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
