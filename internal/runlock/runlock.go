// Package runlock keeps two instances from driving the portal at once.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLocked is returned by Acquire when another holder owns the lock.
var ErrLocked = errors.New("run already in progress")

// DefaultKey is the lock key used for portal runs.
const DefaultKey = "redeban:run-lock"

// Release gives a held lock back.
type Release func(ctx context.Context) error

// Locker hands out an exclusive lock per key.
type Locker interface {
	Acquire(ctx context.Context, key string) (Release, error)
}

// Noop always grants the lock. Used when no Redis is configured.
type Noop struct{}

func (Noop) Acquire(context.Context, string) (Release, error) {
	return func(context.Context) error { return nil }, nil
}

// releaseScript deletes the key only if it still holds our token, so an
// expired lock taken over by another instance is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a single-node SET NX lock with a TTL.
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisLocker(client redis.UniversalClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &RedisLocker{client: client, ttl: ttl}
}

// Connect opens a client for addr and checks it with a ping.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("runlock.Connect: ping %s: %w", addr, err)
	}
	return client, nil
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (Release, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("runlock.Acquire: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("runlock.Release: %w", err)
		}
		return nil
	}, nil
}
