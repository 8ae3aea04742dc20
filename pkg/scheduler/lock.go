package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker guards a scheduler tick so only one instance polls the task set at
// a time. The scheduling model is single-owner: running two unlocked
// schedulers against the same tasks causes duplicate execution.
type Locker interface {
	// Acquire returns true when this instance owns the tick.
	Acquire(ctx context.Context) (bool, error)

	// Release gives the lock up early; it otherwise expires on its own.
	Release(ctx context.Context) error
}

// NoopLocker always grants the lock, for single-instance deployments.
type NoopLocker struct{}

func (NoopLocker) Acquire(context.Context) (bool, error) { return true, nil }

func (NoopLocker) Release(context.Context) error { return nil }

// RedisLock implements Locker with a SET NX key that expires after the TTL,
// so a crashed owner cannot hold the lock forever.
type RedisLock struct {
	client *redis.Client
	key    string
	owner  string
	ttl    time.Duration
}

func NewRedisLock(client *redis.Client, key, owner string, ttl time.Duration) *RedisLock {
	return &RedisLock{
		client: client,
		key:    key,
		owner:  owner,
		ttl:    ttl,
	}
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.owner, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire scheduler lock: %w", err)
	}

	return ok, nil
}

// Release deletes the key only if this instance still owns it.
func (l *RedisLock) Release(ctx context.Context) error {
	const script = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

	if err := l.client.Eval(ctx, script, []string{l.key}, l.owner).Err(); err != nil {
		return fmt.Errorf("failed to release scheduler lock: %w", err)
	}

	return nil
}
