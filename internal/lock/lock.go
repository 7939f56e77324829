package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/feral-file/achievement-minter/internal/adapter"
)

// releaseScript deletes the key only while it still holds our token
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// Locker is a lease-based lock shared across replicas
//
//go:generate mockgen -source=lock.go -destination=../mocks/lock.go -package=mocks -mock_names=Locker=MockLocker
type Locker interface {
	// TryLock attempts to take the lease. It never blocks waiting for another holder.
	TryLock(ctx context.Context) (token string, acquired bool, err error)
	// Unlock releases the lease if token still owns it
	Unlock(ctx context.Context, token string) error
}

type redisLocker struct {
	client adapter.RedisClient
	key    string
	ttl    time.Duration
}

// NewRedisLocker creates a Redis-backed lease lock on key.
// The lease expires after ttl so a crashed holder cannot block later runs forever.
func NewRedisLocker(client adapter.RedisClient, key string, ttl time.Duration) Locker {
	return &redisLocker{client: client, key: key, ttl: ttl}
}

func (l *redisLocker) TryLock(ctx context.Context) (string, bool, error) {
	token := ulid.Make().String()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire lock %s: %w", l.key, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (l *redisLocker) Unlock(ctx context.Context, token string) error {
	if err := l.client.Eval(ctx, releaseScript, []string{l.key}, token).Err(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}
	return nil
}
