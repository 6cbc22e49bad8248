package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "lock:"

// releaseScript deletes the key only if it still holds our token, so an
// expired lock re-acquired by another instance is left alone.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

var newToken = uuid.NewString

type redisLocker struct {
	client        redis.Cmdable
	ttl           time.Duration
	retryInterval time.Duration
}

// NewRedisLocker returns a Locker shared by every instance connected to the
// same Redis. Locks expire after ttl if the holder dies.
func NewRedisLocker(client redis.Cmdable, ttl, retryInterval time.Duration) Locker {
	return &redisLocker{
		client:        client,
		ttl:           ttl,
		retryInterval: retryInterval,
	}
}

func (l *redisLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	redisKey := keyPrefix + key
	token := newToken()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(l.retryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := l.client.Eval(context.Background(), releaseScript, []string{redisKey}, token).Err(); err != nil {
				slog.Warn("Failed to release lock", "key", key, "error", err)
			}
		})
	}, nil
}
