package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"intel_server/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker serializes owners across processes with SET NX PX.
type RedisLocker struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
	retryWait time.Duration
}

func NewRedisLocker(client *redis.Client, namespace string, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if namespace == "" {
		namespace = "learning"
	}
	return &RedisLocker{client: client, namespace: namespace, ttl: ttl, retryWait: 25 * time.Millisecond}
}

func (l *RedisLocker) key(ownerID uuid.UUID) string {
	return fmt.Sprintf("lock:%s:%s", l.namespace, ownerID)
}

// Lock spins on SET NX until acquired or ctx ends. The lock expires after
// the TTL if the holder never releases it.
func (l *RedisLocker) Lock(ctx context.Context, ownerID uuid.UUID) (func(), error) {
	key := l.key(ownerID)
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("acquire owner lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryWait):
		}
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			logger.WithError(err).WithField("owner_id", ownerID.String()).Warn("release owner lock failed")
		}
	}, nil
}
