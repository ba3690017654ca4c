package lease

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only when the caller's token still owns it,
// so an expired lease re-acquired by someone else is never released here.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLease struct {
	rdb *redis.Client
}

func NewRedisLease(rdb *redis.Client) *RedisLease {
	return &RedisLease{rdb: rdb}
}

func (l *RedisLease) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return func() {}, false, nil
	}

	release := func() {
		// Best effort; the TTL is the backstop.
		_ = releaseScript.Run(context.Background(), l.rdb, []string{key}, token).Err()
	}
	return release, true, nil
}
