package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/listora/listora/internal/usecase"
)

// RedisLock serializes work on a key across API instances with a
// SET NX lease. The release func only deletes the key if this holder
// still owns it, so an expired lease never clobbers a newer one.
type RedisLock struct {
	client *redis.Client
}

func NewRedisLock(addr, password string, db int) *RedisLock {
	return &RedisLock{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

func (l *RedisLock) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, usecase.ErrExternalService{
			Service: "redis",
			Code:    "lock_unavailable",
			Message: "could not reach the lock service",
			Err:     err,
		}
	}
	if !ok {
		return nil, usecase.ErrConflict{
			Code:    "lock_held",
			Message: "another operation holds the lock for " + key,
		}
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		releaseScript.Run(ctx, l.client, []string{key}, token)
	}
	return release, nil
}

func (l *RedisLock) Close() error {
	return l.client.Close()
}
