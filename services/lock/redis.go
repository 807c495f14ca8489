package locksvc

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/umarmughal824/micromasters-sub002/core"
)

const keyPrefix = "lock:"

// releaseScript deletes the key only if this process still holds it, so an
// expired-and-reacquired lock is never released out from under the new
// holder.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock implements core.Lock over a shared redis instance using SET NX
// with a TTL derived from the absolute expiry.
type RedisLock struct {
	client *redis.Client
	token  string
}

var _ core.Lock = (*RedisLock)(nil)

func NewRedisLock(conf *core.Config) (*RedisLock, error) {
	opt, err := redis.ParseURL(conf.Redis.URL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing redis URL")
	}
	c := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return &RedisLock{client: c, token: uuid.New().String()}, nil
}

func (l *RedisLock) Acquire(ctx context.Context, name string, expiresAt time.Time) (bool, error) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return false, errors.Errorf("lock %q expiry is not in the future", name)
	}

	ok, err := l.client.SetNX(ctx, keyPrefix+name, l.token, ttl).Result()
	if err != nil {
		return false, errors.Wrapf(err, "acquiring lock %q", name)
	}
	return ok, nil
}

func (l *RedisLock) Release(ctx context.Context, name string) error {
	if err := releaseScript.Run(ctx, l.client, []string{keyPrefix + name}, l.token).Err(); err != nil && err != redis.Nil {
		return errors.Wrapf(err, "releasing lock %q", name)
	}
	return nil
}

func (l *RedisLock) Close() error { return l.client.Close() }
