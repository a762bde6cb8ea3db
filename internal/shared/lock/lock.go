// Package lock provides short redis leases that keep two workers from running the
// same tick for the same key at once.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`

var ErrNotAcquired = errors.New("lease held by another worker")

// Lease is a held key. Release only deletes the key while this holder still owns it.
type Lease struct {
	rdb   redis.Cmdable
	key   string
	token string
}

func (l *Lease) Release(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.rdb.Eval(ctx, releaseScript, []string{l.key}, l.token).Err()
}

type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (*Lease, error)
}

type RedisLocker struct {
	rdb    redis.Cmdable
	prefix string
	token  func() string
}

func NewRedisLocker(rdb redis.Cmdable, prefix string) *RedisLocker {
	return &RedisLocker{
		rdb:    rdb,
		prefix: prefix,
		token:  func() string { return uuid.NewString() },
	}
}

// Acquire returns ErrNotAcquired when another holder has the key.
func (r *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lease, error) {
	full := r.prefix + key
	token := r.token()
	ok, err := r.rdb.SetNX(ctx, full, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotAcquired
	}
	return &Lease{rdb: r.rdb, key: full, token: token}, nil
}
