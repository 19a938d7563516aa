package consumer

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// SetNXer is the subset of redis.Cmdable used for dedup.
type SetNXer interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
}

// RedisDeduper remembers event ids for ttl.
type RedisDeduper struct {
	rdb    SetNXer
	prefix string
	ttl    time.Duration
}

func NewRedisDeduper(rdb SetNXer, prefix string, ttl time.Duration) *RedisDeduper {
	if prefix == "" {
		prefix = "notify:seen:"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisDeduper{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (d *RedisDeduper) First(ctx context.Context, eventID string) (bool, error) {
	return d.rdb.SetNX(ctx, d.prefix+eventID, 1, d.ttl).Result()
}
