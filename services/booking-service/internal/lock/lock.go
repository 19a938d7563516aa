// Package lock serialises booking decisions that touch the same calendar day.
package lock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/availability"
	"github.com/redis/go-redis/v9"
)

var ErrContended = errors.New("booking lock contended")

// Acquire takes every key or none of them.
var acquireScript = redis.NewScript(`
for _, k in ipairs(KEYS) do
  if redis.call("EXISTS", k) == 1 then
    return 0
  end
end
for _, k in ipairs(KEYS) do
  redis.call("SET", k, ARGV[1], "PX", ARGV[2])
end
return 1
`)

// Release only deletes keys still owned by the caller's token.
var releaseScript = redis.NewScript(`
local n = 0
for _, k in ipairs(KEYS) do
  if redis.call("GET", k) == ARGV[1] then
    n = n + redis.call("DEL", k)
  end
end
return n
`)

type RedisSerializer struct {
	rdb    redis.Scripter
	prefix string
	ttl    time.Duration
	wait   time.Duration

	tryAcquire func(ctx context.Context, keys []string, token string) (bool, error)
	release    func(ctx context.Context, keys []string, token string) error
}

type Options struct {
	Prefix string
	// TTL bounds how long a crashed holder can block a day.
	TTL time.Duration
	// Wait is how long Acquire retries before giving up with ErrContended.
	Wait time.Duration
}

func NewRedisSerializer(rdb redis.Scripter, opts Options) *RedisSerializer {
	s := &RedisSerializer{
		rdb:    rdb,
		prefix: strings.TrimSpace(opts.Prefix),
		ttl:    opts.TTL,
		wait:   opts.Wait,
	}
	if s.prefix == "" {
		s.prefix = "booking:lock"
	}
	if s.ttl <= 0 {
		s.ttl = 15 * time.Second
	}
	if s.wait <= 0 {
		s.wait = 3 * time.Second
	}
	s.tryAcquire = s.redisAcquire
	s.release = s.redisRelease
	return s
}

// DayKeys returns one key per UTC day the interval touches.
func DayKeys(prefix string, iv availability.Interval) []string {
	var keys []string
	for day := iv.Start.UTC().Truncate(24 * time.Hour); day.Before(iv.End); day = day.Add(24 * time.Hour) {
		keys = append(keys, prefix+":"+day.Format("2006-01-02"))
	}
	return keys
}

// Lock implements booking.Serializer.
func (s *RedisSerializer) Lock(ctx context.Context, slot availability.Interval) (func(context.Context), error) {
	return s.Acquire(ctx, DayKeys(s.prefix, slot))
}

func (s *RedisSerializer) Acquire(ctx context.Context, keys []string) (func(context.Context), error) {
	if len(keys) == 0 {
		return func(context.Context) {}, nil
	}
	token := uuid.NewString()

	op := func() (struct{}, error) {
		ok, err := s.tryAcquire(ctx, keys, token)
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		if !ok {
			return struct{}{}, ErrContended
		}
		return struct{}{}, nil
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 25 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	if _, err := backoff.Retry(ctx, op, backoff.WithBackOff(b), backoff.WithMaxElapsedTime(s.wait)); err != nil {
		if errors.Is(err, ErrContended) || errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrContended
		}
		return nil, fmt.Errorf("acquire %v: %w", keys, err)
	}

	return func(ctx context.Context) {
		_ = s.release(ctx, keys, token)
	}, nil
}

func (s *RedisSerializer) redisAcquire(ctx context.Context, keys []string, token string) (bool, error) {
	n, err := acquireScript.Run(ctx, s.rdb, keys, token, s.ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *RedisSerializer) redisRelease(ctx context.Context, keys []string, token string) error {
	return releaseScript.Run(ctx, s.rdb, keys, token).Err()
}
