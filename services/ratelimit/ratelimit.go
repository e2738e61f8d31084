// Package ratelimit backs echo's rate limiter middleware.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/nickiconcept/E-Result-Management-System/core"
)

const opTimeout = 500 * time.Millisecond

// RedisStore is a fixed window counter shared by every API instance.
type RedisStore struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
	logger core.Logger
	now    func() time.Time
}

var _ middleware.RateLimiterStore = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, prefix string, limit int, window time.Duration, logger core.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
		limit:  int64(limit),
		window: window,
		logger: logger,
		now:    time.Now,
	}
}

func (s *RedisStore) key(identifier string) string {
	slot := s.now().UnixNano() / int64(s.window)
	return fmt.Sprintf("%s:%s:%d", s.prefix, identifier, slot)
}

// Allow lets the request through when redis cannot be reached: losing the limiter
// must not take the result checker down with it.
func (s *RedisStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	key := s.key(identifier)
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.window)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn("rate limiter unavailable", err, map[string]interface{}{"key": key})
		return true, nil
	}
	return incr.Val() <= s.limit, nil
}

// NewStore returns a redis store when conf.RedisURL is set, echo's memory store otherwise.
// closeFn releases the redis connection.
func NewStore(ctx context.Context, conf *core.Config, logger core.Logger) (store middleware.RateLimiterStore, closeFn func() error, err error) {
	perMinute := conf.PinChecksPerMinute
	if perMinute <= 0 {
		perMinute = 20
	}

	if conf.RedisURL == "" {
		store = middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(float64(perMinute) / 60),
			Burst:     perMinute,
			ExpiresIn: 3 * time.Minute,
		})
		return store, func() error { return nil }, nil
	}

	opts, err := redis.ParseURL(conf.RedisURL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "parsing redis url")
	}
	client := redis.NewClient(opts)
	if err = client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, errors.Wrap(err, "pinging redis")
	}
	return NewRedisStore(client, conf.AppName+":ratelimit", perMinute, time.Minute, logger), client.Close, nil
}
