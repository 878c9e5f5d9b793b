// Package redisrevoked keeps revoked token ids in redis so every backend
// instance rejects a logged out token. Each id expires with its token.
package redisrevoked

import (
	"context"
	"time"

	"github.com/jrsteele09/go-hms-admin/token"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultTimeout = 2 * time.Second

var _ token.RevokedTokenCache = (*Cache)(nil)

type Cache struct {
	client  redis.Cmdable
	prefix  string
	timeout time.Duration
	nowFunc func() time.Time
	logger  zerolog.Logger
}

type Option func(*Cache)

func WithNowFunc(now func() time.Time) Option {
	return func(c *Cache) {
		c.nowFunc = now
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

func New(client redis.Cmdable, prefix string, options ...Option) *Cache {
	c := &Cache{
		client:  client,
		prefix:  prefix,
		timeout: defaultTimeout,
		nowFunc: time.Now,
		logger:  log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *Cache) key(jti string) string {
	return c.prefix + jti
}

// Add stores jti until exp. A token that has already expired is not stored.
func (c *Cache) Add(jti string, exp time.Time) error {
	if jti == "" {
		return nil
	}
	ttl := exp.Sub(c.nowFunc())
	if ttl <= 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	return errors.Wrap(c.client.Set(ctx, c.key(jti), exp.Unix(), ttl).Err(), "redisrevoked.Add Set")
}

// IsRevoked fails closed: a redis error counts as revoked
func (c *Cache) IsRevoked(jti string) bool {
	if jti == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	n, err := c.client.Exists(ctx, c.key(jti)).Result()
	if err != nil {
		c.logger.Error().Err(err).Msg("revocation lookup failed")
		return true
	}
	return n > 0
}

// Cleanup is a no-op, redis expires the keys itself
func (c *Cache) Cleanup() {}
