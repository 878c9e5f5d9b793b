// Package redisrepo keeps the session record under one redis key, expiring it
// with the session.
package redisrepo

import (
	"context"
	"time"

	hmserrors "github.com/jrsteele09/go-hms-admin/internal/errors"
	"github.com/jrsteele09/go-hms-admin/sessions"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var _ sessions.Repo = (*Repo)(nil)

type Repo struct {
	client  redis.Cmdable
	key     string
	nowFunc func() time.Time
}

type Option func(*Repo)

func WithNowFunc(now func() time.Time) Option {
	return func(r *Repo) {
		r.nowFunc = now
	}
}

func New(client redis.Cmdable, key string, options ...Option) *Repo {
	r := &Repo{client: client, key: key, nowFunc: time.Now}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *Repo) Load(ctx context.Context) (*sessions.Record, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, hmserrors.ErrNoStoredSession
		}
		return nil, errors.Wrap(err, "redisrepo.Load Get")
	}
	return sessions.DecodeRecord(data)
}

// Save writes the record; a record with a future expiry gets a matching TTL.
// An already expired record removes the key, since a zero TTL would keep it forever.
func (r *Repo) Save(ctx context.Context, record *sessions.Record) error {
	data, err := sessions.EncodeRecord(record)
	if err != nil {
		return errors.Wrap(err, "redisrepo.Save EncodeRecord")
	}

	var ttl time.Duration
	if exp := record.Expiry(); !exp.IsZero() {
		if ttl = exp.Sub(r.nowFunc()); ttl <= 0 {
			return errors.Wrap(r.client.Del(ctx, r.key).Err(), "redisrepo.Save Del")
		}
	}
	return errors.Wrap(r.client.Set(ctx, r.key, data, ttl).Err(), "redisrepo.Save Set")
}

func (r *Repo) Delete(ctx context.Context) error {
	return errors.Wrap(r.client.Del(ctx, r.key).Err(), "redisrepo.Delete Del")
}
