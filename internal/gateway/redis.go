package gateway

import (
	"context"
	stderrors "errors"

	"github.com/redis/go-redis/v9"

	"github.com/hpungsan/repovault/internal/bookmark"
	"github.com/hpungsan/repovault/internal/config"
	"github.com/hpungsan/repovault/internal/errors"
	"github.com/hpungsan/repovault/internal/logger"
	redisconn "github.com/hpungsan/repovault/internal/redis"
)

// RedisKeyPrefix namespaces collection keys.
const RedisKeyPrefix = "repovault:collection:"

// RedisKey returns the Redis key for a collection.
func RedisKey(name string) string {
	return RedisKeyPrefix + name
}

// Redis stores each collection as a string value holding the JSON array.
type Redis struct {
	client *redis.Client
}

// OpenRedis connects using cfg's redis settings, retrying until the connect timeout.
func OpenRedis(ctx context.Context, cfg *config.Config, log logger.Logger) (*Redis, error) {
	opts := redisconn.DefaultConnectOptions(cfg.RedisAddr)
	opts.Password = cfg.RedisPassword
	opts.DB = cfg.RedisDB
	opts.ConnectTimeout = cfg.ConnectTimeout()

	client, err := redisconn.Connect(ctx, opts, log)
	if err != nil {
		return nil, errors.NewPersistence("connect redis", err)
	}
	return NewRedis(client), nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, name string) ([]bookmark.Record, bool, error) {
	payload, err := r.client.Get(ctx, RedisKey(name)).Bytes()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, errors.NewPersistence("read collection", err)
	}
	records, err := decode(payload)
	if err != nil {
		return nil, false, err
	}
	return records, true, nil
}

func (r *Redis) Set(ctx context.Context, name string, records []bookmark.Record) error {
	payload, err := encode(records)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, RedisKey(name), payload, 0).Err(); err != nil {
		return errors.NewPersistence("write collection", err)
	}
	return nil
}

func (r *Redis) Close() error { return r.client.Close() }
