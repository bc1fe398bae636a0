package cache

import (
	"context"
	"crypto/tls"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds the Redis connection options used by the page cache.
type RedisConfig struct {
	Addr         string
	Username     string
	Password     string
	DB           int
	UseTLS       bool
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
}

// NewRedisClient returns a configured redis.Client and verifies connectivity
// with PING. Call the returned closer during shutdown.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, func(), error) {
	opts := &redis.Options{
		Addr:            cfg.Addr,
		Username:        cfg.Username,
		Password:        cfg.Password,
		DB:              cfg.DB,
		DialTimeout:     defaultDuration(cfg.DialTimeout, 3*time.Second),
		ReadTimeout:     defaultDuration(cfg.ReadTimeout, 2*time.Second),
		WriteTimeout:    defaultDuration(cfg.WriteTimeout, 2*time.Second),
		PoolSize:        defaultInt(cfg.PoolSize, 10),
		MinIdleConns:    defaultInt(cfg.MinIdleConns, 2),
		MaxRetries:      defaultInt(cfg.MaxRetries, 3),
		MinRetryBackoff: 50 * time.Millisecond,
		MaxRetryBackoff: 500 * time.Millisecond,
	}
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

// Redis is a Store backed by Redis. The generation of a path lives in an
// INCR counter; page bodies live under generation-scoped keys with a TTL, so
// entries of old generations simply age out.
type Redis struct {
	client redis.Cmdable
	ttl    time.Duration
	prefix string
}

// NewRedis wraps client. A ttl <= 0 falls back to ten minutes so orphaned
// generations are always reclaimed.
func NewRedis(client redis.Cmdable, ttl time.Duration) *Redis {
	return &Redis{
		client: client,
		ttl:    defaultDuration(ttl, 10*time.Minute),
		prefix: "pagecache:",
	}
}

func (r *Redis) genKey(path string) string { return r.prefix + "gen:" + path }

func (r *Redis) pageKey(path string, gen uint64, variant string) string {
	return r.prefix + "page:" + path + ":" + strconv.FormatUint(gen, 10) + ":" + variant
}

// Generation implements Store.
func (r *Redis) Generation(ctx context.Context, path string) (uint64, error) {
	gen, err := r.client.Get(ctx, r.genKey(path)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, path string, gen uint64, variant string) ([]byte, bool, error) {
	body, err := r.client.Get(ctx, r.pageKey(path, gen, variant)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

// Set implements Store.
func (r *Redis) Set(ctx context.Context, path string, gen uint64, variant string, body []byte) error {
	return r.client.Set(ctx, r.pageKey(path, gen, variant), body, r.ttl).Err()
}

// Revalidate implements Store.
func (r *Redis) Revalidate(ctx context.Context, path string) error {
	return r.client.Incr(ctx, r.genKey(path)).Err()
}

func defaultDuration(v, d time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return d
}

func defaultInt(v, d int) int {
	if v > 0 {
		return v
	}
	return d
}
