// Package cache keeps rendered responses of dashboard routes so repeated
// reads skip the database. Entries are grouped by route path and scoped to a
// per-path generation number: Revalidate bumps the generation, which makes
// every previously stored variant of that path unreachable at once.
//
// Two backends are provided. Memory is process-local and is the default;
// Redis shares the cache between replicas.
package cache

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tbourn/go-invoice-dashboard/internal/config"
)

// Store is the page cache contract used by handlers (Get/Set) and by the
// invoice write actions (Revalidate).
type Store interface {
	// Generation returns the current generation of path. Unknown paths are
	// at generation 0.
	Generation(ctx context.Context, path string) (uint64, error)
	// Get returns the body cached for (path, gen, variant), if any.
	Get(ctx context.Context, path string, gen uint64, variant string) ([]byte, bool, error)
	// Set stores body for (path, gen, variant). Writes for a generation that
	// is no longer current may be dropped.
	Set(ctx context.Context, path string, gen uint64, variant string, body []byte) error
	// Revalidate discards every cached variant of path.
	Revalidate(ctx context.Context, path string) error
}

// Lookups counts page cache reads by result (hit|miss|error).
var Lookups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "page_cache_lookups_total",
		Help: "Page cache lookups by result.",
	},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(Lookups)
}

// New builds the backend selected by cfg.Backend. The returned closer
// releases backend resources and is never nil on success.
func New(ctx context.Context, cfg config.CacheConfig) (Store, func(), error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemory(cfg.TTL), func() {}, nil
	case "redis":
		client, closer, err := NewRedisClient(ctx, RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			UseTLS:   cfg.RedisTLS,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		return NewRedis(client, cfg.TTL), closer, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
