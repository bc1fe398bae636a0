package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/tbourn/go-invoice-dashboard/internal/config"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedis_GetSetRevalidate(t *testing.T) {
	ctx := context.Background()
	_, client := newMiniRedis(t)
	r := NewRedis(client, time.Minute)

	gen, err := r.Generation(ctx, "/dashboard/invoices")
	if err != nil || gen != 0 {
		t.Fatalf("initial generation = (%d, %v); want (0, nil)", gen, err)
	}
	if _, ok, err := r.Get(ctx, "/dashboard/invoices", gen, "q=&page=1"); ok || err != nil {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	if err := r.Set(ctx, "/dashboard/invoices", gen, "q=&page=1", []byte(`{"items":[]}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	body, ok, err := r.Get(ctx, "/dashboard/invoices", gen, "q=&page=1")
	if err != nil || !ok || string(body) != `{"items":[]}` {
		t.Fatalf("Get = (%q, %v, %v)", body, ok, err)
	}

	if err := r.Revalidate(ctx, "/dashboard/invoices"); err != nil {
		t.Fatalf("Revalidate: %v", err)
	}
	next, err := r.Generation(ctx, "/dashboard/invoices")
	if err != nil || next != 1 {
		t.Fatalf("generation after revalidate = (%d, %v); want (1, nil)", next, err)
	}
	if _, ok, _ := r.Get(ctx, "/dashboard/invoices", next, "q=&page=1"); ok {
		t.Fatalf("new generation must start empty")
	}
}

func TestRedis_EntriesExpire(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniRedis(t)
	r := NewRedis(client, 30*time.Second)

	_ = r.Set(ctx, "/p", 0, "v", []byte("x"))
	if ttl := mr.TTL(r.pageKey("/p", 0, "v")); ttl != 30*time.Second {
		t.Fatalf("ttl = %v; want 30s", ttl)
	}
	mr.FastForward(31 * time.Second)
	if _, ok, _ := r.Get(ctx, "/p", 0, "v"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestRedis_DefaultTTL(t *testing.T) {
	_, client := newMiniRedis(t)
	if r := NewRedis(client, 0); r.ttl != 10*time.Minute {
		t.Fatalf("default ttl = %v; want 10m", r.ttl)
	}
}

func TestRedis_GenerationError(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniRedis(t)
	r := NewRedis(client, time.Minute)

	// A non-numeric counter surfaces as an error.
	if err := mr.Set(r.genKey("/p"), "nan"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := r.Generation(ctx, "/p"); err == nil {
		t.Fatalf("expected parse error for non-numeric generation")
	}
}

func TestNewRedisClient_PingFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, closer, err := NewRedisClient(ctx, RedisConfig{Addr: addr, DialTimeout: 200 * time.Millisecond})
	if err == nil || client != nil || closer != nil {
		t.Fatalf("expected ping failure, got client=%v err=%v", client, err)
	}
}

func TestNew_Backends(t *testing.T) {
	ctx := context.Background()

	s, closer, err := New(ctx, config.CacheConfig{Backend: "memory", TTL: time.Minute})
	if err != nil {
		t.Fatalf("New(memory): %v", err)
	}
	closer()
	if _, ok := s.(*Memory); !ok {
		t.Fatalf("expected *Memory, got %T", s)
	}

	mr := miniredis.RunT(t)
	s, closer, err = New(ctx, config.CacheConfig{Backend: "redis", TTL: time.Minute, RedisAddr: mr.Addr()})
	if err != nil {
		t.Fatalf("New(redis): %v", err)
	}
	defer closer()
	if _, ok := s.(*Redis); !ok {
		t.Fatalf("expected *Redis, got %T", s)
	}
	if err := s.Revalidate(ctx, "/x"); err != nil {
		t.Fatalf("Revalidate via redis store: %v", err)
	}
	if got, _ := mr.Get("pagecache:gen:/x"); got != "1" {
		t.Fatalf("generation counter = %q; want 1", got)
	}

	if _, _, err := New(ctx, config.CacheConfig{Backend: "memcached"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
