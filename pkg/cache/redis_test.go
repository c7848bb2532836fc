package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client), mr
}

func TestRedisCacheRoundTrip(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if _, ok := c.Get(ctx, "product:1"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set(ctx, "product:1", []byte(`{"id":"1"}`), 10*time.Minute)
	got, ok := c.Get(ctx, "product:1")
	if !ok || string(got) != `{"id":"1"}` {
		t.Fatalf("Get = %q, %v", got, ok)
	}

	mr.FastForward(11 * time.Minute)
	if _, ok := c.Get(ctx, "product:1"); ok {
		t.Fatal("expected entry to expire after ttl")
	}
}

func TestRedisCacheRemove(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "a", []byte("1"), time.Minute)
	c.Set(ctx, "b", []byte("2"), time.Minute)
	c.Remove(ctx, "a", "b")
	c.Remove(ctx)

	if _, ok := c.Get(ctx, "a"); ok {
		t.Error("a still cached")
	}
	if _, ok := c.Get(ctx, "b"); ok {
		t.Error("b still cached")
	}
}

func TestRedisCacheRemovePattern(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "products:lowstock:10", []byte("x"), time.Minute)
	c.Set(ctx, "products:lowstock:5", []byte("y"), time.Minute)
	c.Set(ctx, "products:all", []byte("z"), time.Minute)

	c.RemovePattern(ctx, "products:lowstock:*")

	if _, ok := c.Get(ctx, "products:lowstock:10"); ok {
		t.Error("lowstock:10 still cached")
	}
	if _, ok := c.Get(ctx, "products:lowstock:5"); ok {
		t.Error("lowstock:5 still cached")
	}
	if _, ok := c.Get(ctx, "products:all"); !ok {
		t.Error("unrelated key was removed")
	}
}

func TestRedisCacheSwallowsBackendFailures(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	mr.Close()

	// none of these may panic or block; failures are logged only
	c.Set(ctx, "k", []byte("v"), time.Minute)
	c.Remove(ctx, "k")
	c.RemovePattern(ctx, "k*")
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("expected miss when redis is down")
	}
}
