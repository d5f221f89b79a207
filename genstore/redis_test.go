package genstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// Runs against a live server when JHP_TEST_REDIS_ADDR is set.
func TestRedisGenStore(t *testing.T) {
	addr := os.Getenv("JHP_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("JHP_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	prefix := "jhptest" + time.Now().Format("150405.000000")
	s := NewRedisGenStore(rdb, prefix, time.Minute)
	t.Cleanup(func() {
		_ = rdb.Del(ctx, s.key("app")).Err()
		_ = s.Close(ctx)
	})

	if g, err := s.Snapshot(ctx, "app"); err != nil || g != 0 {
		t.Fatalf("Snapshot = %d, %v", g, err)
	}
	if g, err := s.Bump(ctx, "app"); err != nil || g != 1 {
		t.Fatalf("Bump = %d, %v", g, err)
	}
	if g, err := s.Snapshot(ctx, "app"); err != nil || g != 1 {
		t.Fatalf("Snapshot after bump = %d, %v", g, err)
	}
	if ttl := rdb.TTL(ctx, s.key("app")).Val(); ttl <= 0 {
		t.Fatalf("ttl not applied: %v", ttl)
	}
}
