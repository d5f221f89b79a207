package redis

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

func TestNilClient(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrNilClient) {
		t.Fatalf("want ErrNilClient, got %v", err)
	}
}

// Runs against a live server when JHP_TEST_REDIS_ADDR is set.
func TestSetGetDel(t *testing.T) {
	addr := os.Getenv("JHP_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("JHP_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	p, err := New(Config{Client: goredis.NewClient(&goredis.Options{Addr: addr}), KeyPrefix: "jhptest:", CloseClient: true})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = p.Close(ctx) })

	val := []byte{0, 1, 2}
	if ok, err := p.Set(ctx, "k", val, 0, time.Minute); !ok || err != nil {
		t.Fatalf("Set = %v, %v", ok, err)
	}
	got, hit, err := p.Get(ctx, "k")
	if err != nil || !hit || !bytes.Equal(got, val) {
		t.Fatalf("Get = %x, %v, %v", got, hit, err)
	}
	if err := p.Del(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := p.Get(ctx, "k"); hit {
		t.Fatalf("hit after Del")
	}
}
