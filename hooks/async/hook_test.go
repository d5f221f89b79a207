package asynchook

import (
	"errors"
	"sync"
	"testing"

	"github.com/MrF0o/jhp"
)

type rec struct {
	jhp.NopHooks
	mu    sync.Mutex
	heals int
	block chan struct{}
}

func (r *rec) CacheSelfHeal(string, string) {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	r.heals++
	r.mu.Unlock()
}

func TestDeliversAndDrainsOnClose(t *testing.T) {
	inner := &rec{}
	h := New(inner, 2, 100)
	for i := 0; i < 50; i++ {
		h.CacheSelfHeal("k", "corrupt")
	}
	h.Close()
	if inner.heals != 50 {
		t.Fatalf("delivered %d of 50", inner.heals)
	}
	h.Close() // idempotent
	h.RollbackFailed(errors.New("a"), errors.New("b"))
	if h.Dropped() != 1 {
		t.Fatalf("event after Close not counted as dropped: %d", h.Dropped())
	}
}

func TestDropsWhenFull(t *testing.T) {
	inner := &rec{block: make(chan struct{})}
	h := New(inner, 1, 1)
	// one event occupies the worker, one fills the queue, the rest drop
	for i := 0; i < 10; i++ {
		h.CacheSelfHeal("k", "corrupt")
	}
	close(inner.block)
	h.Close()
	if h.Dropped() == 0 {
		t.Fatalf("expected drops")
	}
	if got := uint64(inner.heals) + h.Dropped(); got != 10 {
		t.Fatalf("delivered+dropped = %d, want 10", got)
	}
}
