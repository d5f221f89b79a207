// Package asynchook runs jhp.Hooks on a bounded queue so slow hook
// implementations never block database calls. Events that do not fit in
// the queue are dropped and counted.
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{SelfHealEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	db, _ := jhp.Open(ctx, "app.db", jhp.Options{
//	    Native: reg,
//	    Cache:  provider,
//	    Hooks:  hooks, // or raw for synchronous delivery
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/MrF0o/jhp"
)

type Hooks struct {
	inner jhp.Hooks
	q     chan func()
	wg    sync.WaitGroup

	mu      sync.RWMutex // guards closed against sends on a closed queue
	closed  bool
	dropped atomic.Uint64
}

var _ jhp.Hooks = (*Hooks)(nil)

func New(inner jhp.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events arriving after
// Close are dropped.
func (h *Hooks) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.q)
	h.mu.Unlock()
	h.wg.Wait()
}

// Dropped returns how many events were discarded.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) RollbackFailed(cause, err error) {
	h.try(func() { h.inner.RollbackFailed(cause, err) })
}
func (h *Hooks) CacheSelfHeal(k, r string) { h.try(func() { h.inner.CacheSelfHeal(k, r) }) }
func (h *Hooks) CacheSetRejected(k string) { h.try(func() { h.inner.CacheSetRejected(k) }) }
func (h *Hooks) GenSnapshotError(ns string, err error) {
	h.try(func() { h.inner.GenSnapshotError(ns, err) })
}
func (h *Hooks) GenBumpError(ns string, err error) {
	h.try(func() { h.inner.GenBumpError(ns, err) })
}
