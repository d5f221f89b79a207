package genstore

import (
	"context"
	"sync"
	"time"
)

type counter struct {
	gen     uint64
	touched time.Time
}

// LocalGenStore keeps generations in-process.
// An optional sweep loop drops counters that have been idle for retention.
// A dropped counter reads as 0, which only costs cache misses.
type LocalGenStore struct {
	mu   sync.RWMutex
	gens map[string]counter

	stop chan struct{}
	done sync.WaitGroup
	once sync.Once
}

var _ GenStore = (*LocalGenStore)(nil)

func NewLocalGenStore(sweepEvery, retention time.Duration) *LocalGenStore {
	s := &LocalGenStore{gens: make(map[string]counter)}
	if sweepEvery <= 0 || retention <= 0 {
		return s
	}
	s.stop = make(chan struct{})
	s.done.Add(1)
	go func() {
		defer s.done.Done()
		t := time.NewTicker(sweepEvery)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				s.Cleanup(retention)
			case <-s.stop:
				return
			}
		}
	}()
	return s
}

func (s *LocalGenStore) Snapshot(_ context.Context, ns string) (uint64, error) {
	s.mu.RLock()
	c := s.gens[ns]
	s.mu.RUnlock()
	return c.gen, nil
}

func (s *LocalGenStore) Bump(_ context.Context, ns string) (uint64, error) {
	now := time.Now()
	s.mu.Lock()
	c := s.gens[ns]
	c.gen++
	c.touched = now
	s.gens[ns] = c
	s.mu.Unlock()
	return c.gen, nil
}

func (s *LocalGenStore) Cleanup(retention time.Duration) {
	if retention <= 0 {
		return
	}
	cutoff := time.Now().Add(-retention)
	s.mu.Lock()
	for ns, c := range s.gens {
		if c.touched.Before(cutoff) {
			delete(s.gens, ns)
		}
	}
	s.mu.Unlock()
}

// Close stops the sweep loop. Safe to call more than once.
func (s *LocalGenStore) Close(context.Context) error {
	s.once.Do(func() {
		if s.stop != nil {
			close(s.stop)
			s.done.Wait()
		}
	})
	return nil
}
