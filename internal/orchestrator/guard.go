package orchestrator

import (
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrSessionBusy is returned when another operation on the same session is
// still in flight.
var ErrSessionBusy = errors.New("session busy")

// guard admits at most one operation per session id.
type guard struct {
	mu    sync.Mutex
	inUse map[string]*semaphore.Weighted
}

func newGuard() *guard {
	return &guard{inUse: map[string]*semaphore.Weighted{}}
}

// acquire returns a release func, or ErrSessionBusy without blocking.
func (g *guard) acquire(id string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	sem, ok := g.inUse[id]
	if !ok {
		sem = semaphore.NewWeighted(1)
		g.inUse[id] = sem
	}
	if !sem.TryAcquire(1) {
		return nil, ErrSessionBusy
	}
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		sem.Release(1)
		delete(g.inUse, id)
	}, nil
}
