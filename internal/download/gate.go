package download

import (
	"context"
	"sync"
)

// Gate bounds how many transfers run at once. Blocked callers are admitted
// strictly in arrival order.
type Gate struct {
	mu       sync.Mutex
	capacity int
	permits  int
	waiters  []chan struct{}
}

// NewGate returns a gate with the given capacity. Values below 1 are
// clamped to 1.
func NewGate(capacity int) *Gate {
	if capacity < 1 {
		capacity = 1
	}
	return &Gate{capacity: capacity, permits: capacity}
}

// Acquire takes a permit, blocking behind earlier callers when none is
// free. It returns ctx.Err() if the context ends first.
func (g *Gate) Acquire(ctx context.Context) error {
	g.mu.Lock()
	if len(g.waiters) == 0 && g.permits > 0 {
		g.permits--
		g.mu.Unlock()
		return nil
	}

	ready := make(chan struct{})
	g.waiters = append(g.waiters, ready)
	g.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		g.mu.Lock()
		for i, w := range g.waiters {
			if w == ready {
				g.waiters = append(g.waiters[:i], g.waiters[i+1:]...)
				g.mu.Unlock()
				return ctx.Err()
			}
		}
		g.mu.Unlock()
		// Release already handed us the permit; pass it on so the
		// next waiter is not starved.
		g.Release()
		return ctx.Err()
	}
}

// Release returns a permit and wakes the oldest waiter, if any. Releasing
// more than was acquired panics.
func (g *Gate) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.waiters) > 0 {
		ready := g.waiters[0]
		g.waiters = g.waiters[1:]
		close(ready)
		return
	}

	if g.permits == g.capacity {
		panic("download: Gate.Release called without a matching Acquire")
	}
	g.permits++
}
