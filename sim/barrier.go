package sim

import (
	"errors"
	"sync"
)

var errBroken = errors.New("barrier broken")

// barrier is a reusable rendezvous for a fixed number of parties. Breaking
// it releases every waiter with errBroken, which is how a failing or
// cancelled work-item unblocks the rest of its group.
type barrier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	parties int
	waiting int
	phase   uint64
	broken  bool
}

func newBarrier(parties int) *barrier {
	b := &barrier{parties: parties}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *barrier) wait() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.broken {
		return errBroken
	}
	phase := b.phase
	b.waiting++
	if b.waiting == b.parties {
		b.waiting = 0
		b.phase++
		b.cond.Broadcast()
		return nil
	}
	for phase == b.phase && !b.broken {
		b.cond.Wait()
	}
	if phase == b.phase {
		return errBroken
	}
	return nil
}

func (b *barrier) breakAll() {
	b.mu.Lock()
	b.broken = true
	b.mu.Unlock()
	b.cond.Broadcast()
}
