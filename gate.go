package binlogrouter

import "sync"

// gate implements the serialization discipline of spec.md §4.5: at most
// one logical worker may be inside the master-response pipeline for a
// given RouterInstance at a time; overflow deliveries queue in arrival
// order and are picked up by whichever caller is currently holding the
// token.
//
// This is the lock+queue rendering of §9's design note; the alternative
// it names — a dedicated worker reading from a channel, or an actor
// holding the RouterInstance — is equivalent as far as the observable
// contract of §5 goes, but the explicit gate is what the teacher's
// mutex-guarded single-connection state idiom generalizes most directly
// (nothing in the teacher is itself concurrent; this is new code built
// to spec.md §4.5 in that idiom).
type gate struct {
	mu     sync.Mutex
	active bool
	queue  [][]byte
}

// enter attempts to acquire the gate for buf. If the gate is already
// active, buf is appended to the tail of the queue and enter returns
// (nil, false) — the caller must return immediately without processing
// anything. If the gate was idle, it is marked active and enter returns
// (buf, true) — the caller now holds the token and must process buf,
// then call next in a loop until it returns false.
func (g *gate) enter(buf []byte) ([]byte, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active {
		g.queue = append(g.queue, buf)
		return nil, false
	}
	g.active = true
	return buf, true
}

// next pops the head of the queue for the caller that currently holds
// the gate token. If the queue is non-empty, it returns the head buffer
// and true — the caller must process it and call next again. If the
// queue is empty, the gate is marked idle and next returns (nil, false)
// — the caller must stop; a future enter will reacquire the gate.
func (g *gate) next() ([]byte, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.queue) == 0 {
		g.active = false
		return nil, false
	}
	buf := g.queue[0]
	g.queue = g.queue[1:]
	return buf, true
}

// isActive reports whether the gate currently has an owner. Exposed
// only for tests exercising scenario 6 of spec.md §8.
func (g *gate) isActive() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// queueLen reports the current queue depth. Exposed only for tests.
func (g *gate) queueLen() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.queue)
}
