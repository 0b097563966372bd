package pool

import (
	"sync"

	"github.com/lord/ocaml-swift-example/hostiface"
	"github.com/lord/ocaml-swift-example/ring"
	"github.com/lord/ocaml-swift-example/stats"
)

// Config collects the compile-time knobs of §6 as ordinary fields, since
// Go has no preprocessor to gate them at build time the way the teacher's
// GOEXPERIMENT-style flags do.
type Config struct {
	// PoolLogSize is log2 of each pool's size in bytes.
	PoolLogSize uint
	// GenerationalEnabled toggles the minor/major fast path described in
	// §4.1; disabling it makes Create/Delete/Modify always treat every
	// payload as mature, at the cost of losing the zero-work minor scan.
	GenerationalEnabled bool
	// Domain identifies which of the host's per-thread remembered sets
	// AddToRememberedSet writes into.
	Domain int
	// DebugAssertLevel is stored but not read by the engine: the invariant
	// checks in debug.go run only when called explicitly, at any level.
	DebugAssertLevel int
}

// DefaultConfig returns the configuration rootref uses when the caller
// does not override it.
func DefaultConfig() Config {
	return Config{
		PoolLogSize:         DefaultPoolLogSize,
		GenerationalEnabled: true,
		Domain:              0,
		DebugAssertLevel:    0,
	}
}

// Handle is the rooted reference returned by Create: internally a pointer
// to the owning pool plus the slot index within it. The zero Handle is
// the null handle returned on OOM (§6, §7).
type Handle struct {
	pool *Pool
	idx  uint32
}

// IsNull reports whether h is the null handle.
func (h Handle) IsNull() bool { return h.pool == nil }

// Engine is the process-wide state object for variant 4.1 (§9 "global
// mutable state... model as a state object initialized at setup and torn
// down at teardown"). The zero Engine is not usable; build one with New.
type Engine struct {
	mu sync.Mutex

	rt  hostiface.Runtime
	cfg Config
	st  *stats.Stats

	nonFull *ring.Node[*Pool]
	full    *ring.Node[*Pool]
}

// New constructs an Engine bound to rt and registers its scan callback
// with the host. cfg.PoolLogSize is defaulted if zero.
func New(rt hostiface.Runtime, cfg Config, st *stats.Stats) *Engine {
	if cfg.PoolLogSize == 0 {
		cfg.PoolLogSize = DefaultPoolLogSize
	}
	e := &Engine{rt: rt, cfg: cfg, st: st}
	rt.RegisterScanCallback(e.scanCallback)
	return e
}

// Teardown releases every pool back to the page allocator. Must only be
// called once no handles remain in use (§5).
func (e *Engine) Teardown() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nonFull.Do(func(p *Pool) { _ = p.free() })
	e.full.Do(func(p *Pool) { _ = p.free() })
	e.nonFull = nil
	e.full = nil
}

// LivePoolCount returns the total number of pools currently owned by the
// engine, across both rings; used by scenario S3's "live_pools <= 1"
// assertion after a full drain.
func (e *Engine) LivePoolCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nonFull.Len() + e.full.Len()
}

func (e *Engine) headNonFullPool() *Pool {
	if e.nonFull == nil {
		return nil
	}
	return e.nonFull.Owner
}

func (e *Engine) addToNonFull(p *Pool) {
	p.inFullRing = false
	if e.nonFull == nil {
		e.nonFull = p.node
		return
	}
	e.nonFull.InsertAfter(p.node)
}

func (e *Engine) addToFull(p *Pool) {
	p.inFullRing = true
	if e.full == nil {
		e.full = p.node
		return
	}
	e.full.InsertAfter(p.node)
}

func (e *Engine) removeFromNonFull(p *Pool) {
	if e.nonFull == p.node {
		if p.node.Alone() {
			e.nonFull = nil
		} else {
			e.nonFull = p.node.Next()
		}
	}
	p.node.Remove()
}

func (e *Engine) removeFromFull(p *Pool) {
	if e.full == p.node {
		if p.node.Alone() {
			e.full = nil
		} else {
			e.full = p.node.Next()
		}
	}
	p.node.Remove()
}

// moveToFull relocates p from the non-full ring to the full ring.
// Idempotent: a no-op if p is already there.
func (e *Engine) moveToFull(p *Pool) {
	if p.inFullRing {
		return
	}
	e.removeFromNonFull(p)
	e.addToFull(p)
}

// moveToNonFull relocates p from the full ring back to the non-full ring.
func (e *Engine) moveToNonFull(p *Pool) {
	if !p.inFullRing {
		return
	}
	e.removeFromFull(p)
	e.addToNonFull(p)
}

func (e *Engine) allocPool() (*Pool, error) {
	p, err := newPool(e.cfg.PoolLogSize)
	if err != nil {
		return nil, err
	}
	e.addToNonFull(p)
	e.st.PoolAllocated()
	return p, nil
}

// Create implements the public create operation (§6): allocates a slot
// for payload, preferring the free list matching its generational class,
// registering the slot in the host's remembered set when a nursery
// payload lands in a slot popped from the major list. Returns the null
// handle on capacity exhaustion from the page allocator.
func (e *Engine) Create(payload hostiface.Payload) Handle {
	e.mu.Lock()
	defer e.mu.Unlock()

	nursery := e.cfg.GenerationalEnabled && e.rt.IsNursery(payload)

	for {
		p := e.headNonFullPool()
		if p == nil {
			var err error
			p, err = e.allocPool()
			if err != nil {
				return Handle{}
			}
		}

		idx, fromMinor, ok := p.reserve(nursery)
		if !ok {
			// Both free lists are empty in the head pool: it is full.
			// find_available_pool (§4.1) skips it by moving it to the
			// full ring and retrying.
			e.moveToFull(p)
			continue
		}

		p.slots[idx] = payload
		p.allocCount++
		e.st.HandleCreated()

		if nursery && !fromMinor {
			slot := &p.slots[idx]
			e.rt.AddToRememberedSet(e.cfg.Domain, slot)
			e.st.RememberedSetAdd()
		}

		if p.allocCount == p.Capacity() {
			e.moveToFull(p)
		}

		return Handle{pool: p, idx: idx}
	}
}

// Get implements the public get operation (§6). Payload reads never touch
// the structural lock (§5).
func (e *Engine) Get(h Handle) hostiface.Payload {
	return h.pool.slots[h.idx]
}

// GetRef implements get_ref: a pointer to the cell, valid until the next
// modify or delete on this handle (§6).
func (e *Engine) GetRef(h Handle) *hostiface.Payload {
	return &h.pool.slots[h.idx]
}

// Delete implements the public delete operation (§6, §4.1 release
// contract): pushes the slot onto whichever free list matches its current
// payload's generational class, and moves the pool back to the non-full
// ring once its allocation count drops below three-quarters capacity.
func (e *Engine) Delete(h Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := h.pool
	current := p.slots[h.idx]
	nursery := e.cfg.GenerationalEnabled && e.rt.IsNursery(current)

	if nursery {
		p.pushMinor(h.idx)
	} else {
		p.pushMajor(h.idx)
	}
	p.allocCount--
	e.st.HandleDeleted()

	threshold := (p.Capacity() * 3) / 4
	if p.inFullRing && p.allocCount < threshold {
		e.moveToNonFull(p)
	}
}

// Modify implements the public modify operation (§6, §4.1 update
// contract): overwrites the slot in place and registers it in the
// remembered set only when the payload transitions from non-nursery to
// nursery. The handle is never reallocated; h is taken by pointer only
// for interface parity with variants that may rewrite it.
func (e *Engine) Modify(h *Handle, newPayload hostiface.Payload) {
	slot := &h.pool.slots[h.idx]
	old := *slot
	*slot = newPayload

	if !e.cfg.GenerationalEnabled {
		return
	}
	if !e.rt.IsNursery(newPayload) {
		return
	}
	if e.rt.IsNursery(old) {
		return
	}
	e.rt.AddToRememberedSet(e.cfg.Domain, slot)
	e.st.RememberedSetAdd()
}
