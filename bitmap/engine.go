package bitmap

import (
	"sync"

	"github.com/lord/ocaml-swift-example/hostiface"
	"github.com/lord/ocaml-swift-example/ring"
	"github.com/lord/ocaml-swift-example/stats"
)

// Config collects variant 4.2's compile-time knobs.
type Config struct {
	GenerationalEnabled bool
	Domain              int
	DebugAssertLevel    int
}

// DefaultConfig returns the configuration rootref uses when the caller
// does not override it.
func DefaultConfig() Config {
	return Config{GenerationalEnabled: true, Domain: 0}
}

// Handle is the rooted reference returned by Create: a chunk pointer plus
// the slot index within it. The zero Handle is null (§6, §7).
type Handle struct {
	chunk *Chunk
	idx   uint32
}

// IsNull reports whether h is the null handle.
func (h Handle) IsNull() bool { return h.chunk == nil }

// Engine is the process-wide state object for variant 4.2. The zero
// Engine is not usable; build one with New.
type Engine struct {
	mu sync.Mutex

	rt  hostiface.Runtime
	cfg Config
	st  *stats.Stats

	young *ring.Node[*Chunk]
	old   *ring.Node[*Chunk]
}

// New constructs an Engine bound to rt and registers its scan callback
// with the host.
func New(rt hostiface.Runtime, cfg Config, st *stats.Stats) *Engine {
	e := &Engine{rt: rt, cfg: cfg, st: st}
	rt.RegisterScanCallback(e.scanCallback)
	return e
}

// Teardown drops every chunk. Chunks are ordinary Go-heap values with no
// externally obtained backing region, so there is nothing to release to
// the page allocator; this just lets the rings (and the chunks reachable
// from them) become garbage.
func (e *Engine) Teardown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.young = nil
	e.old = nil
}

// LivePoolCount returns the total number of chunks across both rings,
// mirroring pool.Engine's naming for interface parity across variants.
func (e *Engine) LivePoolCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.young.Len() + e.old.Len()
}

func (e *Engine) ringFor(young bool) **ring.Node[*Chunk] {
	if young {
		return &e.young
	}
	return &e.old
}

// obtainWritableChunk returns a chunk in the young or old ring (matching
// young) known to have at least one free bit at the moment it is
// returned, creating one if needed. Reclassification of full chunks
// (§4.2) needs no relinking at all: since a ring's "head" is just which
// node a caller currently treats as the entry point, walking the head
// pointer forward past exhausted chunks already leaves them positioned
// as the tail relative to the new head, with the ring's physical links
// untouched. Only when every existing chunk is full does this splice in
// a fresh one, ahead of the exhausted run.
func (e *Engine) obtainWritableChunk(young bool) *Chunk {
	e.mu.Lock()
	defer e.mu.Unlock()

	head := e.ringFor(young)
	if *head == nil {
		c := newChunk(young)
		*head = c.node
		e.st.PoolAllocated()
		return c
	}

	cur := *head
	for i, n := 0, (*head).Len(); i < n; i++ {
		if !cur.Owner.isFull() {
			*head = cur
			return cur.Owner
		}
		cur = cur.Next()
	}

	c := newChunk(young)
	(*head).Prev().InsertAfter(c.node)
	*head = c.node
	e.st.PoolAllocated()
	return c
}

// Create implements the public create operation for variant 4.2 (§4.2):
// claims a free bit from a chunk in the matching generational ring,
// creating a new chunk when every existing one is full. Unlike pool, this
// variant never registers a remembered-set entry: §4.2's generational fast
// path is the young-ring scan itself (scan.go), not a remembered set.
func (e *Engine) Create(payload hostiface.Payload) Handle {
	young := e.cfg.GenerationalEnabled && e.rt.IsNursery(payload)

	for {
		c := e.obtainWritableChunk(young)

		idx, ok := c.tryAlloc()
		if !ok {
			continue // raced with a concurrent Create on the same chunk
		}

		c.slots[idx] = payload
		e.st.HandleCreated()

		return Handle{chunk: c, idx: idx}
	}
}

// Get implements the public get operation (§6).
func (e *Engine) Get(h Handle) hostiface.Payload {
	return h.chunk.slots[h.idx]
}

// GetRef implements get_ref (§6).
func (e *Engine) GetRef(h Handle) *hostiface.Payload {
	return &h.chunk.slots[h.idx]
}

// Delete implements the public delete operation (§4.2 release contract):
// clears the occupied bit and, if the chunk had been full, promotes it
// back to the head of its ring so it is the next one Create tries. No
// relinking is required: any node already in the ring can become the
// head pointer's target without disturbing the ring's physical links.
func (e *Engine) Delete(h Handle) {
	c := h.chunk
	wasFull, _ := c.release(h.idx)
	e.st.HandleDeleted()

	if wasFull {
		e.mu.Lock()
		*e.ringFor(c.isYoung) = c.node
		e.mu.Unlock()
	}
}

// Modify implements the public modify operation (§6): overwrites the slot
// in place. The handle is never reallocated in this variant, and (per
// §4.2) no remembered-set entry is registered here either — when a slot
// is rewritten to hold a nursery payload, its chunk is moved into the
// young ring (if it is not there already) so the next minor collection's
// young-ring walk picks it up.
func (e *Engine) Modify(h *Handle, newPayload hostiface.Payload) {
	c := h.chunk
	slot := &c.slots[h.idx]
	*slot = newPayload

	if !e.cfg.GenerationalEnabled || !e.rt.IsNursery(newPayload) {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if c.isYoung {
		return
	}
	if e.old == c.node {
		e.old = c.node.Next()
		if e.old == c.node {
			e.old = nil
		}
	}
	c.isYoung = true
	e.young = c.node.MoveToHead(e.young)
}
