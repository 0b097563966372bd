package linked

import (
	"sync"

	"github.com/lord/ocaml-swift-example/hostiface"
	"github.com/lord/ocaml-swift-example/ring"
	"github.com/lord/ocaml-swift-example/stats"
)

// Config collects variant 4.3's compile-time knobs.
type Config struct {
	GenerationalEnabled bool
	DebugAssertLevel    int
}

// DefaultConfig returns the configuration rootref uses when the caller
// does not override it.
func DefaultConfig() Config {
	return Config{GenerationalEnabled: true}
}

// Handle is the rooted reference returned by Create. Unlike pool and
// bitmap, this variant's Modify may rewrite elem to point at a freshly
// allocated cell when promoting a payload from young to old (§9): callers
// must always take Handle by pointer when modifying it, and must treat
// any previously-copied Handle value as stale afterward.
type Handle struct {
	elem *Element
}

// IsNull reports whether h is the null handle.
func (h Handle) IsNull() bool { return h.elem == nil }

// Engine is the process-wide state object for variant 4.3. The zero
// Engine is not usable; build one with New.
type Engine struct {
	mu sync.Mutex

	rt  hostiface.Runtime
	cfg Config
	st  *stats.Stats

	young     *ring.Node[*Element]
	old       *ring.Node[*Element]
	freeCache *ring.Node[*Element]
}

// New constructs an Engine bound to rt and registers its scan callback
// with the host.
func New(rt hostiface.Runtime, cfg Config, st *stats.Stats) *Engine {
	e := &Engine{rt: rt, cfg: cfg, st: st}
	rt.RegisterScanCallback(e.scanCallback)
	return e
}

// Teardown drops every ring. Elements are ordinary Go-heap values, so
// there is nothing to release to a page allocator; this just lets them
// become garbage.
func (e *Engine) Teardown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.young, e.old, e.freeCache = nil, nil, nil
}

// LiveElementCount returns the number of elements currently holding a
// live payload (i.e. excluding the free cache).
func (e *Engine) LiveElementCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.young.Len() + e.old.Len()
}

// popOrAlloc takes an element from the free cache, or heap-allocates a
// fresh one if the cache is empty, leaving it unlinked from any ring.
func (e *Engine) popOrAlloc() *Element {
	if e.freeCache == nil {
		return newElement()
	}
	el := e.freeCache.Owner
	if e.freeCache.Alone() {
		e.freeCache = nil
	} else {
		e.freeCache = e.freeCache.Next()
	}
	el.node.Remove()
	return el
}

func (e *Engine) ringFor(young bool) **ring.Node[*Element] {
	if young {
		return &e.young
	}
	return &e.old
}

// removeFromOwnRing unlinks el from whichever of the young/old rings its
// own young flag says it belongs to.
func (e *Engine) removeFromOwnRing(el *Element) {
	head := e.ringFor(el.young)
	if *head == el.node {
		if el.node.Alone() {
			*head = nil
		} else {
			*head = el.node.Next()
		}
	}
	el.node.Remove()
}

// Create implements the public create operation (§6, §4.3): pops a cell
// from the free cache (or allocates one) and pushes it onto the young or
// old ring matching payload's generational class.
func (e *Engine) Create(payload hostiface.Payload) Handle {
	e.mu.Lock()
	defer e.mu.Unlock()

	young := e.cfg.GenerationalEnabled && e.rt.IsNursery(payload)

	el := e.popOrAlloc()
	el.payload = payload
	el.young = young

	head := e.ringFor(young)
	*head = el.node.MoveToHead(*head)

	e.st.HandleCreated()
	return Handle{elem: el}
}

// Get implements the public get operation (§6).
func (e *Engine) Get(h Handle) hostiface.Payload {
	return h.elem.payload
}

// GetRef implements get_ref (§6): valid until the next modify or delete
// on this handle, same as every other variant, but modify in this variant
// may invalidate it even sooner by relocating the payload to a new cell.
func (e *Engine) GetRef(h Handle) *hostiface.Payload {
	return &h.elem.payload
}

// Delete implements the public delete operation (§6): unlinks the cell
// from its generational ring and pushes it onto the free cache for reuse.
func (e *Engine) Delete(h Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()

	el := h.elem
	e.removeFromOwnRing(el)
	el.payload = hostiface.Payload(0)
	e.freeCache = el.node.MoveToHead(e.freeCache)
	e.st.HandleDeleted()
}

// Modify implements the public modify operation (§6, §9): ordinarily
// overwrites the cell's payload in place. The one documented exception
// (§9) is a young-to-old promotion, i.e. the cell currently sits in the
// young ring and newPayload is no longer a nursery value: this variant
// reallocates a fresh cell in the old ring for it rather than flipping
// the existing cell's generation in place, retires the old cell to the
// free cache, and rewrites *h to point at the new cell. Any copy of the
// handle taken before this call is stale afterward.
func (e *Engine) Modify(h *Handle, newPayload hostiface.Payload) {
	e.mu.Lock()
	defer e.mu.Unlock()

	el := h.elem
	promoting := e.cfg.GenerationalEnabled && el.young && !e.rt.IsNursery(newPayload)
	if !promoting {
		el.payload = newPayload
		return
	}

	fresh := e.popOrAlloc()
	fresh.payload = newPayload
	fresh.young = false
	e.old = fresh.node.MoveToHead(e.old)

	e.removeFromOwnRing(el)
	el.payload = hostiface.Payload(0)
	e.freeCache = el.node.MoveToHead(e.freeCache)

	h.elem = fresh
}
