// Package bitmap implements variant 4.2 of the rooted reference allocator:
// fixed 64-slot chunks with an embedded atomic free-bit bitmap instead of
// an intrusive free list, and separate young/old rings rather than a
// single non-full/full split. A set bit means the slot is free.
//
// Grounded on the teacher's lfstack.go and sync/atomic discipline (lock-free
// bit twiddling via compare-and-swap loops) plus mheap.go's ring-of-spans
// shape, generalized the same way pool does via the ring package.
package bitmap

import (
	"math/bits"
	"sync/atomic"

	"github.com/lord/ocaml-swift-example/hostiface"
	"github.com/lord/ocaml-swift-example/ring"
)

// ChunkSlots is the fixed number of payload cells per chunk: one bit per
// slot fits exactly in a machine word (§4.2).
const ChunkSlots = 64

const allFree = ^uint64(0)

// Chunk is one fixed 64-slot allocation unit. Unlike pool.Pool it is
// ordinary Go-heap memory: there is no address-range trick to recover a
// chunk from a slot address (Handle already carries the chunk pointer),
// so there is nothing for the page allocator to buy here.
type Chunk struct {
	node *ring.Node[*Chunk]

	slots [ChunkSlots]hostiface.Payload
	free  uint64 // atomic bitmap; 1 = free, 0 = occupied

	isYoung bool
}

func newChunk(young bool) *Chunk {
	c := &Chunk{free: allFree, isYoung: young}
	c.node = ring.New(c)
	return c
}

// tryAlloc claims the lowest-indexed free slot via a CAS loop, matching
// the spec's "relaxed atomics, no structural lock required" concurrency
// note for per-chunk bit twiddling (§4.2 Concurrency).
func (c *Chunk) tryAlloc() (idx uint32, ok bool) {
	for {
		old := atomic.LoadUint64(&c.free)
		if old == 0 {
			return 0, false
		}
		bit := bits.TrailingZeros64(old)
		next := old &^ (uint64(1) << bit)
		if atomic.CompareAndSwapUint64(&c.free, old, next) {
			return uint32(bit), true
		}
	}
}

// release clears the occupied bit for idx, reporting whether the chunk
// was full immediately before (so the caller can reclassify it toward the
// head of its ring) and whether it is now completely empty.
func (c *Chunk) release(idx uint32) (wasFull, nowEmpty bool) {
	bit := uint64(1) << idx
	for {
		old := atomic.LoadUint64(&c.free)
		next := old | bit
		if atomic.CompareAndSwapUint64(&c.free, old, next) {
			return old == 0, next == allFree
		}
	}
}

func (c *Chunk) isFull() bool {
	return atomic.LoadUint64(&c.free) == 0
}

func (c *Chunk) isEmpty() bool {
	return atomic.LoadUint64(&c.free) == allFree
}
