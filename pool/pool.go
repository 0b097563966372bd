// Package pool implements variant 4.1 of the rooted reference allocator:
// per-pool major/minor free lists plus the host's remembered set, so that
// minor collections do zero scanning work in this component. It is the
// primary, default engine (see rootref and SPEC_FULL.md §9).
//
// Grounded on the teacher's mfixalloc.go (free-list-of-fixed-size-objects
// discipline: a chunk handed out by a page allocator, carved into equal
// cells, a singly linked free list threaded through the cells themselves)
// and mheap.go's split between a ring of spans with free space and a ring
// of full spans.
package pool

import (
	"unsafe"

	"github.com/lord/ocaml-swift-example/hostiface"
	"github.com/lord/ocaml-swift-example/memsys"
	"github.com/lord/ocaml-swift-example/ring"
)

// DefaultPoolLogSize is log2 of the default pool size in bytes (16 KiB),
// matching §6's configuration knob default.
const DefaultPoolLogSize = 14

// freeListEnd marks the end of a free list (or an entirely empty one). It
// is never a valid slot index for any supported pool size, playing the
// role the spec's "free list head equals the pool base address" sentinel
// plays in the pointer-based design: a value that can never be mistaken
// for a live cell.
const freeListEnd = ^uint32(0)

var payloadSize = int(unsafe.Sizeof(hostiface.Payload(0)))

// Pool is one fixed-size, power-of-two-aligned region of slot cells plus
// its header bookkeeping. The header itself is an ordinary Go struct (the
// host's GC, if any, is free to scan and move it); only the slot array
// backing slots lives in the externally obtained, non-Go-heap region, per
// DESIGN.md O1. The region's first word is not a slot: slot 0 starts one
// word past the base, so the base address (the free-list end marker) is
// never a slot address.
type Pool struct {
	node *ring.Node[*Pool]

	region *memsys.Region
	slots  []hostiface.Payload

	allocCount    int
	majorFree     uint32
	minorFree     uint32
	minorFreeTail uint32
	inFullRing    bool
}

func newPool(logSize uint) (*Pool, error) {
	region, err := memsys.Alloc(logSize)
	if err != nil {
		return nil, err
	}
	capacity := len(region.Bytes)/payloadSize - 1
	slots := unsafe.Slice((*hostiface.Payload)(unsafe.Pointer(&region.Bytes[payloadSize])), capacity)

	p := &Pool{
		region:        region,
		slots:         slots,
		majorFree:     freeListEnd,
		minorFree:     freeListEnd,
		minorFreeTail: freeListEnd,
	}
	p.node = ring.New(p)
	initFreeList(p)
	return p, nil
}

// Capacity returns the number of slot cells in the pool.
func (p *Pool) Capacity() int { return len(p.slots) }

// AllocCount returns the number of cells currently holding a live payload.
func (p *Pool) AllocCount() int { return p.allocCount }

// free releases the pool's backing region back to the page allocator.
func (p *Pool) free() error {
	return memsys.Free(p.region)
}
