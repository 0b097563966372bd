package pool

import "github.com/lord/ocaml-swift-example/hostiface"

// slotAddr returns the address of slot idx within the pool's own backing
// region. Slots start one word past the region base (see Pool).
func (p *Pool) slotAddr(idx uint32) uintptr {
	return p.region.Base + uintptr(idx+1)*uintptr(payloadSize)
}

// encodeLink packs nextIdx (or freeListEnd) as a free-list link: an
// address inside this pool's own aligned region, OR'd with the tag bit
// that marks it as an "immediate" rather than a block pointer. This is
// the Go realization of the spec's free-list encoding trick (§3, §9): a
// free cell is indistinguishable from a tagged integer payload to
// anything that does not know to check whether the untagged bits fall
// inside a pool's address range, and the empty-list sentinel is the
// pool's own base address rather than zero, so it can never collide with
// a real slot.
func (p *Pool) encodeLink(nextIdx uint32) hostiface.Payload {
	if nextIdx == freeListEnd {
		return hostiface.Payload(p.region.Base | 1)
	}
	return hostiface.Payload(p.slotAddr(nextIdx) | 1)
}

// decodeLink is the inverse of encodeLink.
func (p *Pool) decodeLink(link hostiface.Payload) uint32 {
	addr := uintptr(link) &^ uintptr(1)
	if addr == p.region.Base {
		return freeListEnd
	}
	return uint32((addr-p.region.Base)/uintptr(payloadSize)) - 1
}

// isFreeSlot reports whether slots[idx] currently holds a free-list link
// rather than a live payload: the validation the spec calls out, low bit
// set and high bits equal to this pool's own base address range.
func (p *Pool) isFreeSlot(idx uint32) bool {
	v := uintptr(p.slots[idx])
	if v&1 == 0 {
		return false
	}
	addr := v &^ 1
	return addr >= p.region.Base && addr < p.region.Base+p.region.Size()
}

// initFreeList threads every slot into the major free list in index
// order and leaves the minor free list empty; called once when a pool is
// carved out of a fresh region.
func initFreeList(p *Pool) {
	n := len(p.slots)
	for i := 0; i < n; i++ {
		next := uint32(i + 1)
		if i == n-1 {
			next = freeListEnd
		}
		p.slots[i] = p.encodeLink(next)
	}
	p.majorFree = 0
}

// popMajor removes and returns the head of the major free list, or
// (0, false) if it is empty.
func (p *Pool) popMajor() (uint32, bool) {
	if p.majorFree == freeListEnd {
		return 0, false
	}
	idx := p.majorFree
	p.majorFree = p.decodeLink(p.slots[idx])
	return idx, true
}

// pushMajor pushes idx onto the head of the major free list.
func (p *Pool) pushMajor(idx uint32) {
	p.slots[idx] = p.encodeLink(p.majorFree)
	p.majorFree = idx
}

// popMinor removes and returns the head of the minor free list, or
// (0, false) if it is empty.
func (p *Pool) popMinor() (uint32, bool) {
	if p.minorFree == freeListEnd {
		return 0, false
	}
	idx := p.minorFree
	p.minorFree = p.decodeLink(p.slots[idx])
	if p.minorFree == freeListEnd {
		p.minorFreeTail = freeListEnd
	}
	return idx, true
}

// pushMinor pushes idx onto the head of the minor free list, maintaining
// the tail index needed to splice the whole minor list onto the major
// list in O(1) during a minor collection.
func (p *Pool) pushMinor(idx uint32) {
	p.slots[idx] = p.encodeLink(p.minorFree)
	if p.minorFree == freeListEnd {
		p.minorFreeTail = idx
	}
	p.minorFree = idx
}

// reserve pops a slot index for a new payload, preferring the free list
// matching the payload's generational class per §4.1's allocation
// contract. The returned bool reports whether the slot came from the
// minor (true) or major (false) free list; ok is false if both lists are
// empty in this pool.
func (p *Pool) reserve(nursery bool) (idx uint32, fromMinor bool, ok bool) {
	if nursery {
		if idx, ok := p.popMinor(); ok {
			return idx, true, true
		}
		if idx, ok := p.popMajor(); ok {
			return idx, false, true
		}
		return 0, false, false
	}
	if idx, ok := p.popMajor(); ok {
		return idx, false, true
	}
	if idx, ok := p.popMinor(); ok {
		return idx, true, true
	}
	return 0, false, false
}

// spliceMinorIntoMajor moves the entire minor free list onto the head of
// the major free list in O(1), using the stored tail, then clears the
// minor list. This is the only work variant 4.1 performs on a minor
// collection (§4.1 scan callback, minor path).
func (p *Pool) spliceMinorIntoMajor() {
	if p.minorFree == freeListEnd {
		return
	}
	p.slots[p.minorFreeTail] = p.encodeLink(p.majorFree)
	p.majorFree = p.minorFree
	p.minorFree = freeListEnd
	p.minorFreeTail = freeListEnd
}

// freeSlotCount walks both free lists and returns how many cells they
// reach, for the free-list integrity property test (invariant 6). Debug
// tooling only; not on any hot path.
func (p *Pool) freeSlotCount() int {
	count := 0
	for idx := p.majorFree; idx != freeListEnd; idx = p.decodeLink(p.slots[idx]) {
		count++
	}
	for idx := p.minorFree; idx != freeListEnd; idx = p.decodeLink(p.slots[idx]) {
		count++
	}
	return count
}
