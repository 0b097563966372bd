package pool

import (
	"time"
	"unsafe"

	"github.com/lord/ocaml-swift-example/hostiface"
	"github.com/lord/ocaml-swift-example/stats"
)

// scanCallback is registered with the host runtime (§4.4) and dispatches
// to the minor or major scan path depending on which kind of collection
// triggered it, timing the pass for the stats component.
func (e *Engine) scanCallback(action hostiface.ScanAction, onlyYoung bool, opaque unsafe.Pointer) {
	start := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	if onlyYoung {
		e.scanMinor()
		e.st.ScanDuration(stats.Minor, time.Since(start))
		return
	}

	e.scanMajor(action)
	e.reclaimEmptyPools()
	e.st.ScanDuration(stats.Major, time.Since(start))
}

// scanMinor is variant 4.1's entire minor-collection workload: splice
// each pool's minor free list onto its major free list. No slot is
// visited; every live nursery payload was already registered in the
// host's remembered set at create/modify time and is forwarded by the
// host's own remembered-set walk, not by this callback (§4.1).
func (e *Engine) scanMinor() {
	e.nonFull.Do(func(p *Pool) { p.spliceMinorIntoMajor() })
	e.full.Do(func(p *Pool) { p.spliceMinorIntoMajor() })
}

// scanMajor walks every pool in both rings in address order, applying
// action to each full slot and none of the free ones, using allocCount as
// an early-exit counter exactly as §4.1 describes.
func (e *Engine) scanMajor(action hostiface.ScanAction) {
	visit := func(p *Pool) {
		visited := 0
		for idx := uint32(0); int(idx) < len(p.slots) && visited < p.allocCount; idx++ {
			if p.isFreeSlot(idx) {
				continue
			}
			slot := &p.slots[idx]
			action(*slot, slot)
			e.st.SlotVisited()
			visited++
		}
	}
	e.nonFull.Do(visit)
	e.full.Do(visit)
}

// reclaimEmptyPools releases every empty pool in the non-full ring back
// to the page allocator, except one kept as a buffer to avoid allocator
// churn (§3 Lifecycle). The full ring is skipped: by definition none of
// its pools are empty.
func (e *Engine) reclaimEmptyPools() {
	var empties []*Pool
	e.nonFull.Do(func(p *Pool) {
		if p.allocCount == 0 {
			empties = append(empties, p)
		}
	})
	if len(empties) <= 1 {
		return
	}
	for _, p := range empties[1:] {
		e.removeFromNonFull(p)
		_ = p.free()
		e.st.PoolReclaimed()
	}
}
