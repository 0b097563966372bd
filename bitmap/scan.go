package bitmap

import (
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/lord/ocaml-swift-example/hostiface"
	"github.com/lord/ocaml-swift-example/stats"
)

// scanCallback is registered with the host runtime and dispatches to the
// minor or major scan path, timing the pass for the stats component.
func (e *Engine) scanCallback(action hostiface.ScanAction, onlyYoung bool, opaque unsafe.Pointer) {
	start := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	if onlyYoung {
		e.scanMinor(action)
		e.st.ScanDuration(stats.Minor, time.Since(start))
		return
	}

	e.scanMajor(action)
	e.st.ScanDuration(stats.Major, time.Since(start))
}

// scanMinor visits every occupied slot of every young chunk, applying
// action only to payloads whose address actually falls in the nursery
// range (§4.2's fast range check), then migrates the entire young ring
// onto the old ring in O(1) via ring.ConcatAfter: every chunk the young
// ring held, full or not, is now an old chunk.
func (e *Engine) scanMinor(action hostiface.ScanAction) {
	if e.young == nil {
		return
	}

	lo, hi := e.rt.NurseryRange()
	e.young.Do(func(c *Chunk) {
		free := atomic.LoadUint64(&c.free)
		for idx := 0; idx < ChunkSlots; idx++ {
			if free&(uint64(1)<<uint(idx)) != 0 {
				continue
			}
			slot := &c.slots[idx]
			p := *slot
			if p.IsImmediate() {
				continue
			}
			addr := p.Addr()
			if addr < lo || addr >= hi {
				continue
			}
			action(p, slot)
			e.st.SlotVisited()
		}
		c.isYoung = false
	})

	if e.old == nil {
		e.old = e.young
	} else {
		e.old.ConcatAfter(e.young)
	}
	e.young = nil
}

// scanMajor visits every occupied slot in both rings unconditionally,
// since a major collection may move any payload regardless of generation.
func (e *Engine) scanMajor(action hostiface.ScanAction) {
	visit := func(c *Chunk) {
		free := atomic.LoadUint64(&c.free)
		for idx := 0; idx < ChunkSlots; idx++ {
			if free&(uint64(1)<<uint(idx)) != 0 {
				continue
			}
			slot := &c.slots[idx]
			action(*slot, slot)
			e.st.SlotVisited()
		}
	}
	e.young.Do(visit)
	e.old.Do(visit)
}
