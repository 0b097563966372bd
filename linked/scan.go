package linked

import (
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

// scanMinor visits the young ring, applying action only to payloads whose
// address actually falls in the nursery range, then splices the young
// ring wholesale onto the old ring (§4.3).
func (e *Engine) scanMinor(action hostiface.ScanAction) {
	if e.young == nil {
		return
	}

	lo, hi := e.rt.NurseryRange()
	e.young.Do(func(el *Element) {
		if !el.payload.IsImmediate() {
			addr := el.payload.Addr()
			if addr >= lo && addr < hi {
				action(el.payload, &el.payload)
				e.st.SlotVisited()
			}
		}
		el.young = false
	})

	if e.old == nil {
		e.old = e.young
	} else {
		e.old.ConcatAfter(e.young)
	}
	e.young = nil
}

// scanMajor visits every live element in both rings unconditionally; the
// free cache is skipped since none of its cells hold a live payload.
func (e *Engine) scanMajor(action hostiface.ScanAction) {
	visit := func(el *Element) {
		action(el.payload, &el.payload)
		e.st.SlotVisited()
	}
	e.young.Do(visit)
	e.old.Do(visit)
}
