package pool

import "fmt"

// ValidateFreeListIntegrity checks invariant 6 (§8) for every pool in
// both rings: the number of cells reachable from its free-list heads
// equals Capacity - AllocCount. Intended for tests and for
// DebugAssertLevel > 0 builds, not the hot path. Per the Open Question
// resolution in §9, it saves and restores a stats snapshot around its own
// iteration so this bookkeeping never perturbs print_stats output.
func (e *Engine) ValidateFreeListIntegrity() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := e.st.Snapshot()
	defer e.st.Restore(snap)

	var err error
	check := func(p *Pool) {
		if err != nil {
			return
		}
		want := p.Capacity() - p.AllocCount()
		got := p.freeSlotCount()
		if got != want {
			err = fmt.Errorf("pool free list integrity: want %d free cells, got %d", want, got)
		}
	}
	e.nonFull.Do(check)
	e.full.Do(check)
	return err
}

// ValidateRingMembership checks invariant 7 (§8): every pool is in
// exactly one ring, and that ring agrees with the pool's own inFullRing
// bookkeeping.
func (e *Engine) ValidateRingMembership() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	seen := make(map[*Pool]bool)
	var err error
	mark := func(wantFull bool) func(*Pool) {
		return func(p *Pool) {
			if err != nil {
				return
			}
			if seen[p] {
				err = fmt.Errorf("pool present in both rings")
				return
			}
			seen[p] = true
			if p.inFullRing != wantFull {
				err = fmt.Errorf("pool inFullRing=%v but found in %s ring", p.inFullRing, ringName(wantFull))
			}
		}
	}
	e.nonFull.Do(mark(false))
	e.full.Do(mark(true))
	return err
}

func ringName(full bool) string {
	if full {
		return "full"
	}
	return "non-full"
}
