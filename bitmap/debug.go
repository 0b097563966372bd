package bitmap

import (
	"fmt"
	"math/bits"
	"sync/atomic"
)

// ValidateBitmapConsistency checks invariant 9 (§8): a chunk's free
// bitmap must never report more occupied slots than exist, and the
// young/old ring a chunk is linked into must agree with its own isYoung
// flag (the generational classification the bitmap's allocation policy
// relies on).
func (e *Engine) ValidateBitmapConsistency() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	seen := make(map[*Chunk]bool)
	var err error

	check := func(wantYoung bool) func(*Chunk) {
		return func(c *Chunk) {
			if err != nil {
				return
			}
			if seen[c] {
				err = fmt.Errorf("chunk present in both young and old rings")
				return
			}
			seen[c] = true
			if c.isYoung != wantYoung {
				err = fmt.Errorf("chunk isYoung=%v but found in %s ring", c.isYoung, ringName(wantYoung))
				return
			}
			occupied := ChunkSlots - bits.OnesCount64(atomic.LoadUint64(&c.free))
			if occupied < 0 || occupied > ChunkSlots {
				err = fmt.Errorf("chunk reports %d occupied slots, want 0..%d", occupied, ChunkSlots)
			}
		}
	}

	e.young.Do(check(true))
	e.old.Do(check(false))
	return err
}

func ringName(young bool) string {
	if young {
		return "young"
	}
	return "old"
}
