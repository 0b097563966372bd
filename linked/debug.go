package linked

import "fmt"

// ValidateRingMembership checks invariant 7's analogue for this variant:
// every element is in exactly one of the young, old, or free-cache rings,
// and young/old membership agrees with the element's own young flag.
func (e *Engine) ValidateRingMembership() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	seen := make(map[*Element]bool)
	var err error
	mark := func(wantYoung *bool) func(*Element) {
		return func(el *Element) {
			if err != nil {
				return
			}
			if seen[el] {
				err = fmt.Errorf("element present in more than one ring")
				return
			}
			seen[el] = true
			if wantYoung != nil && el.young != *wantYoung {
				err = fmt.Errorf("element young=%v but found in wrong ring", el.young)
			}
		}
	}
	yes, no := true, false
	e.young.Do(mark(&yes))
	e.old.Do(mark(&no))
	e.freeCache.Do(mark(nil))
	return err
}
