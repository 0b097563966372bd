package hostiface

import (
	"sync"
	"unsafe"
)

// Simulated is a minimal in-process stand-in for the host runtime this
// module is designed to plug into. It is not a garbage collector: it
// fabricates synthetic nursery/mature address ranges (never dereferenced),
// tracks a per-domain remembered set, and drives minor/major "collections"
// that forward nursery addresses into the mature range the way a real
// copying collector would, so engines can be exercised end to end without
// a real foreign-function caller.
type Simulated struct {
	mu sync.Mutex

	cb ScanCallback

	nurseryLo, nurseryHi uintptr
	nurseryNext          uintptr
	matureLo             uintptr
	matureNext           uintptr

	remembered map[int][]*Payload

	// RememberedSetVisits counts how many slots the last minor
	// collection's remembered-set walk visited (forwarded or not); exposed for tests
	// asserting invariant 8 / scenario S4.
	RememberedSetVisits int

	minorInProgress bool
}

// NewSimulated builds a simulated host with a fixed-size synthetic
// nursery starting at an arbitrary non-zero base address.
func NewSimulated() *Simulated {
	const nurserySize = 1 << 24
	const matureBase = 1 << 32
	return &Simulated{
		nurseryLo:  1 << 20,
		nurseryHi:  (1 << 20) + nurserySize,
		nurseryNext: 1 << 20,
		matureLo:   matureBase,
		matureNext: matureBase,
		remembered: make(map[int][]*Payload),
	}
}

// NewNurseryPointer fabricates a fresh block-pointer payload inside the
// simulated nursery. Successive calls return distinct addresses.
func (s *Simulated) NewNurseryPointer() Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	addr := s.nurseryNext
	s.nurseryNext += 16
	if s.nurseryNext >= s.nurseryHi {
		s.nurseryNext = s.nurseryLo
	}
	return BlockPointer(addr)
}

// NewMaturePointer fabricates a fresh block-pointer payload outside the
// nursery, i.e. already in the mature generation.
func (s *Simulated) NewMaturePointer() Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	addr := s.matureNext
	s.matureNext += 16
	return BlockPointer(addr)
}

func (s *Simulated) IsImmediate(p Payload) bool { return p.IsImmediate() }

func (s *Simulated) IsNursery(p Payload) bool {
	if p.IsImmediate() {
		return false
	}
	addr := p.Addr()
	return addr >= s.nurseryLo && addr < s.nurseryHi
}

func (s *Simulated) NurseryRange() (lo, hi uintptr) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nurseryLo, s.nurseryHi
}

func (s *Simulated) RegisterScanCallback(cb ScanCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cb = cb
}

func (s *Simulated) AddToRememberedSet(domain int, slot *Payload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remembered[domain] = append(s.remembered[domain], slot)
}

func (s *Simulated) IsMinorCollection() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.minorInProgress
}

// TriggerMinor simulates a minor collection: it evacuates the nursery,
// forwarding every remembered-set slot whose payload currently points into
// the nursery to a fresh mature address, then invokes the engine's
// registered scan callback with onlyYoung=true and a real forwarding
// action, so variants without a remembered set (bitmap, linked) still get
// their young-ring payloads evacuated by walking the young ring itself.
// The remembered set for domain is cleared afterward, matching a real
// collector discarding stale entries once the epoch ends.
func (s *Simulated) TriggerMinor(domain int) {
	s.mu.Lock()
	s.minorInProgress = true
	slots := s.remembered[domain]
	s.remembered[domain] = nil
	s.RememberedSetVisits = 0
	s.mu.Unlock()

	visited := 0
	for _, slot := range slots {
		cur := *slot
		if s.IsNursery(cur) {
			*slot = s.NewMaturePointer()
		}
		visited++
	}

	s.mu.Lock()
	s.RememberedSetVisits = visited
	cb := s.cb
	s.mu.Unlock()

	if cb != nil {
		action := func(payload Payload, slot *Payload) {
			if payload.IsImmediate() {
				return
			}
			if s.IsNursery(payload) {
				*slot = s.NewMaturePointer()
			}
		}
		cb(action, true, unsafe.Pointer(s))
	}

	s.mu.Lock()
	s.minorInProgress = false
	// Fresh nursery after evacuation.
	s.nurseryNext = s.nurseryLo
	s.mu.Unlock()
}

// TriggerMajor simulates a major collection: it invokes the engine's scan
// callback with onlyYoung=false and an action that forwards any payload
// still pointing into the nursery (a major collection also walks live
// nursery objects that were never promoted) to a mature address, leaving
// mature payloads untouched.
func (s *Simulated) TriggerMajor() {
	s.mu.Lock()
	cb := s.cb
	s.mu.Unlock()
	if cb == nil {
		return
	}
	action := func(payload Payload, slot *Payload) {
		if payload.IsImmediate() {
			return
		}
		if s.IsNursery(payload) {
			*slot = s.NewMaturePointer()
		}
	}
	cb(action, false, unsafe.Pointer(s))
}

var _ Runtime = (*Simulated)(nil)
