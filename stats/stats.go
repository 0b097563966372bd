// Package stats implements the allocator's statistics and validation
// component (spec §2 item 5): running counters reported by print_stats,
// the pool/slot/handle counts among them also mirrored into Prometheus
// collectors for external scraping, plus a Snapshot/
// Restore pair so debug-only validation passes that walk live state can
// bump internal counters without perturbing what print_stats reports —
// the teacher's own runtime carries the same "don't let introspection
// perturb the thing being introspected" discipline around its mstats
// struct during GC-assist accounting.
package stats

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Kind distinguishes minor from major collections for the timing
// counters described in §4.4.
type Kind string

const (
	Minor Kind = "minor"
	Major Kind = "major"
)

// Snapshot is a point-in-time copy of every counter, used to save and
// restore state around validation passes that must not be visible in
// print_stats output.
type Snapshot struct {
	LivePools       int64
	LiveSlots       int64
	HandlesCreated  int64
	HandlesDeleted  int64
	SlotVisits      int64
	UsefulScanWork  int64
	PoolsAllocated  int64
	PoolsReclaimed  int64
	RememberedAdds  int64
}

// Stats holds the counters for one engine instance. The zero value is not
// usable; construct with New.
type Stats struct {
	livePools      int64
	liveSlots      int64
	handlesCreated int64
	handlesDeleted int64
	slotVisits     int64
	usefulScanWork int64
	poolsAllocated int64
	poolsReclaimed int64
	rememberedAdds int64

	scanTotal [2]int64 // indexed by kindIndex, nanoseconds
	scanPeak  [2]int64 // indexed by kindIndex, nanoseconds
	scanCount [2]int64

	reg *prometheus.Registry
}

func kindIndex(k Kind) int {
	if k == Minor {
		return 0
	}
	return 1
}

// New builds a Stats and registers its Prometheus collectors against a
// fresh registry scoped to this instance (engines are process-wide
// singletons per §9, so one registry per process is typical, but tests
// construct many instances and must not collide on the default global
// registry).
func New() *Stats {
	s := &Stats{reg: prometheus.NewRegistry()}
	s.reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: "rootref_live_pools", Help: "pools currently owned by the engine"}, func() float64 { return float64(atomic.LoadInt64(&s.livePools)) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: "rootref_live_slots", Help: "slots currently holding a payload"}, func() float64 { return float64(atomic.LoadInt64(&s.liveSlots)) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{Name: "rootref_handles_created_total", Help: "handles returned by create"}, func() float64 { return float64(atomic.LoadInt64(&s.handlesCreated)) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{Name: "rootref_handles_deleted_total", Help: "handles released by delete"}, func() float64 { return float64(atomic.LoadInt64(&s.handlesDeleted)) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{Name: "rootref_pools_allocated_total", Help: "pools obtained from the page allocator"}, func() float64 { return float64(atomic.LoadInt64(&s.poolsAllocated)) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{Name: "rootref_pools_reclaimed_total", Help: "empty pools returned to the page allocator"}, func() float64 { return float64(atomic.LoadInt64(&s.poolsReclaimed)) }),
	)
	return s
}

// Registry exposes the Prometheus registry backing this instance, for
// wiring into an HTTP /metrics handler.
func (s *Stats) Registry() *prometheus.Registry { return s.reg }

func (s *Stats) PoolAllocated() {
	atomic.AddInt64(&s.poolsAllocated, 1)
	atomic.AddInt64(&s.livePools, 1)
}

func (s *Stats) PoolReclaimed() {
	atomic.AddInt64(&s.poolsReclaimed, 1)
	atomic.AddInt64(&s.livePools, -1)
}

func (s *Stats) HandleCreated() {
	atomic.AddInt64(&s.handlesCreated, 1)
	atomic.AddInt64(&s.liveSlots, 1)
}

func (s *Stats) HandleDeleted() {
	atomic.AddInt64(&s.handlesDeleted, 1)
	atomic.AddInt64(&s.liveSlots, -1)
}

// SlotVisited counts a scan callback visiting one live slot (invariant 8's
// "slot-visit counter", expected to stay 0 during a variant-4.1 minor
// collection).
func (s *Stats) SlotVisited() {
	atomic.AddInt64(&s.slotVisits, 1)
	atomic.AddInt64(&s.usefulScanWork, 1)
}

func (s *Stats) RememberedSetAdd() { atomic.AddInt64(&s.rememberedAdds, 1) }

// ScanDuration records one collection's wall-clock duration against its
// kind's running total and peak.
func (s *Stats) ScanDuration(k Kind, d time.Duration) {
	i := kindIndex(k)
	atomic.AddInt64(&s.scanTotal[i], int64(d))
	atomic.AddInt64(&s.scanCount[i], 1)
	for {
		cur := atomic.LoadInt64(&s.scanPeak[i])
		if int64(d) <= cur {
			return
		}
		if atomic.CompareAndSwapInt64(&s.scanPeak[i], cur, int64(d)) {
			return
		}
	}
}

// Snapshot takes a consistent-enough copy of every counter for save/
// restore around internal validation passes. Not linearizable across
// fields (no single mutex guards all of them, matching §5's "no lock
// needed off the structural path"), which is acceptable since it is used
// only to undo a validation pass's own bumps, which touch disjoint
// counters from everything else running concurrently.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		LivePools:      atomic.LoadInt64(&s.livePools),
		LiveSlots:      atomic.LoadInt64(&s.liveSlots),
		HandlesCreated: atomic.LoadInt64(&s.handlesCreated),
		HandlesDeleted: atomic.LoadInt64(&s.handlesDeleted),
		SlotVisits:     atomic.LoadInt64(&s.slotVisits),
		UsefulScanWork: atomic.LoadInt64(&s.usefulScanWork),
		PoolsAllocated: atomic.LoadInt64(&s.poolsAllocated),
		PoolsReclaimed: atomic.LoadInt64(&s.poolsReclaimed),
		RememberedAdds: atomic.LoadInt64(&s.rememberedAdds),
	}
}

// Restore writes a previously taken Snapshot back, undoing any counter
// movement validation code performed in between.
func (s *Stats) Restore(snap Snapshot) {
	atomic.StoreInt64(&s.livePools, snap.LivePools)
	atomic.StoreInt64(&s.liveSlots, snap.LiveSlots)
	atomic.StoreInt64(&s.handlesCreated, snap.HandlesCreated)
	atomic.StoreInt64(&s.handlesDeleted, snap.HandlesDeleted)
	atomic.StoreInt64(&s.slotVisits, snap.SlotVisits)
	atomic.StoreInt64(&s.usefulScanWork, snap.UsefulScanWork)
	atomic.StoreInt64(&s.poolsAllocated, snap.PoolsAllocated)
	atomic.StoreInt64(&s.poolsReclaimed, snap.PoolsReclaimed)
	atomic.StoreInt64(&s.rememberedAdds, snap.RememberedAdds)
}

// PrintStats implements the public print_stats operation (§6): writes a
// human-readable summary to w.
func (s *Stats) PrintStats(w io.Writer) {
	snap := s.Snapshot()
	fmt.Fprintf(w, "live pools:        %d\n", snap.LivePools)
	fmt.Fprintf(w, "live slots:        %d\n", snap.LiveSlots)
	fmt.Fprintf(w, "handles created:   %d\n", snap.HandlesCreated)
	fmt.Fprintf(w, "handles deleted:   %d\n", snap.HandlesDeleted)
	fmt.Fprintf(w, "pools allocated:   %d\n", snap.PoolsAllocated)
	fmt.Fprintf(w, "pools reclaimed:   %d\n", snap.PoolsReclaimed)
	fmt.Fprintf(w, "slot visits (scan):%d\n", snap.SlotVisits)
	fmt.Fprintf(w, "remembered-set adds:%d\n", snap.RememberedAdds)
	for _, k := range []Kind{Minor, Major} {
		i := kindIndex(k)
		count := atomic.LoadInt64(&s.scanCount[i])
		total := time.Duration(atomic.LoadInt64(&s.scanTotal[i]))
		peak := time.Duration(atomic.LoadInt64(&s.scanPeak[i]))
		fmt.Fprintf(w, "%s collections: count=%d total=%s peak=%s\n", k, count, total, peak)
	}
}
