package pool

import (
	"testing"

	"github.com/lord/ocaml-swift-example/hostiface"
	"github.com/lord/ocaml-swift-example/stats"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, logSize uint) (*Engine, *hostiface.Simulated) {
	t.Helper()
	rt := hostiface.NewSimulated()
	cfg := DefaultConfig()
	cfg.PoolLogSize = logSize
	e := New(rt, cfg, stats.New())
	t.Cleanup(e.Teardown)
	return e, rt
}

// S1: single handle.
func TestS1SingleHandle(t *testing.T) {
	e, _ := newTestEngine(t, 12)

	h := e.Create(hostiface.Immediate(42))
	require.False(t, h.IsNull())
	require.Equal(t, hostiface.Immediate(42), e.Get(h))

	e.Delete(h)
	require.NoError(t, e.ValidateFreeListIntegrity())
}

// S2: modify preserves address.
func TestS2ModifyPreservesAddress(t *testing.T) {
	e, rt := newTestEngine(t, 12)

	a := rt.NewMaturePointer()
	b := rt.NewMaturePointer()

	h := e.Create(a)
	addr1 := e.GetRef(h)
	e.Modify(&h, b)
	addr2 := e.GetRef(h)

	require.Same(t, addr1, addr2)
	require.Equal(t, b, e.Get(h))
}

// S3: fill and drain.
func TestS3FillAndDrain(t *testing.T) {
	e, rt := newTestEngine(t, 12)

	var handles []Handle
	first := e.Create(hostiface.Immediate(0))
	handles = append(handles, first)
	poolCapacity := first.pool.Capacity()

	for i := 1; i < poolCapacity+1; i++ {
		handles = append(handles, e.Create(hostiface.Immediate(int64(i))))
	}

	require.GreaterOrEqual(t, e.LivePoolCount(), 2)

	for _, h := range handles {
		e.Delete(h)
	}

	// Reclamation of empty pools (beyond the one retained as a buffer)
	// happens after a major scan, not on delete itself (§3 Lifecycle).
	rt.TriggerMajor()

	require.LessOrEqual(t, e.LivePoolCount(), 1)
	require.NoError(t, e.ValidateRingMembership())
}

// S4: minor GC with generational fast path.
func TestS4MinorGCFastPath(t *testing.T) {
	e, rt := newTestEngine(t, 14)

	for i := 0; i < 1000; i++ {
		h := e.Create(rt.NewNurseryPointer())
		require.False(t, h.IsNull())
	}

	snapBefore := e.st.Snapshot()
	rt.TriggerMinor(0)
	snapAfter := e.st.Snapshot()

	require.Equal(t, snapBefore.SlotVisits, snapAfter.SlotVisits, "minor collection must not visit any slot")
	require.Equal(t, 1000, rt.RememberedSetVisits)
}

// S5: major GC scanning.
func TestS5MajorGCScanning(t *testing.T) {
	e, rt := newTestEngine(t, 14)

	for i := 0; i < 1000; i++ {
		require.False(t, e.Create(rt.NewMaturePointer()).IsNull())
	}
	for i := 0; i < 500; i++ {
		require.False(t, e.Create(rt.NewNurseryPointer()).IsNull())
	}

	rt.TriggerMajor()

	snap := e.st.Snapshot()
	require.Equal(t, int64(1500), snap.UsefulScanWork)
	require.Equal(t, int64(1500), snap.SlotVisits)
}

func TestIdempotentTeardown(t *testing.T) {
	e, _ := newTestEngine(t, 12)
	e.Create(hostiface.Immediate(1))
	e.Teardown()
	require.NotPanics(t, func() { e.Teardown() })
}

