package linked

import (
	"testing"

	"github.com/lord/ocaml-swift-example/hostiface"
	"github.com/lord/ocaml-swift-example/stats"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) (*Engine, *hostiface.Simulated) {
	t.Helper()
	rt := hostiface.NewSimulated()
	e := New(rt, DefaultConfig(), stats.New())
	t.Cleanup(e.Teardown)
	return e, rt
}

func TestS1SingleHandle(t *testing.T) {
	e, _ := newTestEngine(t)

	h := e.Create(hostiface.Immediate(9))
	require.False(t, h.IsNull())
	require.Equal(t, hostiface.Immediate(9), e.Get(h))

	e.Delete(h)
	require.NoError(t, e.ValidateRingMembership())
}

// Modify without a generational transition keeps the same cell.
func TestModifyWithoutPromotionKeepsCell(t *testing.T) {
	e, rt := newTestEngine(t)

	a := rt.NewMaturePointer()
	b := rt.NewMaturePointer()

	h := e.Create(a)
	before := h.elem
	e.Modify(&h, b)

	require.Same(t, before, h.elem)
	require.Equal(t, b, e.Get(h))
}

// The §9 contract quirk: promoting a young element to a mature payload
// reallocates the cell and rewrites the caller's handle.
func TestModifyPromotionReallocatesCell(t *testing.T) {
	e, rt := newTestEngine(t)

	h := e.Create(rt.NewNurseryPointer())
	before := h.elem
	require.True(t, before.young)

	mature := rt.NewMaturePointer()
	e.Modify(&h, mature)

	require.NotSame(t, before, h.elem)
	require.False(t, h.elem.young)
	require.Equal(t, mature, e.Get(h))
	require.NoError(t, e.ValidateRingMembership())
}

func TestMinorGCMigratesYoungToOld(t *testing.T) {
	e, rt := newTestEngine(t)

	var handles []Handle
	for i := 0; i < 100; i++ {
		h := e.Create(rt.NewNurseryPointer())
		require.False(t, h.IsNull())
		handles = append(handles, h)
	}
	require.NotNil(t, e.young)

	rt.TriggerMinor(0)

	require.Nil(t, e.young)
	require.NotNil(t, e.old)
	require.NoError(t, e.ValidateRingMembership())

	for _, h := range handles {
		require.False(t, rt.IsNursery(e.Get(h)), "payload should have been forwarded out of the nursery")
	}
}

func TestMajorGCScansEveryLiveElement(t *testing.T) {
	e, rt := newTestEngine(t)

	for i := 0; i < 40; i++ {
		require.False(t, e.Create(rt.NewMaturePointer()).IsNull())
	}
	for i := 0; i < 20; i++ {
		require.False(t, e.Create(rt.NewNurseryPointer()).IsNull())
	}

	rt.TriggerMajor()

	snap := e.st.Snapshot()
	require.Equal(t, int64(60), snap.SlotVisits)
}

func TestDeletePushesToFreeCacheAndIsReused(t *testing.T) {
	e, _ := newTestEngine(t)

	h := e.Create(hostiface.Immediate(1))
	reused := h.elem
	e.Delete(h)

	h2 := e.Create(hostiface.Immediate(2))
	require.Same(t, reused, h2.elem, "free cache should be reused before allocating a new cell")
}

func TestIdempotentTeardown(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Create(hostiface.Immediate(1))
	e.Teardown()
	require.NotPanics(t, func() { e.Teardown() })
}
