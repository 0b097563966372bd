package hostiface

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestImmediateRoundTrip(t *testing.T) {
	p := Immediate(42)
	require.True(t, p.IsImmediate())
	require.Equal(t, int64(42), p.Int())
}

func TestBlockPointerIsNotImmediate(t *testing.T) {
	p := BlockPointer(0x1000)
	require.False(t, p.IsImmediate())
	require.Equal(t, uintptr(0x1000), p.Addr())
}

func TestSimulatedNurseryClassification(t *testing.T) {
	s := NewSimulated()
	young := s.NewNurseryPointer()
	old := s.NewMaturePointer()

	require.True(t, s.IsNursery(young))
	require.False(t, s.IsNursery(old))
	require.False(t, s.IsNursery(Immediate(1)))
}

func TestTriggerMinorVisitsRememberedSet(t *testing.T) {
	s := NewSimulated()
	var slots [1000]Payload
	for i := range slots {
		slots[i] = s.NewNurseryPointer()
		s.AddToRememberedSet(0, &slots[i])
	}
	scanCallbackInvocations := 0
	s.RegisterScanCallback(func(action ScanAction, onlyYoung bool, opaque unsafe.Pointer) {
		scanCallbackInvocations++
		require.True(t, onlyYoung)
	})

	s.TriggerMinor(0)

	require.Equal(t, 1000, s.RememberedSetVisits)
	require.Equal(t, 1, scanCallbackInvocations)
	for i := range slots {
		require.False(t, s.IsNursery(slots[i]))
	}
}

func TestTriggerMajorForwardsNurseryPayloads(t *testing.T) {
	s := NewSimulated()
	var visited int
	s.RegisterScanCallback(func(action ScanAction, onlyYoung bool, opaque unsafe.Pointer) {
		require.False(t, onlyYoung)
		slot := s.NewNurseryPointer()
		action(slot, &slot)
		visited++
		require.False(t, s.IsNursery(slot))
	})
	s.TriggerMajor()
	require.Equal(t, 1, visited)
}
