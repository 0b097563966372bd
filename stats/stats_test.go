package stats

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCountersAndSnapshotRestore(t *testing.T) {
	s := New()
	s.PoolAllocated()
	s.HandleCreated()
	s.HandleCreated()

	snap := s.Snapshot()
	require.Equal(t, int64(1), snap.LivePools)
	require.Equal(t, int64(2), snap.LiveSlots)

	// Simulate a validation pass bumping internal counters, then undo it.
	s.SlotVisited()
	s.SlotVisited()
	require.NotEqual(t, snap, s.Snapshot())

	s.Restore(snap)
	require.Equal(t, snap, s.Snapshot())
}

func TestScanDurationTracksPeak(t *testing.T) {
	s := New()
	s.ScanDuration(Minor, 10*time.Millisecond)
	s.ScanDuration(Minor, 30*time.Millisecond)
	s.ScanDuration(Minor, 5*time.Millisecond)

	var buf bytes.Buffer
	s.PrintStats(&buf)
	require.Contains(t, buf.String(), "minor collections: count=3 total=45ms peak=30ms")
}

func TestPrintStatsWritesSummary(t *testing.T) {
	s := New()
	s.PoolAllocated()
	s.HandleCreated()

	var buf bytes.Buffer
	s.PrintStats(&buf)

	out := buf.String()
	require.Contains(t, out, "live pools:        1")
	require.Contains(t, out, "live slots:        1")
}
