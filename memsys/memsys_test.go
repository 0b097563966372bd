package memsys

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocIsAligned(t *testing.T) {
	r, err := Alloc(14)
	require.NoError(t, err)
	defer Free(r)

	require.Equal(t, uintptr(1<<14), r.Size())
	require.Equal(t, r.Base, r.Base&r.BaseMask())
	require.Equal(t, r.Base%r.Size(), uintptr(0))
	require.Len(t, r.Bytes, 1<<14)
}

func TestAllocRejectsBadLogSize(t *testing.T) {
	_, err := Alloc(4)
	require.Error(t, err)
}

func TestFreeIsIdempotent(t *testing.T) {
	r, err := Alloc(12)
	require.NoError(t, err)
	require.NoError(t, Free(r))
	require.NoError(t, Free(r))
}
