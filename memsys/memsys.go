// Package memsys implements the page allocator the runtime interface
// (§6) expects the host to provide: regions that are both a power of two
// in size and aligned to that same power of two, so that given any
// interior slot address the owning pool is recovered by masking off the
// low bits. The real Go runtime's mmap.go does this through a dedicated
// assembly trampoline; we do it through golang.org/x/sys/unix, which is
// the ecosystem's equivalent entry point for the same syscall.
package memsys

import "fmt"

// Region is an aligned, OS-backed memory region returned by Alloc. Bytes
// is the live slice view; Base is its first byte's address, always a
// multiple of 1<<LogSize.
type Region struct {
	Bytes   []byte
	Base    uintptr
	LogSize uint

	raw []byte // the over-mapped region backing Bytes, for Free
}

// Size returns the region's size in bytes, 1<<LogSize.
func (r *Region) Size() uintptr { return uintptr(1) << r.LogSize }

// BaseMask returns the bitmask that, ANDed with any address inside the
// region, recovers r.Base. Equivalent to ^(r.Size() - 1).
func (r *Region) BaseMask() uintptr { return ^(r.Size() - 1) }

var errUnsupportedLogSize = fmt.Errorf("memsys: logSize must be between 12 and 32")

func validateLogSize(logSize uint) error {
	if logSize < 12 || logSize > 32 {
		return errUnsupportedLogSize
	}
	return nil
}
