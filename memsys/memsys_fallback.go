//go:build !linux && !darwin

package memsys

// Alloc obtains a region of 1<<logSize bytes aligned to that same size by
// over-allocating from the Go heap and trimming to the aligned subslice.
// This loses the OS-level unmap path mmap gives us on linux/darwin — the
// trimmed-off head and tail stay referenced by the runtime's GC until the
// whole backing array is freed — so it is a fallback for platforms
// golang.org/x/sys/unix's mmap does not cover, not the default strategy.
func Alloc(logSize uint) (*Region, error) {
	if err := validateLogSize(logSize); err != nil {
		return nil, err
	}
	size := uintptr(1) << logSize

	raw := make([]byte, 2*size)
	base := alignUp(addrOf(raw), size)
	offset := base - addrOf(raw)
	aligned := raw[offset : offset+size]

	return &Region{
		Bytes:   aligned,
		Base:    base,
		LogSize: logSize,
		raw:     raw,
	}, nil
}

// Free drops the region's references so the Go GC can reclaim the
// backing array; there is no OS call to make on this path.
func Free(r *Region) error {
	if r == nil {
		return nil
	}
	r.raw = nil
	r.Bytes = nil
	return nil
}
