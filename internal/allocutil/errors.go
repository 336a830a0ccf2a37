package allocutil

import "github.com/pkg/errors"

// ErrNotPowerOfTwo is returned by CheckPow2 when an alignment value isn't a power of two.
var ErrNotPowerOfTwo error = errors.New("alignment must be a power of two")

// ErrCapacityExhausted is returned internally when HostMemory.Grow refuses to extend the region.
var ErrCapacityExhausted error = errors.New("host memory capacity exhausted")

// ErrSizeOverflow is returned internally when size plus alignment padding would overflow the address space.
var ErrSizeOverflow error = errors.New("requested size overflows address space")

// ErrUnknownPointer is the panic value (debug builds only) when Dealloc is asked to release a
// pointer the allocator never handed out.
var ErrUnknownPointer error = errors.New("dealloc of a pointer this allocator never returned")

// ErrDoubleFree is the panic value (debug builds only) when Dealloc is asked to release a pointer
// that is already on a free list or bin.
var ErrDoubleFree error = errors.New("double free detected")

// Errorf builds a formatted error for Validate methods across the allocator packages.
func Errorf(format string, args ...any) error {
	return errors.Errorf(format, args...)
}
