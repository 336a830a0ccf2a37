//go:build alloc_realloc

package adapter

import "unsafe"

// Realloc grows or shrinks a previously returned block. It panics if the chosen Kind's Variant
// doesn't implement Reallocator, which would only happen if a new Kind were added to this
// package without a matching realloc_on.go in its own package — a programming error, not a
// runtime condition callers need to handle.
func (g *Global) Realloc(ptr unsafe.Pointer, oldSize, align, newSize uintptr) unsafe.Pointer {
	g.init()
	return g.variant.(Reallocator).Realloc(ptr, oldSize, align, newSize)
}
