//go:build alloc_debug

// Package allocutil's debug build exchanges allocation throughput for the ability to catch
// caller contract violations (§7 of the design doc: double free, dealloc of a pointer the
// allocator never returned) instead of silently corrupting the heap.
package allocutil

import (
	"github.com/dolthub/swiss"
)

// freedMarker is stored in place of a size once a pointer has been deallocated, so a second
// dealloc of the same pointer can be told apart from one that was never allocated at all.
const freedMarker = ^uintptr(0)

// Ledger tracks the (pointer, size) of every allocation handed out by a variant, keeping
// freed entries around as tombstones. It exists only to make the alloc_debug build able to
// catch caller contract violations; it is never consulted on the production Alloc/Dealloc
// fast path.
type Ledger struct {
	entries *swiss.Map[uintptr, uintptr]
}

// NewLedger constructs an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: swiss.NewMap[uintptr, uintptr](64)}
}

// DebugTrackAlloc records that ptr is now a live allocation of size bytes.
func DebugTrackAlloc(l *Ledger, ptr, size uintptr) {
	if l == nil {
		return
	}
	l.entries.Put(ptr, size)
}

// DebugCheckDealloc panics with ErrUnknownPointer if ptr was never tracked, or ErrDoubleFree if
// it has already been freed, then marks it freed.
func DebugCheckDealloc(l *Ledger, ptr uintptr) {
	if l == nil {
		return
	}
	size, ok := l.entries.Get(ptr)
	if !ok {
		panic(ErrUnknownPointer)
	}
	if size == freedMarker {
		panic(ErrDoubleFree)
	}
	l.entries.Put(ptr, freedMarker)
}

func debugValidate(v Validatable) {
	if err := v.Validate(); err != nil {
		panic(err)
	}
}
