// Package segbump implements a segregated-bin allocator: a small fixed set of size classes,
// each backed by its own LIFO reuse list, with a direct bump fallback for anything too big or
// too strictly aligned to fit a class (component design §4.4).
package segbump

import (
	"context"
	"io"
	"unsafe"

	"golang.org/x/exp/slog"

	"github.com/tinyrt/memalloc/host"
	"github.com/tinyrt/memalloc/internal/allocutil"
)

// classes are the fixed size-class boundaries (I7). Each is a power of two, so a block bumped
// aligned to its own class size is automatically aligned to every align value this package will
// ever route into that class.
var classes = [...]uintptr{16, 32, 64, 128}

// node is the intrusive header threaded through a freed block's own payload while it sits on a
// bin's reuse list. It only ever occupies the first pointer-sized word, so it fits even the
// smallest (16-byte) class.
type node struct {
	next *node
}

// Allocator is the SegregatedBumpAllocator of the design doc: one LIFO bin per size class, plus
// a bump cursor shared by every class and by large objects that don't fit any of them.
//
// Allocator is not safe for concurrent use; see the package-level contract in adapter.Global.
type Allocator struct {
	region *host.Region
	logger *slog.Logger
	bins   [len(classes)]*node
	ledger *allocutil.Ledger
}

// New constructs a SegregatedBumpAllocator over mem. No memory is acquired until the first Alloc.
func New(mem host.Memory, logger *slog.Logger) *Allocator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard))
	}
	return &Allocator{
		region: host.NewRegion(mem, logger),
		logger: logger,
		ledger: allocutil.NewLedger(),
	}
}

// classFor returns the index of the smallest class that can hold size bytes aligned to align,
// and ok=true. ok is false when no fixed class is big enough (size) or strict enough (align) —
// the request is a large object and must bypass the bins entirely (I8).
func classFor(size, align uintptr) (idx int, ok bool) {
	for i, c := range classes {
		if c >= size && c >= align {
			return i, true
		}
	}
	return 0, false
}

// Alloc satisfies a (size, align) request. Requests that fit a size class are served LIFO from
// that class's bin, falling back to a class-sized bump on a miss (§4.4 step 1); requests too
// large or too strictly aligned for any class are bumped directly at their own size and
// alignment as a large object (§4.4 step 2, I8).
func (a *Allocator) Alloc(size, align uintptr) unsafe.Pointer {
	if err := allocutil.CheckPow2(align, "align"); err != nil {
		return nil
	}

	idx, ok := classFor(size, align)
	if !ok {
		ptr, grew := a.region.Bump(size, align)
		if !grew {
			return nil
		}
		allocutil.DebugTrackAlloc(a.ledger, uintptr(ptr), size)
		return ptr
	}

	class := classes[idx]
	if n := a.bins[idx]; n != nil {
		a.bins[idx] = n.next
		allocutil.DebugTrackAlloc(a.ledger, uintptr(unsafe.Pointer(n)), class)
		return unsafe.Pointer(n)
	}

	ptr, grew := a.region.Bump(class, class)
	if !grew {
		return nil
	}
	allocutil.DebugTrackAlloc(a.ledger, uintptr(ptr), class)
	return ptr
}

// Dealloc returns the block to its class's bin, or silently discards it if it was a large object
// — large objects never get a slot to reuse in this variant, by design (I8); the bytes remain
// reserved until the allocator itself is dropped.
func (a *Allocator) Dealloc(ptr unsafe.Pointer, size, align uintptr) {
	if ptr == nil {
		return
	}
	allocutil.DebugCheckDealloc(a.ledger, uintptr(ptr))

	idx, ok := classFor(size, align)
	if !ok {
		a.logger.LogAttrs(context.Background(), slog.LevelDebug, "large object freed; bytes leaked until reset",
			slog.Uint64("size", uint64(size)))
		return
	}
	a.pushBin(idx, uintptr(ptr))
}

// pushBin threads a block directly onto a bin's head. It performs no debug ledger check of its
// own; Dealloc, its only caller, runs that check before calling it.
func (a *Allocator) pushBin(idx int, addr uintptr) {
	n := (*node)(unsafe.Pointer(addr))
	n.next = a.bins[idx]
	a.bins[idx] = n
}

// Validate checks I7/I8: every bin entry lies within a class-sized slot below the bump cursor.
// It's a test-only correctness aid (§8), not a runtime feature.
func (a *Allocator) Validate() error {
	top := a.region.Top()
	for idx, class := range classes {
		for n := a.bins[idx]; n != nil; n = n.next {
			addr := uintptr(unsafe.Pointer(n))
			if addr+class > top {
				return allocutil.Errorf("bin %d entry at %#x extends past the bump cursor", idx, addr)
			}
		}
	}
	return nil
}
