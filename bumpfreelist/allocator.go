// Package bumpfreelist implements a monotonic bump-pointer allocator augmented with an
// unsorted, LIFO reuse list: the smallest-footprint of the three variants, at the cost of
// worst-case O(N) reuse and no coalescing (component design §4.3).
package bumpfreelist

import (
	"context"
	"io"
	"unsafe"

	"golang.org/x/exp/slog"

	"github.com/tinyrt/memalloc/host"
	"github.com/tinyrt/memalloc/internal/allocutil"
)

// minBlock is the smallest span a freed block can be threaded through the reuse list with: one
// pointer field (next) and one size field, both word-sized.
const minBlock = 2 * unsafe.Sizeof(uintptr(0))

// node is the intrusive header written into the first minBlock bytes of a freed block's own
// payload. It is never present in live allocations — only in bytes currently on the reuse list.
type node struct {
	next *node
	size uintptr
}

// Allocator is the BumpFreeListAllocator of the design doc: a bump cursor over a host.Region,
// backed by an unsorted singly linked reuse list threaded through freed payloads (I5, I6).
//
// Allocator is not safe for concurrent use; see the package-level contract in adapter.Global.
type Allocator struct {
	region *host.Region
	logger *slog.Logger
	free   *node
	ledger *allocutil.Ledger
}

// New constructs a BumpFreeListAllocator over mem. No memory is acquired until the first Alloc.
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

// roundUp brings size up to the granularity the reuse list is managed at: a multiple of
// minBlock, and at least minBlock so every freed block can hold a node header.
func roundUp(size uintptr) uintptr {
	if size < minBlock {
		size = minBlock
	}
	return allocutil.AlignUp(size, minBlock)
}

// Alloc satisfies a (size, align) request: §4.3 step 1, scan the reuse list head-to-tail for
// the first entry whose aligned payload is big enough; step 2 on a miss, bump.
func (a *Allocator) Alloc(size, align uintptr) unsafe.Pointer {
	if err := allocutil.CheckPow2(align, "align"); err != nil {
		return nil
	}
	size = roundUp(size)

	var prev *node
	for n := a.free; n != nil; n = n.next {
		addr := uintptr(unsafe.Pointer(n))
		aligned := allocutil.AlignUp(addr, align)
		if allocutil.AddOverflows(aligned, size) {
			prev = n
			continue
		}
		// Bytes skipped by alignment and any trailing slack are discarded, not re-inserted —
		// this is what keeps the variant unsorted and small-code (§4.3).
		if aligned+size <= addr+n.size {
			if prev == nil {
				a.free = n.next
			} else {
				prev.next = n.next
			}
			allocutil.DebugTrackAlloc(a.ledger, aligned, size)
			return unsafe.Pointer(aligned)
		}
		prev = n
	}

	ptr, ok := a.region.Bump(size, align)
	if !ok {
		return nil
	}
	allocutil.DebugTrackAlloc(a.ledger, uintptr(ptr), size)
	return ptr
}

// Dealloc pushes the block onto the reuse list head, per §4.3. Behavior is undefined if
// (size, align) doesn't match the original successful Alloc call, or ptr isn't currently live —
// in an alloc_debug build, a ptr that isn't live (double free or never allocated) is caught and
// turned into a panic; a mismatched (size, align) is not checked.
func (a *Allocator) Dealloc(ptr unsafe.Pointer, size, align uintptr) {
	if ptr == nil {
		return
	}
	allocutil.DebugCheckDealloc(a.ledger, uintptr(ptr))
	a.pushFree(uintptr(ptr), roundUp(size))

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "freed block pushed to reuse list",
		slog.Uint64("size", uint64(size)))
}

// pushFree threads a block directly onto the reuse list head without the debug ledger check
// Dealloc performs — used for internal splits (Realloc's shrink path) where the block being
// freed was never itself the subject of a successful Alloc call.
func (a *Allocator) pushFree(addr, size uintptr) {
	n := (*node)(unsafe.Pointer(addr))
	n.next = a.free
	n.size = size
	a.free = n
}

// Validate checks invariants I5/I6: nothing in the free list overlaps the unbumped tail, and
// every entry is at least minBlock wide. It's a test-only correctness aid (§8), not a runtime
// feature.
func (a *Allocator) Validate() error {
	top := a.region.Top()
	for n := a.free; n != nil; n = n.next {
		addr := uintptr(unsafe.Pointer(n))
		if addr+n.size > top {
			return allocutil.Errorf("reuse list entry at %#x extends past the bump cursor", addr)
		}
		if n.size < minBlock {
			return allocutil.Errorf("reuse list entry at %#x is smaller than the minimum block size", addr)
		}
	}
	return nil
}
