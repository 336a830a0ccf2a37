// Package coalescing implements an address-ordered, first-fit free list that splits oversized
// blocks on allocation and merges adjacent free blocks back together on free — trading the
// other two variants' O(1) reuse for address-space efficiency under varied allocation sizes
// (component design §4.5).
package coalescing

import (
	"context"
	"io"
	"unsafe"

	"golang.org/x/exp/slog"

	"github.com/tinyrt/memalloc/host"
	"github.com/tinyrt/memalloc/internal/allocutil"
)

// minBlock is the smallest span a free node can occupy: one pointer field (next) and one size
// field, both word-sized. A split fragment smaller than this can't carry its own header, so it
// is absorbed as slack instead of threaded onto the free list.
const minBlock = 2 * unsafe.Sizeof(uintptr(0))

// node is the intrusive header written into the first minBlock bytes of a free block's own
// storage. The free list is kept sorted by the address of these nodes.
type node struct {
	next *node
	size uintptr
}

func addrOf(n *node) uintptr { return uintptr(unsafe.Pointer(n)) }

// Allocator is the CoalescingFreeListAllocator of the design doc: a first-fit, address-sorted
// free list over a host.Region, splitting on allocation and coalescing on free.
//
// Allocator is not safe for concurrent use; see the package-level contract in adapter.Global.
type Allocator struct {
	region *host.Region
	logger *slog.Logger
	free   *node
	ledger *allocutil.Ledger
}

// New constructs a CoalescingFreeListAllocator over mem. No memory is acquired until the first
// Alloc.
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

func roundUp(size uintptr) uintptr {
	if size < minBlock {
		size = minBlock
	}
	return allocutil.AlignUp(size, minBlock)
}

// Alloc satisfies a (size, align) request by walking the free list address-ascending for the
// first block the aligned payload fits in (§4.5 step 1), splitting off whatever doesn't get
// used; on a miss it bumps a fresh block, already aligned by construction (step 2).
func (a *Allocator) Alloc(size, align uintptr) unsafe.Pointer {
	if err := allocutil.CheckPow2(align, "align"); err != nil {
		return nil
	}
	size = roundUp(size)

	var prev *node
	for cur := a.free; cur != nil; cur = cur.next {
		addr := addrOf(cur)
		alignedStart := allocutil.AlignUp(addr, align)
		if !allocutil.AddOverflows(alignedStart, size) && alignedStart+size <= addr+cur.size {
			a.splitAndTake(prev, cur, addr, alignedStart, size)
			allocutil.DebugTrackAlloc(a.ledger, alignedStart, size)
			return unsafe.Pointer(alignedStart)
		}
		prev = cur
	}

	ptr, ok := a.region.Bump(size, align)
	if !ok {
		return nil
	}
	allocutil.DebugTrackAlloc(a.ledger, uintptr(ptr), size)
	return ptr
}

// splitAndTake removes cur from the free list, carving the [alignedStart, alignedStart+size)
// span out of it. Whatever remains on either side is kept as a free fragment if it's at least
// minBlock wide; a remainder smaller than that is absorbed as unreclaimable slack rather than
// risk corrupting the list with a header that doesn't fit.
func (a *Allocator) splitAndTake(prev, cur *node, addr, alignedStart, size uintptr) {
	blockEnd := addr + cur.size
	leadSize := alignedStart - addr
	trailSize := blockEnd - (alignedStart + size)

	var lead, trail *node
	if leadSize >= minBlock {
		lead = (*node)(unsafe.Pointer(addr))
		lead.size = leadSize
	}
	if trailSize >= minBlock {
		trail = (*node)(unsafe.Pointer(alignedStart + size))
		trail.size = trailSize
	}

	switch {
	case lead != nil && trail != nil:
		lead.next = trail
		trail.next = cur.next
	case lead != nil:
		lead.next = cur.next
	case trail != nil:
		trail.next = cur.next
	}

	var head *node
	switch {
	case lead != nil:
		head = lead
	case trail != nil:
		head = trail
	default:
		head = cur.next
	}
	if prev == nil {
		a.free = head
	} else {
		prev.next = head
	}
}

// Dealloc returns the block to the free list in address order, merging it with an immediately
// adjacent predecessor and/or successor (§4.5 step 3).
func (a *Allocator) Dealloc(ptr unsafe.Pointer, size, align uintptr) {
	if ptr == nil {
		return
	}
	allocutil.DebugCheckDealloc(a.ledger, uintptr(ptr))
	a.insertFree(uintptr(ptr), roundUp(size))

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "freed block inserted into free list",
		slog.Uint64("size", uint64(size)))
}

// insertFree walks the free list to find where addr belongs, then links it in, coalescing with
// a touching predecessor and/or successor so the list never carries two adjacent free blocks.
func (a *Allocator) insertFree(addr, size uintptr) {
	var prev *node
	cur := a.free
	for cur != nil && addrOf(cur) < addr {
		prev = cur
		cur = cur.next
	}

	if prev != nil && addrOf(prev)+prev.size == addr {
		prev.size += size
		if cur != nil && addrOf(prev)+prev.size == addrOf(cur) {
			prev.size += cur.size
			prev.next = cur.next
		}
		return
	}

	n := (*node)(unsafe.Pointer(addr))
	if cur != nil && addr+size == addrOf(cur) {
		n.size = size + cur.size
		n.next = cur.next
	} else {
		n.size = size
		n.next = cur
	}

	if prev == nil {
		a.free = n
	} else {
		prev.next = n
	}
}

// Validate checks that the free list is strictly address-ascending, no two entries touch
// (they would have been coalesced), and nothing extends past the bump cursor. It's a test-only
// correctness aid (§8), not a runtime feature.
func (a *Allocator) Validate() error {
	top := a.region.Top()
	var prev *node
	for cur := a.free; cur != nil; cur = cur.next {
		addr := addrOf(cur)
		if addr+cur.size > top {
			return allocutil.Errorf("free list entry at %#x extends past the bump cursor", addr)
		}
		if prev != nil {
			prevEnd := addrOf(prev) + prev.size
			if addr < prevEnd {
				return allocutil.Errorf("free list entry at %#x overlaps the previous entry", addr)
			}
			if addr == prevEnd {
				return allocutil.Errorf("adjacent free blocks at %#x were not coalesced", addr)
			}
		}
		prev = cur
	}
	return nil
}
