package host

import (
	"context"
	"unsafe"

	"golang.org/x/exp/slog"

	"github.com/tinyrt/memalloc/internal/allocutil"
)

// Region is the contiguous byte window [base, end) an allocator variant currently owns, plus
// the bump cursor top that marks the first never-allocated byte. top only ever advances; it is
// never rewound, even when the most recently bumped allocation is freed — a freed bump
// allocation is handed to a reuse structure instead, never subtracted back out of top.
type Region struct {
	mem    Memory
	logger *slog.Logger
	top    uintptr
}

// NewRegion wraps mem in a Region with an empty (top == base == end) bump cursor. No memory is
// acquired from mem until the first Bump call that needs it.
func NewRegion(mem Memory, logger *slog.Logger) *Region {
	base, _ := mem.CurrentBounds()
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(discard{}))
	}
	return &Region{mem: mem, logger: logger, top: base}
}

// Bounds returns the window currently owned by the underlying Memory.
func (r *Region) Bounds() (base, end uintptr) {
	return r.mem.CurrentBounds()
}

// Top returns the bump cursor: the first never-allocated byte.
func (r *Region) Top() uintptr {
	return r.top
}

// Bump implements the aligned-bump primitive shared by all three allocator variants (component
// design §4.2): round top up to align, reserve size bytes starting there, growing the
// underlying Memory at most once if the region doesn't currently reach far enough. Returns
// (nil, false) if align isn't a power of two, the request overflows the address space, or
// growth fails.
func (r *Region) Bump(size, align uintptr) (unsafe.Pointer, bool) {
	if err := allocutil.CheckPow2(align, "align"); err != nil {
		return nil, false
	}

	start := allocutil.AlignUp(r.top, align)
	if allocutil.AddOverflows(start, size) {
		return nil, false
	}
	newTop := start + size

	_, end := r.mem.CurrentBounds()
	if newTop > end {
		grown, err := r.mem.Grow(newTop - end)
		if err != nil {
			r.logger.LogAttrs(context.Background(), slog.LevelWarn, "bump allocation failed: growth refused",
				slog.Uint64("requested_size", uint64(size)))
			return nil, false
		}
		end = grown
		// Grow never moves base or top, so start and newTop come out the same as above; the check
		// below confirms the grown window actually reaches newTop.
		start = allocutil.AlignUp(r.top, align)
		newTop = start + size
		if newTop > end {
			return nil, false
		}
	}

	r.top = newTop
	return unsafe.Pointer(start), true //nolint:govet // start is a valid address inside mem's arena
}
