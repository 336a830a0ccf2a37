// Package host models the growth primitive a language runtime's linear memory (a WebAssembly
// module's memory, or a statically reserved embedded heap) exposes to an allocator: a
// contiguous byte window that can only ever be extended, never shrunk or moved.
package host

import (
	"context"
	"unsafe"

	cerrors "github.com/cockroachdb/errors"
	"golang.org/x/exp/slog"

	"github.com/tinyrt/memalloc/internal/allocutil"
)

// PageSize is the WebAssembly linear memory page size in bytes. Embedded targets that reserve
// a static heap up front may use any PageSize they like via NewMemory.
const PageSize = 65536

// Memory is the one-way growth primitive every allocator variant is built on top of. A Memory
// implementation owns a single contiguous byte window; Grow is the only way that window's size
// ever changes, and it only ever gets bigger.
type Memory interface {
	// CurrentBounds returns the window currently owned, as [base, end).
	CurrentBounds() (base, end uintptr)
	// Grow extends end by whole pages sufficient to cover minBytes additional bytes beyond the
	// current end, and returns the new end. base and any bytes already in [base, end) are
	// unaffected. Returns an error, leaving the window unchanged, if the request cannot be
	// satisfied.
	Grow(minBytes uintptr) (newEnd uintptr, err error)
	// PageSize returns the granularity Grow extends the window by.
	PageSize() uintptr
}

// GrowableMemory is the default Memory implementation: it pre-reserves a single Go byte slice
// up to maxBytes (modeling the address space a WASM instance or embedded target is willing to
// dedicate to the heap) and exposes a logical end that advances page by page within it. Because
// the backing array is allocated once at construction and never reallocated, growth never moves
// base or any previously handed-out address — the same guarantee a real linear-memory grow
// instruction gives.
type GrowableMemory struct {
	logger   *slog.Logger
	arena    []byte
	base     uintptr
	end      uintptr
	capacity uintptr
	pageSize uintptr
}

var _ Memory = (*GrowableMemory)(nil)

// NewMemory reserves maxBytes of address space (rounded up to a whole number of pages) and
// returns a Memory that grows into it page by page. logger may be nil, in which case growth
// events are not logged.
func NewMemory(pageSize, maxBytes uintptr, logger *slog.Logger) *GrowableMemory {
	if pageSize == 0 {
		pageSize = PageSize
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(discard{}))
	}
	capacity := allocutil.AlignUp(maxBytes, pageSize)
	arena := make([]byte, capacity)
	var base uintptr
	if capacity > 0 {
		base = uintptr(unsafe.Pointer(&arena[0]))
	}
	return &GrowableMemory{
		logger:   logger,
		arena:    arena,
		base:     base,
		end:      base,
		capacity: capacity,
		pageSize: pageSize,
	}
}

// CurrentBounds returns the window currently owned, as [base, end).
func (m *GrowableMemory) CurrentBounds() (base, end uintptr) {
	return m.base, m.end
}

// PageSize returns the granularity Grow extends the window by.
func (m *GrowableMemory) PageSize() uintptr {
	return m.pageSize
}

// Grow extends end by whole pages sufficient to cover minBytes additional bytes, never beyond
// the reservation made at construction. It logs at Debug on success and Warn on exhaustion.
func (m *GrowableMemory) Grow(minBytes uintptr) (uintptr, error) {
	pages := (minBytes + m.pageSize - 1) / m.pageSize
	if pages == 0 {
		pages = 1
	}
	grown := pages * m.pageSize
	if allocutil.AddOverflows(m.end, grown) {
		return 0, cerrors.Wrap(allocutil.ErrSizeOverflow, "growth request overflows address space")
	}
	newEnd := m.end + grown
	if newEnd-m.base > m.capacity {
		m.logger.LogAttrs(context.Background(), slog.LevelWarn, "host memory capacity exhausted",
			slog.Uint64("requested_bytes", uint64(minBytes)),
			slog.Uint64("capacity_bytes", uint64(m.capacity)))
		return 0, cerrors.Wrapf(allocutil.ErrCapacityExhausted, "requested %d bytes beyond %d byte reservation", minBytes, m.capacity)
	}
	m.end = newEnd
	m.logger.LogAttrs(context.Background(), slog.LevelDebug, "host memory grown",
		slog.Uint64("pages", uint64(pages)),
		slog.Uint64("new_end", uint64(m.end)))
	return m.end, nil
}

// discard is an io.Writer that drops everything written to it, used as the default slog sink
// when a caller doesn't want allocator boundary logs.
type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
