// Package adapter exposes the three allocator variants behind one process-wide interface, the
// shape a language runtime actually binds its allocation intrinsics to (component design §4.6):
// a single chosen Kind, constructed lazily on first use and then held for the process lifetime.
package adapter

import (
	"sync"
	"unsafe"

	"golang.org/x/exp/slog"

	"github.com/tinyrt/memalloc/bumpfreelist"
	"github.com/tinyrt/memalloc/coalescing"
	"github.com/tinyrt/memalloc/host"
	"github.com/tinyrt/memalloc/segbump"
)

// Kind selects which allocator variant a Global constructs.
type Kind int

const (
	BumpFreeList Kind = iota
	SegregatedBump
	CoalescingFreeList
)

func (k Kind) String() string {
	switch k {
	case BumpFreeList:
		return "bump-freelist"
	case SegregatedBump:
		return "segregated-bump"
	case CoalescingFreeList:
		return "coalescing-freelist"
	default:
		return "unknown"
	}
}

// Variant is the common surface all three allocators satisfy. It intentionally excludes
// Realloc: that operation is only present in alloc_realloc builds, and is reached through the
// Reallocator interface instead so Variant stays satisfiable by every build configuration.
type Variant interface {
	Alloc(size, align uintptr) unsafe.Pointer
	Dealloc(ptr unsafe.Pointer, size, align uintptr)
	Validate() error
}

// Reallocator is implemented by a Variant only when it was built with the alloc_realloc tag.
// Global.Realloc type-asserts against this rather than assuming every build exposes it.
type Reallocator interface {
	Realloc(ptr unsafe.Pointer, oldSize, align, newSize uintptr) unsafe.Pointer
}

// Global is the process-wide allocator a runtime's alloc/dealloc/realloc intrinsics bind to
// directly. It constructs its chosen Variant lazily, once, on first use.
//
// Global is NOT safe for concurrent use. Every Variant it can hold is a single-threaded
// structure by design (component design §1) — callers in a multi-threaded host are responsible
// for their own external synchronization (a mutex around every call, or one Global per thread).
// Wrapping Global in a mutex here would be cheap to add but dishonest to advertise as "thread
// safe": the underlying allocators were never designed or tested under contention, and a mutex
// alone doesn't make first-fit search, bump-cursor advancement, or free-list splicing behave
// correctly if a second caller observes a Global mid-mutation through some other channel (e.g.
// a signal handler). sync.Once below guards only the one-time construction race, not ongoing
// calls.
type Global struct {
	kind   Kind
	mem    host.Memory
	logger *slog.Logger

	once    sync.Once
	variant Variant
}

// NewGlobal returns a Global that will construct a kind-variant allocator over mem the first
// time Alloc, Dealloc, Realloc, or Validate is called.
func NewGlobal(kind Kind, mem host.Memory, logger *slog.Logger) *Global {
	return &Global{kind: kind, mem: mem, logger: logger}
}

func (g *Global) init() {
	g.once.Do(func() {
		switch g.kind {
		case SegregatedBump:
			g.variant = segbump.New(g.mem, g.logger)
		case CoalescingFreeList:
			g.variant = coalescing.New(g.mem, g.logger)
		default:
			g.variant = bumpfreelist.New(g.mem, g.logger)
		}
	})
}

// Alloc satisfies the request using the variant this Global was constructed for.
func (g *Global) Alloc(size, align uintptr) unsafe.Pointer {
	g.init()
	return g.variant.Alloc(size, align)
}

// Dealloc returns a block previously returned by Alloc on this Global.
func (g *Global) Dealloc(ptr unsafe.Pointer, size, align uintptr) {
	g.init()
	g.variant.Dealloc(ptr, size, align)
}

// Validate runs the chosen variant's internal consistency check. It's a test and debugging aid,
// not something a runtime calls on its hot path.
func (g *Global) Validate() error {
	g.init()
	return g.variant.Validate()
}

// Kind reports which variant this Global was constructed for.
func (g *Global) Kind() Kind {
	return g.kind
}
