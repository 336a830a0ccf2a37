package host_test

import (
	"unsafe"

	"github.com/tinyrt/memalloc/host"
)

// fakeMemory is a hand-written Memory double used to make growth-failure and growth-count
// assertions deterministic, in the same spirit as metadata.FakeGranularityCheck in the teacher
// package: a plain struct satisfying the interface, paired in tests with a gomock.Controller
// used only for its deferred cleanup.
type fakeMemory struct {
	arena      []byte
	base       uintptr
	end        uintptr
	pageSize   uintptr
	maxGrows   int
	growCalls  int
	failGrowAt int // 0 means never fail
}

var _ host.Memory = (*fakeMemory)(nil)

func newFakeMemory(pageSize, capacity uintptr) *fakeMemory {
	arena := make([]byte, capacity)
	var base uintptr
	if len(arena) > 0 {
		base = uintptr(unsafe.Pointer(&arena[0]))
	}
	return &fakeMemory{arena: arena, base: base, end: base, pageSize: pageSize}
}

func (m *fakeMemory) CurrentBounds() (uintptr, uintptr) { return m.base, m.end }
func (m *fakeMemory) PageSize() uintptr                 { return m.pageSize }

func (m *fakeMemory) Grow(minBytes uintptr) (uintptr, error) {
	m.growCalls++
	if m.failGrowAt != 0 && m.growCalls >= m.failGrowAt {
		return 0, errGrowRefused
	}
	pages := (minBytes + m.pageSize - 1) / m.pageSize
	if pages == 0 {
		pages = 1
	}
	grown := pages * m.pageSize
	if m.end-m.base+grown > uintptr(len(m.arena)) {
		return 0, errGrowRefused
	}
	m.end += grown
	return m.end, nil
}
