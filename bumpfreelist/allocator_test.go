package bumpfreelist_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tinyrt/memalloc/bumpfreelist"
	"github.com/tinyrt/memalloc/host"
)

func newAllocator(t *testing.T) *bumpfreelist.Allocator {
	t.Helper()
	mem := host.NewMemory(64*1024, 4<<20, nil)
	return bumpfreelist.New(mem, nil)
}

// TestBumpThenReuse is concrete scenario 1 from the design doc.
func TestBumpThenReuse(t *testing.T) {
	a := newAllocator(t)

	p1 := a.Alloc(32, 8)
	p2 := a.Alloc(32, 8)
	require.NotNil(t, p1)
	require.NotNil(t, p2)
	require.NotEqual(t, p1, p2)

	a.Dealloc(p1, 32, 8)
	p3 := a.Alloc(16, 8)

	require.Equal(t, p1, p3, "p3 should reuse p1's block rather than bump")
	require.NoError(t, a.Validate())
}

func TestAllocAlignment(t *testing.T) {
	a := newAllocator(t)

	for _, align := range []uintptr{8, 16, 32, 64} {
		p := a.Alloc(24, align)
		require.NotNil(t, p)
		require.Zero(t, uintptr(p)%align, "align=%d", align)
	}
}

func TestNonOverlappingAllocations(t *testing.T) {
	a := newAllocator(t)

	type span struct{ base, size uintptr }
	var spans []span
	for i := 0; i < 20; i++ {
		p := a.Alloc(40, 8)
		require.NotNil(t, p)
		spans = append(spans, span{uintptr(p), 48})
	}

	for i := range spans {
		for j := range spans {
			if i == j {
				continue
			}
			a, b := spans[i], spans[j]
			overlap := a.base < b.base+b.size && b.base < a.base+a.size
			require.False(t, overlap, "allocation %d overlaps %d", i, j)
		}
	}
}

func TestRoundTripFreeThenAllocSameSize(t *testing.T) {
	a := newAllocator(t)

	p1 := a.Alloc(64, 16)
	require.NotNil(t, p1)
	a.Dealloc(p1, 64, 16)
	p2 := a.Alloc(64, 16)
	require.NotNil(t, p2)
}

func TestDeallocNilIsNoop(t *testing.T) {
	a := newAllocator(t)
	a.Dealloc(nil, 16, 8)
	require.NoError(t, a.Validate())
}

func TestZeroSizeAllocReturnsUsableNonNilPointer(t *testing.T) {
	a := newAllocator(t)
	p := a.Alloc(0, 8)
	require.NotNil(t, p)
	require.Zero(t, uintptr(p)%8)
}
