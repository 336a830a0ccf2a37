//go:build alloc_realloc

package bumpfreelist_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tinyrt/memalloc/bumpfreelist"
	"github.com/tinyrt/memalloc/host"
)

func TestReallocGrowsInPlaceAtBumpTop(t *testing.T) {
	mem := host.NewMemory(64*1024, 1<<20, nil)
	a := bumpfreelist.New(mem, nil)

	p := a.Alloc(32, 16)
	require.NotNil(t, p)

	grown := a.Realloc(p, 32, 16, 64)
	require.Equal(t, p, grown, "growing the most recently bumped block should be in place")
}

func TestReallocMovesWhenNotAtTop(t *testing.T) {
	mem := host.NewMemory(64*1024, 1<<20, nil)
	a := bumpfreelist.New(mem, nil)

	p1 := a.Alloc(32, 16)
	p2 := a.Alloc(32, 16)
	require.NotNil(t, p1)
	require.NotNil(t, p2)

	grown := a.Realloc(p1, 32, 16, 64)
	require.NotEqual(t, p1, grown, "p1 is no longer at the bump top, so it must move")
}

func TestReallocShrinkKeepsSamePointer(t *testing.T) {
	mem := host.NewMemory(64*1024, 1<<20, nil)
	a := bumpfreelist.New(mem, nil)

	p := a.Alloc(64, 16)
	require.NotNil(t, p)

	shrunk := a.Realloc(p, 64, 16, 16)
	require.Equal(t, p, shrunk)
}
