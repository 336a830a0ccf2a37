//go:build alloc_realloc

package adapter_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tinyrt/memalloc/adapter"
	"github.com/tinyrt/memalloc/host"
)

func TestGlobalRealloc(t *testing.T) {
	for _, kind := range []adapter.Kind{adapter.BumpFreeList, adapter.SegregatedBump, adapter.CoalescingFreeList} {
		mem := host.NewMemory(64*1024, 4<<20, nil)
		g := adapter.NewGlobal(kind, mem, nil)

		p := g.Alloc(16, 8)
		require.NotNil(t, p)
		grown := g.Realloc(p, 16, 8, 64)
		require.NotNil(t, grown)
	}
}
