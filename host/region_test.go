package host_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/tinyrt/memalloc/host"
)

var errGrowRefused = errors.New("fake memory: growth refused")

func TestRegionBumpAlignsAndAdvancesTop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mem := newFakeMemory(64, 4096)
	r := host.NewRegion(mem, nil)

	p1, ok := r.Bump(8, 8)
	require.True(t, ok)
	require.NotNil(t, p1)
	require.Zero(t, uintptr(p1)%8)

	p2, ok := r.Bump(8, 16)
	require.True(t, ok)
	require.Zero(t, uintptr(p2)%16)
	require.Greater(t, uintptr(p2), uintptr(p1))
}

func TestRegionBumpGrowsHostMemoryOnDemand(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mem := newFakeMemory(64, 4096)
	r := host.NewRegion(mem, nil)

	p, ok := r.Bump(100, 8)
	require.True(t, ok)
	require.NotNil(t, p)
	require.Equal(t, 1, mem.growCalls)
}

func TestRegionBumpFailsWhenGrowthRefused(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mem := newFakeMemory(64, 64)
	mem.failGrowAt = 1
	r := host.NewRegion(mem, nil)

	p, ok := r.Bump(1000, 8)
	require.False(t, ok)
	require.Nil(t, p)
}

func TestRegionTopNeverRewinds(t *testing.T) {
	mem := newFakeMemory(64, 4096)
	r := host.NewRegion(mem, nil)

	_, ok := r.Bump(16, 8)
	require.True(t, ok)
	top1 := r.Top()

	_, ok = r.Bump(16, 8)
	require.True(t, ok)
	top2 := r.Top()

	require.GreaterOrEqual(t, top2, top1)
}

func TestRegionBumpRejectsNonPowerOfTwoAlign(t *testing.T) {
	mem := newFakeMemory(64, 4096)
	r := host.NewRegion(mem, nil)

	p, ok := r.Bump(16, 3)
	require.False(t, ok)
	require.Nil(t, p)
}
