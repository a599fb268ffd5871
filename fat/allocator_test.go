package fat_test

import (
	"testing"

	"github.com/onefatfs/onefat"
	"github.com/onefatfs/onefat/fat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreeClustersPrefersLowestIndices(t *testing.T) {
	table, _ := newTable(t)
	alloc, err := fat.NewAllocator(table)
	require.NoError(t, err)

	got, err := alloc.FreeClusters(3, false)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 2}, got)
}

func TestFreeClustersContiguousSkipsGaps(t *testing.T) {
	table, _ := newTable(t)
	// Allocate cluster 1 so it's no longer free, breaking the 0..N run.
	require.NoError(t, table.WriteLabel(1, onefat.FATFileEnd))

	alloc, err := fat.NewAllocator(table)
	require.NoError(t, err)

	got, err := alloc.FreeClusters(2, true)
	require.NoError(t, err)
	assert.Equal(t, []uint32{2, 3}, got)
}

func TestFreeClustersOutOfSpace(t *testing.T) {
	table, bs := newTable(t)
	// Consume every cluster.
	for i := uint32(0); i < bs.ClusterCount; i++ {
		require.NoError(t, table.WriteLabel(i, onefat.FATFileEnd))
	}

	alloc, err := fat.NewAllocator(table)
	require.NoError(t, err)

	_, err = alloc.FreeClusters(1, false)
	assert.Error(t, err)
}

func TestMakeChainAndChainFrom(t *testing.T) {
	table, _ := newTable(t)
	alloc, err := fat.NewAllocator(table)
	require.NoError(t, err)

	clusters := []uint32{0, 1, 2}
	require.NoError(t, alloc.MakeChain(clusters))

	chain, err := alloc.ChainFrom(0, onefat.ClusterSize*2+1)
	require.NoError(t, err)
	assert.Equal(t, clusters, chain)
}

func TestChainFromDetectsEarlyTermination(t *testing.T) {
	table, _ := newTable(t)
	alloc, err := fat.NewAllocator(table)
	require.NoError(t, err)

	require.NoError(t, table.WriteLabel(0, onefat.FATFileEnd))

	_, err = alloc.ChainFrom(0, onefat.ClusterSize*2)
	assert.Error(t, err)
}

func TestLabelChainFreesClusters(t *testing.T) {
	table, _ := newTable(t)
	alloc, err := fat.NewAllocator(table)
	require.NoError(t, err)

	clusters := []uint32{0, 1}
	require.NoError(t, alloc.MakeChain(clusters))
	require.NoError(t, alloc.LabelChain(clusters, onefat.FATUnused))

	got, err := alloc.FreeClusters(2, false)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1}, got)
}
