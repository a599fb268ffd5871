package bootsector_test

import (
	"testing"

	"github.com/onefatfs/onefat/bootsector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewComputesGeometry(t *testing.T) {
	bs, err := bootsector.New(1_000_000)
	require.NoError(t, err)

	assert.EqualValues(t, 1, bs.FATCount)
	assert.EqualValues(t, bootsector.Size, bs.FAT1StartAddress)
	assert.Greater(t, bs.ClusterCount, uint32(0))

	expectedDataStart := bs.FAT1StartAddress + bs.FATCount*4*bs.ClusterCount + bs.PaddingSize
	assert.Equal(t, expectedDataStart, bs.DataStartAddress)
}

func TestNewRejectsTooSmallDisk(t *testing.T) {
	_, err := bootsector.New(10)
	assert.Error(t, err)
}

func TestBytesFromBytesRoundTrip(t *testing.T) {
	bs, err := bootsector.New(2_000_000)
	require.NoError(t, err)

	data, err := bs.Bytes()
	require.NoError(t, err)
	assert.Len(t, data, bootsector.Size)

	restored, err := bootsector.FromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, bs, restored)
}

func TestFromBytesRejectsBadSignature(t *testing.T) {
	bs, err := bootsector.New(1_000_000)
	require.NoError(t, err)

	data, err := bs.Bytes()
	require.NoError(t, err)
	data[0] ^= 0xFF

	_, err = bootsector.FromBytes(data)
	assert.Error(t, err)
}

func TestClusterOffsetAdvancesByClusterSize(t *testing.T) {
	bs, err := bootsector.New(1_000_000)
	require.NoError(t, err)

	first := bs.ClusterOffset(0)
	second := bs.ClusterOffset(1)
	assert.Equal(t, int64(bs.ClusterSize), second-first)
	assert.Equal(t, bs.DataOffset(), first)
}
