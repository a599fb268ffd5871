package fileio_test

import (
	"testing"

	"github.com/onefatfs/onefat"
	"github.com/onefatfs/onefat/bootsector"
	"github.com/onefatfs/onefat/fileio"
	fixtures "github.com/onefatfs/onefat/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIO(t *testing.T) (*fileio.IO, *bootsector.BootSector) {
	t.Helper()
	bs, err := bootsector.New(2_000_000)
	require.NoError(t, err)

	img := fixtures.NewMemoryImage(t, int(bs.DiskSize))
	header, err := bs.Bytes()
	require.NoError(t, err)
	require.NoError(t, img.WriteExact(0, header))

	return fileio.New(img, bs), bs
}

func TestWriteReadFileRoundTrip(t *testing.T) {
	io, _ := newIO(t)

	payload := make([]byte, onefat.ClusterSize+37)
	for i := range payload {
		payload[i] = byte(i)
	}

	clusters := []uint32{0, 1}
	require.NoError(t, io.WriteFile(clusters, payload))

	got, err := io.ReadFile(clusters, int64(len(payload)))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestWriteFileExactMultipleOfClusterSize(t *testing.T) {
	io, _ := newIO(t)

	payload := make([]byte, onefat.ClusterSize*2)
	for i := range payload {
		payload[i] = 0xAB
	}

	clusters := []uint32{0, 1}
	require.NoError(t, io.WriteFile(clusters, payload))

	got, err := io.ReadFile(clusters, int64(len(payload)))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestWriteFileEmptyBufferIsNoop(t *testing.T) {
	io, _ := newIO(t)
	assert.NoError(t, io.WriteFile([]uint32{0}, nil))
}

func TestReadFileZeroSize(t *testing.T) {
	io, _ := newIO(t)
	got, err := io.ReadFile([]uint32{0}, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
