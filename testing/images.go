// Package testing provides in-memory image fixtures for onefat's package
// tests, adapted from the teacher's LoadDiskImage helper (which decompressed
// a fixture image into a bytesextra.ReadWriteSeeker for disko's own tests)
// into a fixed-size, zero-filled backing store for this module's engine.
package testing

import (
	"crypto/rand"
	"io"
	"sync"
	"testing"

	"github.com/onefatfs/onefat/image"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

// seekerBacking adapts an io.ReadWriteSeeker (bytesextra's in-memory
// implementation) to image.Backing by serializing access through a mutex
// and translating positioned reads/writes into seek-then-read/write pairs.
// Truncate records the requested size but never resizes the buffer, which
// is all onefat's own format/create path needs once a fixture has been
// sized for the test's disk image up front.
type seekerBacking struct {
	mu   sync.Mutex
	rws  io.ReadWriteSeeker
	size int64
}

func (b *seekerBacking) ReadAt(p []byte, off int64) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.rws.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return io.ReadFull(b.rws, p)
}

func (b *seekerBacking) WriteAt(p []byte, off int64) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.rws.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return b.rws.Write(p)
}

// Truncate is a no-op as long as size matches the fixture's preallocated
// capacity; onefat's format path always truncates to the geometry-derived
// disk size immediately after computing it from the same size the fixture
// was created with.
func (b *seekerBacking) Truncate(size int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.size = size
	return nil
}

func (b *seekerBacking) Sync() error { return nil }
func (b *seekerBacking) Close() error { return nil }

// NewMemoryImage returns an *image.Image backed by a zero-filled, in-memory
// buffer of exactly size bytes, for use as a format/create target in tests
// that never touch the host filesystem.
func NewMemoryImage(t *testing.T, size int) *image.Image {
	t.Helper()
	require.Greater(t, size, 0, "fixture image size must be positive")

	buf := make([]byte, size)
	rws := bytesextra.NewReadWriteSeeker(buf)
	return image.New(&seekerBacking{rws: rws, size: int64(size)})
}

// RandomBytes returns n random bytes, for building incp/cp fixture payloads
// whose exact content doesn't matter, adapted from the teacher's
// CreateRandomImage helper.
func RandomBytes(t *testing.T, n int) []byte {
	t.Helper()
	buf := make([]byte, n)
	_, err := rand.Read(buf)
	require.NoError(t, err, "failed to generate %d random bytes", n)
	return buf
}
