// Package image provides positioned, fixed-width I/O over the single
// backing file that holds a onefat disk image.
//
// Every other package in this module reaches the backing file exclusively
// through an *Image (DESIGN NOTES: "Duplicated seek/read helpers --
// centralise positioned I/O behind a single primitive"). No package seeks
// or reads the host file directly.
package image

import (
	"io"
	"os"

	"github.com/onefatfs/onefat/errors"
)

// Backing is the minimal surface an Image needs from its host storage.
// *os.File satisfies it; so does the test fixtures' adapter, which wraps
// an in-memory io.ReadWriteSeeker with positioned access, Truncate, Sync
// and Close.
type Backing interface {
	io.ReaderAt
	io.WriterAt
	Truncate(size int64) error
	Sync() error
	Close() error
}

// Image wraps a Backing store and exposes positioned read/write/flush
// primitives. All multi-byte integers handled above this layer are
// little-endian; Image itself is agnostic to the byte layout of what it
// stores.
type Image struct {
	backing Backing
}

// New wraps an already-open Backing store.
func New(backing Backing) *Image {
	return &Image{backing: backing}
}

// Open opens path for read/write without creating it. The caller is
// responsible for detecting a missing file and formatting one (see
// engine.OpenOrCreate).
func Open(path string) (*Image, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, errors.ErrImageIO.Wrap(err)
	}
	return New(f), nil
}

// Create truncates (or creates) path and wraps it as an Image, ready for
// Format to lay down a fresh boot sector, FAT, and root directory.
func Create(path string) (*Image, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, errors.ErrImageIO.Wrap(err)
	}
	return New(f), nil
}

// Exists reports whether path already names a file on the host.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ReadExact fills buf completely from offset off, or returns ErrImageIO.
func (img *Image) ReadExact(off int64, buf []byte) error {
	n, err := img.backing.ReadAt(buf, off)
	if err != nil && !(err == io.EOF && n == len(buf)) {
		return errors.ErrImageIO.Wrap(err)
	}
	if n != len(buf) {
		return errors.ErrImageIO.WithMessage("short read")
	}
	return nil
}

// WriteExact writes the entirety of buf at offset off, or returns
// ErrImageIO.
func (img *Image) WriteExact(off int64, buf []byte) error {
	n, err := img.backing.WriteAt(buf, off)
	if err != nil {
		return errors.ErrImageIO.Wrap(err)
	}
	if n != len(buf) {
		return errors.ErrImageIO.WithMessage("short write")
	}
	return nil
}

// Truncate resizes the backing store to exactly size bytes.
func (img *Image) Truncate(size int64) error {
	if err := img.backing.Truncate(size); err != nil {
		return errors.ErrImageIO.Wrap(err)
	}
	return nil
}

// Flush commits any buffered writes to the host. The onefat engine calls
// this after every logical step that must be durable before the next one
// begins (format, insert, remove, file write -- see spec §5).
func (img *Image) Flush() error {
	if err := img.backing.Sync(); err != nil {
		return errors.ErrImageIO.Wrap(err)
	}
	return nil
}

// Close releases the backing store.
func (img *Image) Close() error {
	return img.backing.Close()
}
