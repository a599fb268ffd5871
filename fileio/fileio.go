// Package fileio implements whole-file reads and writes across a cluster
// chain (spec.md §4.6).
package fileio

import (
	"github.com/onefatfs/onefat"
	"github.com/onefatfs/onefat/bootsector"
	"github.com/onefatfs/onefat/image"
)

// IO reads and writes file payloads across cluster chains.
type IO struct {
	img *image.Image
	bs  *bootsector.BootSector
}

// New wraps file I/O backed by img.
func New(img *image.Image, bs *bootsector.BootSector) *IO {
	return &IO{img: img, bs: bs}
}

// WriteFile writes buffer across clusters, ClusterSize bytes per cluster
// except the last, which receives only the trailing
// ((len(buffer)-1) mod ClusterSize) + 1 bytes when buffer is non-empty.
// An empty buffer is a no-op; the caller has still allocated one cluster
// for it per spec.md §4.8's incp rule.
func (f *IO) WriteFile(clusters []uint32, buffer []byte) error {
	if len(buffer) == 0 {
		return nil
	}

	for i, cluster := range clusters {
		start := i * onefat.ClusterSize
		if start >= len(buffer) {
			break
		}

		end := start + onefat.ClusterSize
		if end > len(buffer) {
			end = len(buffer)
		}

		if err := f.img.WriteExact(f.bs.ClusterOffset(cluster), buffer[start:end]); err != nil {
			return err
		}
	}
	return f.img.Flush()
}

// ReadFile reads exactly size bytes from across clusters.
func (f *IO) ReadFile(clusters []uint32, size int64) ([]byte, error) {
	buffer := make([]byte, size)
	if size == 0 {
		return buffer, nil
	}

	var read int64
	for _, cluster := range clusters {
		if read >= size {
			break
		}

		remaining := size - read
		chunk := int64(onefat.ClusterSize)
		if chunk > remaining {
			chunk = remaining
		}

		if err := f.img.ReadExact(f.bs.ClusterOffset(cluster), buffer[read:read+chunk]); err != nil {
			return nil, err
		}
		read += chunk
	}
	return buffer, nil
}
