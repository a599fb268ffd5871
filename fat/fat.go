// Package fat implements the single File Allocation Table described in
// spec.md §3.3/§4.2, the free-cluster allocator of §4.3, and the bitmap
// cache that backs it (DOMAIN STACK).
package fat

import (
	"encoding/binary"

	"github.com/onefatfs/onefat"
	"github.com/onefatfs/onefat/bootsector"
	"github.com/onefatfs/onefat/errors"
	"github.com/onefatfs/onefat/image"
)

// Table is the flat array of 32-bit cluster labels. No package outside of
// fat reads or writes a FAT slot directly -- every access goes through
// ReadLabel/WriteLabel/Wipe (DESIGN NOTES: "No reading of the FAT bypasses
// these primitives").
type Table struct {
	img    *image.Image
	bs     *bootsector.BootSector
	offset int64
}

// New wraps the FAT table belonging to bs, backed by img.
func New(img *image.Image, bs *bootsector.BootSector) *Table {
	return &Table{img: img, bs: bs, offset: bs.FATOffset()}
}

func (t *Table) slotOffset(cluster uint32) int64 {
	return t.offset + int64(cluster)*4
}

// ClusterCount is the number of addressable clusters on the image.
func (t *Table) ClusterCount() uint32 { return t.bs.ClusterCount }

// ReadLabel reads the raw label stored at the given cluster's FAT slot.
func (t *Table) ReadLabel(cluster uint32) (onefat.FATLabel, error) {
	if cluster >= t.bs.ClusterCount {
		return 0, errors.ErrCorruptFS.WithMessage("cluster index out of range")
	}
	var buf [4]byte
	if err := t.img.ReadExact(t.slotOffset(cluster), buf[:]); err != nil {
		return 0, err
	}
	return onefat.FATLabel(int32(binary.LittleEndian.Uint32(buf[:]))), nil
}

// WriteLabel writes label into the given cluster's FAT slot.
func (t *Table) WriteLabel(cluster uint32, label onefat.FATLabel) error {
	if cluster >= t.bs.ClusterCount {
		return errors.ErrCorruptFS.WithMessage("cluster index out of range")
	}
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(int32(label)))
	return t.img.WriteExact(t.slotOffset(cluster), buf[:])
}

// Wipe writes FATUnused into count consecutive slots beginning at start.
func (t *Table) Wipe(start, count uint32) error {
	for i := uint32(0); i < count; i++ {
		if err := t.WriteLabel(start+i, onefat.FATUnused); err != nil {
			return err
		}
	}
	return nil
}

// IsSentinel reports whether label is one of the three reserved markers
// rather than a valid successor cluster index.
func IsSentinel(label onefat.FATLabel) bool {
	switch label {
	case onefat.FATUnused, onefat.FATFileEnd, onefat.FATBadCluster:
		return true
	default:
		return false
	}
}
