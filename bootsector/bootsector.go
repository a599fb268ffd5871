// Package bootsector implements the on-disk boot sector: disk geometry,
// serialized little-endian at offset 0 of every onefat image.
//
// Field order and sizes follow spec.md §3.2 exactly; the split between a
// raw, directly-serializable struct and a derived convenience struct
// mirrors the teacher's RawFATBootSectorWithBPB / FATBootSector pairing in
// file_systems/fat/common.go.
package bootsector

import (
	"bytes"
	"encoding/binary"

	"github.com/noxer/bytewriter"
	"github.com/onefatfs/onefat"
	"github.com/onefatfs/onefat/errors"
)

// Raw is the exact on-disk layout, in serialization order.
type Raw struct {
	Signature        [onefat.SignatureSize]byte
	ClusterSize      uint32
	ClusterCount     uint32
	DiskSize         uint32
	FATCount         uint32
	FAT1StartAddress uint32
	DataStartAddress uint32
	PaddingSize      uint32
}

// Size is the fixed width, in bytes, of the serialized boot sector.
const Size = onefat.SignatureSize + 4*7

// BootSector wraps Raw with the offset helpers every other package needs;
// the helpers compute their values from the raw geometry on each call.
type BootSector struct {
	Raw
}

// New computes a BootSector for a disk of diskSize bytes, following the
// geometry formula in spec.md §3.1:
//
//	ClusterCount = floor((DiskSize - BootSector::SIZE) / (4 + ClusterSize))
func New(diskSize uint32) (*BootSector, error) {
	if diskSize <= Size {
		return nil, errors.ErrOutOfSpace.WithMessage("disk size too small to hold a boot sector")
	}

	freeSpace := diskSize - Size
	clusterCount := freeSpace / (4 + onefat.ClusterSize)
	if clusterCount == 0 {
		return nil, errors.ErrOutOfSpace.WithMessage("disk size too small to hold a single cluster")
	}

	fatSize := clusterCount * 4
	fat1Start := uint32(Size)
	dataSize := clusterCount * onefat.ClusterSize
	paddingSize := freeSpace - (dataSize + fatSize)
	dataStart := fat1Start + fatSize + paddingSize

	var sig [onefat.SignatureSize]byte
	copy(sig[:], onefat.Signature)

	return &BootSector{Raw{
		Signature:        sig,
		ClusterSize:      onefat.ClusterSize,
		ClusterCount:     clusterCount,
		DiskSize:         diskSize,
		FATCount:         1,
		FAT1StartAddress: fat1Start,
		DataStartAddress: dataStart,
		PaddingSize:      paddingSize,
	}}, nil
}

// Bytes serializes the boot sector into a Size-byte buffer, ready for a
// single positioned write.
func (bs *BootSector) Bytes() ([]byte, error) {
	buf := make([]byte, Size)
	w := bytewriter.New(buf)

	fields := []any{
		bs.Signature,
		bs.ClusterSize,
		bs.ClusterCount,
		bs.DiskSize,
		bs.FATCount,
		bs.FAT1StartAddress,
		bs.DataStartAddress,
		bs.PaddingSize,
	}
	for _, field := range fields {
		if err := binary.Write(w, binary.LittleEndian, field); err != nil {
			return nil, errors.ErrImageIO.Wrap(err)
		}
	}
	return buf, nil
}

// FromBytes parses a Size-byte buffer into a BootSector and validates the
// signature and the invariants from spec.md §3.2.
func FromBytes(data []byte) (*BootSector, error) {
	if len(data) != Size {
		return nil, errors.ErrCorruptFS.WithMessage("boot sector has the wrong size")
	}

	var raw Raw
	r := bytes.NewReader(data)
	fields := []any{
		&raw.Signature,
		&raw.ClusterSize,
		&raw.ClusterCount,
		&raw.DiskSize,
		&raw.FATCount,
		&raw.FAT1StartAddress,
		&raw.DataStartAddress,
		&raw.PaddingSize,
	}
	for _, field := range fields {
		if err := binary.Read(r, binary.LittleEndian, field); err != nil {
			return nil, errors.ErrImageIO.Wrap(err)
		}
	}

	bs := &BootSector{raw}
	if err := bs.Validate(); err != nil {
		return nil, err
	}
	return bs, nil
}

// Validate checks the invariants from spec.md §3.2 and §9 ("fatCount = 1"
// is fixed by this engine; any other value is a bug, not a feature).
func (bs *BootSector) Validate() error {
	expectedSig := make([]byte, onefat.SignatureSize)
	copy(expectedSig, onefat.Signature)
	if !bytes.Equal(bs.Signature[:], expectedSig) {
		return errors.ErrCorruptFS.WithMessage("unrecognized image signature")
	}
	if bs.FAT1StartAddress != uint32(Size) {
		return errors.ErrCorruptFS.WithMessage("fat1StartAddress does not equal BootSector::SIZE")
	}
	if bs.FATCount != 1 {
		return errors.ErrCorruptFS.WithMessage("fatCount must be exactly 1")
	}
	expectedDataStart := bs.FAT1StartAddress + bs.FATCount*(4*bs.ClusterCount) + bs.PaddingSize
	if bs.DataStartAddress != expectedDataStart {
		return errors.ErrCorruptFS.WithMessage("dataStartAddress is inconsistent with fat/padding sizes")
	}
	return nil
}

// FATOffset returns the byte offset of the start of the FAT table.
func (bs *BootSector) FATOffset() int64 { return int64(bs.FAT1StartAddress) }

// DataOffset returns the byte offset of cluster 0.
func (bs *BootSector) DataOffset() int64 { return int64(bs.DataStartAddress) }

// ClusterOffset returns the byte offset of the given cluster's first byte.
func (bs *BootSector) ClusterOffset(cluster uint32) int64 {
	return bs.DataOffset() + int64(cluster)*int64(bs.ClusterSize)
}

// DirentsPerCluster is the number of fixed-size directory-entry slots a
// single directory cluster holds (spec.md §3.5, MAX_ENTRIES).
func (bs *BootSector) DirentsPerCluster() int {
	return int(bs.ClusterSize) / onefat.DirectoryEntrySize
}
