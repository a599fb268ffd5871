// Package dirent implements the on-disk directory entry record (spec.md
// §3.4) and the per-cluster directory-entry store (spec.md §3.5, §4.4).
package dirent

import (
	"bytes"
	"encoding/binary"

	"github.com/go-restruct/restruct"
	"github.com/onefatfs/onefat"
	"github.com/onefatfs/onefat/errors"
)

// raw is the exact on-disk layout of one directory entry, in serialization
// order: a 12-byte NUL-padded name, a 1-byte file/directory flag, 3
// reserved padding bytes, and two little-endian 32-bit integers.
//
// Packed and unpacked with go-restruct rather than the manual
// encoding/binary calls bootsector.go uses -- grounded on
// dsoprea/go-exfat's directory-entry parsing, which packs plain Go structs
// with restruct.Unpack/Pack and no field tags for fixed-width fields.
type raw struct {
	ItemName     [onefat.ItemNameSize]byte
	IsFile       bool
	Reserved     [3]byte
	Size         uint32
	StartCluster uint32
}

// Entry is the friendly, in-memory form of a directory entry.
type Entry struct {
	Name         string
	IsFile       bool
	Size         uint32
	StartCluster uint32
}

// Kind filters FindByName's last-component match on spec.md §4.5's `kind`
// parameter.
type Kind int

const (
	// KindAny matches either a file or a directory.
	KindAny Kind = iota
	// KindFile matches only entries with IsFile set.
	KindFile
	// KindDirectory matches only entries with IsFile clear.
	KindDirectory
)

// Matches reports whether e satisfies the requested kind filter.
func (e Entry) Matches(kind Kind) bool {
	switch kind {
	case KindFile:
		return e.IsFile
	case KindDirectory:
		return !e.IsFile
	default:
		return true
	}
}

// IsAllocated reports whether this slot holds a live entry. Per spec.md
// §3.5, allocation is defined solely by the first byte of the stored name
// being nonzero.
func (e Entry) IsAllocated() bool { return len(e.Name) > 0 && e.Name[0] != 0 }

// toRaw converts a friendly Entry into its on-disk form, rejecting names
// that don't fit (spec.md §7, ErrBadPath / "FILE NAME TOO LONG").
func toRaw(e Entry) (raw, error) {
	if len(e.Name) > onefat.MaxNameLength {
		return raw{}, errors.ErrBadPath.WithMessage("FILE NAME TOO LONG")
	}

	var r raw
	copy(r.ItemName[:], e.Name)
	r.IsFile = e.IsFile
	r.Size = e.Size
	r.StartCluster = e.StartCluster
	return r, nil
}

func fromRaw(r raw) Entry {
	// Names are compared and displayed as NUL-terminated C strings; the
	// 0x00 padding beyond the terminator is never significant.
	name := r.ItemName[:]
	if idx := bytes.IndexByte(name, 0); idx >= 0 {
		name = name[:idx]
	}

	return Entry{
		Name:         string(name),
		IsFile:       r.IsFile,
		Size:         r.Size,
		StartCluster: r.StartCluster,
	}
}

// Marshal serializes e into a DirectoryEntrySize-byte buffer.
func Marshal(e Entry) ([]byte, error) {
	r, err := toRaw(e)
	if err != nil {
		return nil, err
	}
	data, err := restruct.Pack(binary.LittleEndian, &r)
	if err != nil {
		return nil, errors.ErrImageIO.Wrap(err)
	}
	return data, nil
}

// Unmarshal parses a DirectoryEntrySize-byte buffer into an Entry.
func Unmarshal(data []byte) (Entry, error) {
	if len(data) != onefat.DirectoryEntrySize {
		return Entry{}, errors.ErrCorruptFS.WithMessage("directory entry has the wrong size")
	}

	var r raw
	if err := restruct.Unpack(data, binary.LittleEndian, &r); err != nil {
		return Entry{}, errors.ErrImageIO.Wrap(err)
	}
	return fromRaw(r), nil
}

// Dot builds the `.` reference entry for the directory living at cluster.
func Dot(cluster uint32) Entry {
	return Entry{Name: ".", IsFile: false, Size: 0, StartCluster: cluster}
}

// DotDot builds the `..` reference entry pointing at parentCluster.
func DotDot(parentCluster uint32) Entry {
	return Entry{Name: "..", IsFile: false, Size: 0, StartCluster: parentCluster}
}
