// Package onefat implements a single-file virtual filesystem modelled after
// FAT: one backing file on the host holds a boot sector, a single File
// Allocation Table, and a fixed-size data-cluster region.
//
// Package onefat collects the geometry constants shared by every other
// package in this module (DESIGN NOTES: "Global constants" -- one
// immutable configuration module), mirroring the teacher repo's
// flags.go + file_systems/fat/common.go split between bit-flag constants
// and derived geometry.
package onefat

// ClusterSize is the size, in bytes, of a single data cluster. It is a
// compile-time constant by design -- this engine does not support mixed
// cluster sizes within one image.
const ClusterSize = 4096

// Signature is the identifier stored, NUL-padded to SignatureSize bytes, at
// the start of every image. An image whose on-disk signature differs from
// this is unreadable.
const Signature = "ONEFAT010"

// SignatureSize is the width, in bytes, of the stored signature field.
// Signature is one byte shorter so the stored field always carries at
// least one trailing 0x00, as required by the directory-entry name rule
// applied uniformly across every fixed-width string field in this format.
const SignatureSize = 10

// ItemNameSize is the width, in bytes, of a directory entry's stored name,
// including the mandatory trailing NUL terminator. Usable name length is
// therefore ItemNameSize-1.
const ItemNameSize = 12

// MaxNameLength is the longest name (in bytes) that fits in a directory
// entry once the terminator is accounted for.
const MaxNameLength = ItemNameSize - 1

// DirectoryEntrySize is the on-disk width, in bytes, of one directory
// entry record: ItemNameSize bytes of name, 1 byte isFile, 3 reserved
// padding bytes, 4 bytes size, 4 bytes startCluster.
const DirectoryEntrySize = ItemNameSize + 1 + 3 + 4 + 4

// FATLabel is the on-disk type of one FAT slot: either a successor cluster
// index or one of the reserved sentinels below.
type FATLabel int32

const (
	// FATUnused marks a cluster as free.
	FATUnused FATLabel = (1 << 31) - 1 - 1
	// FATFileEnd marks the last cluster of a chain.
	FATFileEnd FATLabel = (1 << 31) - 1 - 2
	// FATBadCluster marks a cluster as unusable.
	FATBadCluster FATLabel = (1 << 31) - 1 - 3
)

// RootCluster is the fixed cluster index of the root directory.
const RootCluster = 0

// FormatUnit converts the numeric part of a `format` size argument
// (decimal megabytes) into bytes. Only this unit is accepted; see
// DESIGN.md for the Open Question resolution on unit parsing.
const FormatUnit = 1_000_000
