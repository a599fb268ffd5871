package fat

import (
	"github.com/boljen/go-bitmap"
	"github.com/onefatfs/onefat"
	"github.com/onefatfs/onefat/errors"
)

// Allocator finds free clusters, links them into chains, and walks
// existing chains. It keeps a go-bitmap mirror of which clusters are
// FATUnused so repeated scans (format, incp of many files, defrag) don't
// have to re-read every FAT slot from the image; the FAT itself remains
// the single source of truth (DOMAIN STACK) -- the bitmap is rebuilt from
// it in NewAllocator and kept in lockstep by every method that changes a
// label, never read or written independently of the table it mirrors.
type Allocator struct {
	table *Table
	free  bitmap.Bitmap
}

// NewAllocator scans table once and builds the free-cluster bitmap,
// grounded on drivers/common/allocatormap.go's Allocator, adapted from a
// block-bitmap allocator into a FAT-label mirror.
func NewAllocator(table *Table) (*Allocator, error) {
	count := table.ClusterCount()
	free := bitmap.New(int(count))

	for i := uint32(0); i < count; i++ {
		label, err := table.ReadLabel(i)
		if err != nil {
			return nil, err
		}
		free.Set(int(i), label == onefat.FATUnused)
	}

	return &Allocator{table: table, free: free}, nil
}

// FreeClusters scans from cluster 0, collecting the indices of free
// clusters until n have been gathered. In contiguous mode, any gap
// between consecutive candidate indices discards what has been
// accumulated so far and scanning continues from the gap (spec.md §4.3):
// the lowest-indexed clusters are always preferred, and a broken run is
// never resumed.
func (a *Allocator) FreeClusters(n uint32, contiguous bool) ([]uint32, error) {
	if n == 0 {
		return nil, nil
	}

	acc := make([]uint32, 0, n)
	var prev uint32
	havePrev := false
	total := a.table.ClusterCount()

	for i := uint32(0); i < total; i++ {
		if !a.free.Get(int(i)) {
			continue
		}

		if contiguous && havePrev && i != prev+1 {
			acc = acc[:0]
		}

		acc = append(acc, i)
		prev = i
		havePrev = true

		if uint32(len(acc)) == n {
			return acc, nil
		}
	}

	return nil, errors.ErrOutOfSpace.WithMessage("not enough free clusters available")
}

// markAllocated updates the bitmap mirror after a cluster's FAT label has
// been set to anything other than FATUnused.
func (a *Allocator) markAllocated(cluster uint32) { a.free.Set(int(cluster), false) }

// markFree updates the bitmap mirror after a cluster's FAT label has been
// set to FATUnused.
func (a *Allocator) markFree(cluster uint32) { a.free.Set(int(cluster), true) }

// MakeChain writes successor links across clusters so that
// fat[clusters[i]] = clusters[i+1] for i < len-1, and the last cluster's
// label becomes FATFileEnd. clusters must be non-empty.
func (a *Allocator) MakeChain(clusters []uint32) error {
	if len(clusters) == 0 {
		return errors.ErrCorruptFS.WithMessage("cannot make a chain from zero clusters")
	}

	for i, cluster := range clusters {
		var label onefat.FATLabel
		if i == len(clusters)-1 {
			label = onefat.FATFileEnd
		} else {
			label = onefat.FATLabel(clusters[i+1])
		}
		if err := a.table.WriteLabel(cluster, label); err != nil {
			return err
		}
		a.markAllocated(cluster)
	}
	return nil
}

// LabelChain writes label into every listed cluster's FAT slot. Passing
// onefat.FATUnused is how callers free a chain (spec.md §4.3).
func (a *Allocator) LabelChain(clusters []uint32, label onefat.FATLabel) error {
	for _, cluster := range clusters {
		if err := a.table.WriteLabel(cluster, label); err != nil {
			return err
		}
		if label == onefat.FATUnused {
			a.markFree(cluster)
		} else {
			a.markAllocated(cluster)
		}
	}
	return nil
}

// ChainFrom walks the cluster chain beginning at start, expecting exactly
// N = max(1, ceil(fileSize/ClusterSize)) clusters, terminating at
// FATFileEnd. Any sentinel or out-of-range label before the expected end,
// a final label that isn't FATFileEnd, or an early termination is
// reported as ErrCorruptFS (spec.md §4.3).
func (a *Allocator) ChainFrom(start uint32, fileSize int64) ([]uint32, error) {
	expected := fileSize / onefat.ClusterSize
	if fileSize%onefat.ClusterSize != 0 {
		expected++
	}
	if expected < 1 {
		expected = 1
	}

	chain := make([]uint32, 0, expected)
	cluster := start

	for i := int64(0); i < expected; i++ {
		label, err := a.table.ReadLabel(cluster)
		if err != nil {
			return nil, err
		}

		chain = append(chain, cluster)
		isLast := i == expected-1

		switch {
		case isLast && label == onefat.FATFileEnd:
			return chain, nil
		case isLast:
			return nil, errors.ErrCorruptFS.WithMessage("cluster chain did not terminate at the expected length")
		case label == onefat.FATFileEnd || IsSentinel(label):
			return nil, errors.ErrCorruptFS.WithMessage("cluster chain terminated early")
		default:
			cluster = uint32(label)
			if cluster >= a.table.ClusterCount() {
				return nil, errors.ErrCorruptFS.WithMessage("cluster chain points outside the image")
			}
		}
	}

	return chain, nil
}
