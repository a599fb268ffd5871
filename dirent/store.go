package dirent

import (
	"github.com/onefatfs/onefat"
	"github.com/onefatfs/onefat/bootsector"
	"github.com/onefatfs/onefat/errors"
	"github.com/onefatfs/onefat/image"
)

// Store reads and writes the fixed-slot array of directory entries that
// make up a single directory cluster (spec.md §3.5, §4.4). It assumes
// every directory fits in exactly one cluster, as the spec's directory
// entries have no "next cluster" field of their own -- a directory's
// contents live entirely in the cluster named by its own startCluster.
type Store struct {
	img *image.Image
	bs  *bootsector.BootSector
}

// NewStore wraps the directory-entry store backed by img.
func NewStore(img *image.Image, bs *bootsector.BootSector) *Store {
	return &Store{img: img, bs: bs}
}

// MaxEntries is the number of fixed-size slots in one directory cluster.
func (s *Store) MaxEntries() int { return s.bs.DirentsPerCluster() }

func (s *Store) slotOffset(cluster uint32, slot int) int64 {
	return s.bs.ClusterOffset(cluster) + int64(slot)*onefat.DirectoryEntrySize
}

func (s *Store) readSlot(cluster uint32, slot int) (Entry, error) {
	buf := make([]byte, onefat.DirectoryEntrySize)
	if err := s.img.ReadExact(s.slotOffset(cluster, slot), buf); err != nil {
		return Entry{}, err
	}
	return Unmarshal(buf)
}

func (s *Store) writeSlot(cluster uint32, slot int, e Entry) error {
	buf, err := Marshal(e)
	if err != nil {
		return err
	}
	return s.img.WriteExact(s.slotOffset(cluster, slot), buf)
}

// requireReferences checks that slots 0 and 1 ('.' and '..') are
// allocated, per the invariant every read of a directory cluster must
// enforce (spec.md §3.5, §4.4).
func (s *Store) requireReferences(cluster uint32) error {
	for slot := 0; slot < 2; slot++ {
		entry, err := s.readSlot(cluster, slot)
		if err != nil {
			return err
		}
		if !entry.IsAllocated() {
			return errors.ErrCorruptFS.WithMessage("directory is missing its `.`/`..` references")
		}
	}
	return nil
}

// Init writes the `.` and `..` reference entries into a freshly allocated
// directory cluster and zero-fills the remaining slots. Used by mkdir and
// by format for the root directory (spec.md §4.8, §4.9).
func (s *Store) Init(cluster, parentCluster uint32) error {
	if err := s.writeSlot(cluster, 0, Dot(cluster)); err != nil {
		return err
	}
	if err := s.writeSlot(cluster, 1, DotDot(parentCluster)); err != nil {
		return err
	}

	empty := make([]byte, onefat.DirectoryEntrySize)
	for slot := 2; slot < s.MaxEntries(); slot++ {
		if err := s.img.WriteExact(s.slotOffset(cluster, slot), empty); err != nil {
			return err
		}
	}
	return s.img.Flush()
}

// Enumerate returns every allocated entry in the directory at cluster, in
// slot order, including `.` and `..`.
func (s *Store) Enumerate(cluster uint32) ([]Entry, error) {
	if err := s.requireReferences(cluster); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, s.MaxEntries())
	for slot := 0; slot < s.MaxEntries(); slot++ {
		entry, err := s.readSlot(cluster, slot)
		if err != nil {
			return nil, err
		}
		if !entry.IsAllocated() {
			break
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Count returns the number of allocated slots in the directory at
// cluster; always at least 2 for a well-formed directory.
func (s *Store) Count(cluster uint32) (int, error) {
	entries, err := s.Enumerate(cluster)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// FindByName performs a linear, C-string-equality scan for name in the
// directory at cluster, optionally filtered by kind. It returns
// (Entry{}, false, nil) on a clean miss.
func (s *Store) FindByName(cluster uint32, name string, kind Kind) (Entry, bool, error) {
	entries, err := s.Enumerate(cluster)
	if err != nil {
		return Entry{}, false, err
	}
	for _, entry := range entries {
		if entry.Name == name && entry.Matches(kind) {
			return entry, true, nil
		}
	}
	return Entry{}, false, nil
}

// FindByCluster returns the entry in the directory at cluster whose
// StartCluster equals childCluster. Used by pwd to recover a directory's
// real name via its parent (spec.md §4.7).
func (s *Store) FindByCluster(cluster, childCluster uint32) (Entry, bool, error) {
	entries, err := s.Enumerate(cluster)
	if err != nil {
		return Entry{}, false, err
	}
	for _, entry := range entries {
		if entry.StartCluster == childCluster {
			return entry, true, nil
		}
	}
	return Entry{}, false, nil
}

// Insert writes entry into the first unallocated slot at index >= 2. It
// fails with ErrDirectoryFull once every slot is occupied.
func (s *Store) Insert(cluster uint32, entry Entry) error {
	if err := s.requireReferences(cluster); err != nil {
		return err
	}

	for slot := 2; slot < s.MaxEntries(); slot++ {
		existing, err := s.readSlot(cluster, slot)
		if err != nil {
			return err
		}
		if !existing.IsAllocated() {
			if err := s.writeSlot(cluster, slot, entry); err != nil {
				return err
			}
			return s.img.Flush()
		}
	}
	return errors.ErrDirectoryFull
}

// Edit overwrites the slot whose StartCluster equals oldStart with
// newEntry.
func (s *Store) Edit(cluster, oldStart uint32, newEntry Entry) error {
	for slot := 0; slot < s.MaxEntries(); slot++ {
		existing, err := s.readSlot(cluster, slot)
		if err != nil {
			return err
		}
		if !existing.IsAllocated() {
			break
		}
		if existing.StartCluster == oldStart {
			if err := s.writeSlot(cluster, slot, newEntry); err != nil {
				return err
			}
			return s.img.Flush()
		}
	}
	return errors.ErrFileNotFound
}

// Remove finds the slot matching name/kind, refusing `.` and `..` when
// kind is KindDirectory, and compacts the directory by moving the last
// allocated slot's bytes into the freed position (spec.md §4.4). It
// reports whether a removal occurred.
func (s *Store) Remove(cluster uint32, name string, kind Kind) (bool, error) {
	if kind == KindDirectory && (name == "." || name == "..") {
		return false, errors.ErrInvalidOption.WithMessage("refusing to remove `.` or `..`")
	}

	entries, err := s.Enumerate(cluster)
	if err != nil {
		return false, err
	}

	target := -1
	for i, entry := range entries {
		if entry.Name == name && entry.Matches(kind) {
			target = i
			break
		}
	}
	if target < 0 {
		return false, nil
	}

	last := len(entries) - 1
	if target != last {
		lastEntry := entries[last]
		if err := s.writeSlot(cluster, target, lastEntry); err != nil {
			return false, err
		}
	}

	empty := make([]byte, onefat.DirectoryEntrySize)
	if err := s.img.WriteExact(s.slotOffset(cluster, last), empty); err != nil {
		return false, err
	}

	if err := s.img.Flush(); err != nil {
		return false, err
	}
	return true, nil
}
