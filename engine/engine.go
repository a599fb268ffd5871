// Package engine wires the image, boot sector, FAT table, allocator, and
// directory-entry store into the operations described in spec.md §4.8/§4.9,
// dispatched through a tagged Command variant (spec.md §9 DESIGN NOTES:
// "Command inheritance hierarchy" -> tagged variant + single dispatch).
package engine

import (
	"github.com/onefatfs/onefat"
	"github.com/onefatfs/onefat/bootsector"
	"github.com/onefatfs/onefat/dirent"
	"github.com/onefatfs/onefat/errors"
	"github.com/onefatfs/onefat/fat"
	"github.com/onefatfs/onefat/fileio"
	"github.com/onefatfs/onefat/image"
	"github.com/onefatfs/onefat/pathresolve"
)

// Engine is the sole holder of the open image and every derived index over
// it. Operations take an exclusive borrow of the Engine for their duration
// (spec.md §9: "there is no shared ownership because there are no
// concurrent users").
type Engine struct {
	img      *image.Image
	bs       *bootsector.BootSector
	fat      *fat.Table
	alloc    *fat.Allocator
	dirs     *dirent.Store
	files    *fileio.IO
	resolver *pathresolve.Resolver
	wd       uint32
	wdPath   string
}

// Open opens an existing image at path and rebuilds the in-memory indices
// over it. The working directory starts at root; callers that need a
// persisted working directory should re-`cd` after Open.
func Open(path string) (*Engine, error) {
	img, err := image.Open(path)
	if err != nil {
		return nil, err
	}
	return load(img)
}

// Create formats a brand-new image at path with the given size in bytes
// and returns an Engine positioned at its root.
func Create(path string, diskSize uint32) (*Engine, error) {
	img, err := image.Create(path)
	if err != nil {
		return nil, err
	}
	e, err := bootstrap(img, diskSize)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// OpenOrCreate opens path if it already exists, or formats a fresh image of
// defaultSize bytes if it doesn't (spec.md §6.1/§6.3: the CLI opens or
// creates the image file named on its command line; a signature mismatch on
// an existing file is corruption, not a reformat trigger).
func OpenOrCreate(path string, defaultSize uint32) (*Engine, error) {
	if image.Exists(path) {
		return Open(path)
	}
	return Create(path, defaultSize)
}

func load(img *image.Image) (*Engine, error) {
	header := make([]byte, bootsector.Size)
	if err := img.ReadExact(0, header); err != nil {
		return nil, err
	}
	bs, err := bootsector.FromBytes(header)
	if err != nil {
		return nil, err
	}
	return wire(img, bs)
}

func wire(img *image.Image, bs *bootsector.BootSector) (*Engine, error) {
	table := fat.New(img, bs)
	alloc, err := fat.NewAllocator(table)
	if err != nil {
		return nil, err
	}
	store := dirent.NewStore(img, bs)

	e := &Engine{
		img:      img,
		bs:       bs,
		fat:      table,
		alloc:    alloc,
		dirs:     store,
		files:    fileio.New(img, bs),
		resolver: pathresolve.New(store),
		wd:       onefat.RootCluster,
		wdPath:   "/",
	}
	return e, nil
}

// bootstrap implements `format` (spec.md §4.8): truncate, lay down a fresh
// boot sector, wipe the FAT, and write the root directory.
func bootstrap(img *image.Image, diskSize uint32) (*Engine, error) {
	bs, err := bootsector.New(diskSize)
	if err != nil {
		return nil, err
	}

	if err := img.Truncate(int64(bs.DiskSize)); err != nil {
		return nil, err
	}

	header, err := bs.Bytes()
	if err != nil {
		return nil, err
	}
	if err := img.WriteExact(0, header); err != nil {
		return nil, err
	}

	table := fat.New(img, bs)
	if err := table.Wipe(0, bs.ClusterCount); err != nil {
		return nil, err
	}
	store := dirent.NewStore(img, bs)
	if err := store.Init(onefat.RootCluster, onefat.RootCluster); err != nil {
		return nil, err
	}
	if err := table.WriteLabel(onefat.RootCluster, onefat.FATFileEnd); err != nil {
		return nil, err
	}

	// wire builds the allocator's free-cluster bitmap by scanning the FAT,
	// so it must run after the root cluster's label is already FATFileEnd.
	e, err := wire(img, bs)
	if err != nil {
		return nil, err
	}

	if err := e.img.Flush(); err != nil {
		return nil, err
	}
	return e, nil
}

// Format reformats the already-open image in place, per `format SIZE<unit>`
// (spec.md §4.9). The caller has already parsed and validated the size.
func (e *Engine) Format(diskSize uint32) error {
	fresh, err := bootstrap(e.img, diskSize)
	if err != nil {
		return err
	}
	*e = *fresh
	return nil
}

// WorkingDirectoryPath returns the cached pwd string.
func (e *Engine) WorkingDirectoryPath() string { return e.wdPath }

// refreshPath recomputes the cached working-directory path by walking `..`
// links up to root, per spec.md §4.7, bounded by a MaxEntries hop counter
// against a corrupt image.
func (e *Engine) refreshPath() error {
	if e.wd == onefat.RootCluster {
		e.wdPath = "/"
		return nil
	}

	var segments []string
	cur := e.wd
	limit := e.dirs.MaxEntries()

	for i := 0; ; i++ {
		if i >= limit {
			return errors.ErrCorruptFS.WithMessage("pwd walk did not reach root")
		}

		dotdot, found, err := e.dirs.FindByName(cur, "..", dirent.KindDirectory)
		if err != nil {
			return err
		}
		if !found {
			return errors.ErrCorruptFS.WithMessage("directory is missing its `..` reference")
		}
		parent := dotdot.StartCluster

		self, found, err := e.dirs.FindByCluster(parent, cur)
		if err != nil {
			return err
		}
		if !found {
			return errors.ErrCorruptFS.WithMessage("directory is not listed in its own parent")
		}

		segments = append([]string{self.Name}, segments...)
		if parent == onefat.RootCluster {
			break
		}
		cur = parent
	}

	path := "/"
	for i, s := range segments {
		if i > 0 {
			path += "/"
		}
		path += s
	}
	e.wdPath = path
	return nil
}

// Close releases the underlying image.
func (e *Engine) Close() error { return e.img.Close() }
