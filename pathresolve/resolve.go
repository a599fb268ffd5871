// Package pathresolve walks a tokenized path through the directory-entry
// store, starting from a working cluster (spec.md §4.5).
package pathresolve

import (
	"regexp"
	"strings"

	"github.com/onefatfs/onefat/dirent"
	"github.com/onefatfs/onefat/errors"
)

// shapeRegexp is the exact grammar from spec.md §6.2.
var shapeRegexp = regexp.MustCompile(`^/?[^/]+(/[^/]+)*/?$`)

// ValidateShape checks a raw path string's syntax without touching the
// image. Callers tokenize on '/' only after this passes.
func ValidateShape(path string) error {
	if path == "" {
		return nil
	}
	if !shapeRegexp.MatchString(path) {
		return errors.ErrBadPath.WithMessage("invalid directory path")
	}
	return nil
}

// Split tokenizes path on '/', dropping empty components produced by a
// leading or trailing slash.
func Split(path string) []string {
	raw := strings.Split(path, "/")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Resolver walks paths against a directory-entry store.
type Resolver struct {
	store *dirent.Store
}

// New wraps a path resolver around store.
func New(store *dirent.Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve walks components starting at working cluster w, applying kind
// only to the final component (spec.md §4.5). allowEmpty controls whether
// an empty components slice returns the working-directory entry itself
// (true, for `cd`/`ls` with no argument) or fails as BadPath (false).
func (r *Resolver) Resolve(w uint32, components []string, kind dirent.Kind, allowEmpty bool) (dirent.Entry, error) {
	if len(components) == 0 {
		if !allowEmpty {
			return dirent.Entry{}, errors.ErrBadPath.WithMessage("empty path not allowed here")
		}
		entry, found, err := r.store.FindByName(w, ".", dirent.KindDirectory)
		if err != nil {
			return dirent.Entry{}, err
		}
		if !found {
			return dirent.Entry{}, errors.ErrCorruptFS.WithMessage("directory is missing its `.` reference")
		}
		return entry, nil
	}

	cur := w
	for _, name := range components[:len(components)-1] {
		// Interior components match by name only, not by kind (spec.md §4.5
		// step 2) — a file blocking the rest of the walk still surfaces as
		// PathNotFound here; callers needing NotADirectory check IsFile
		// themselves once the entry is in hand.
		entry, found, err := r.store.FindByName(cur, name, dirent.KindAny)
		if err != nil {
			return dirent.Entry{}, err
		}
		if !found || entry.IsFile {
			return dirent.Entry{}, errors.ErrPathNotFound.WithMessage("PATH NOT FOUND")
		}
		cur = entry.StartCluster
	}

	last := components[len(components)-1]
	entry, found, err := r.store.FindByName(cur, last, kind)
	if err != nil {
		return dirent.Entry{}, err
	}
	if !found {
		if kind == dirent.KindFile {
			return dirent.Entry{}, errors.ErrFileNotFound.WithMessage("FILE NOT FOUND")
		}
		return dirent.Entry{}, errors.ErrPathNotFound.WithMessage("PATH NOT FOUND")
	}
	return entry, nil
}

// ParentCluster resolves every component but the last, returning the
// cluster the final component should live in, plus the final component's
// own name for an insert/remove call.
func (r *Resolver) ParentCluster(w uint32, components []string) (uint32, string, error) {
	if len(components) == 0 {
		return 0, "", errors.ErrBadPath.WithMessage("empty path not allowed here")
	}

	cur := w
	for _, name := range components[:len(components)-1] {
		entry, found, err := r.store.FindByName(cur, name, dirent.KindAny)
		if err != nil {
			return 0, "", err
		}
		if !found {
			return 0, "", errors.ErrPathNotFound.WithMessage("PATH NOT FOUND")
		}
		cur = entry.StartCluster
	}
	return cur, components[len(components)-1], nil
}
