// Package osfs provides a filesystem adapter using the standard library os package.
package osfs

import (
	"errors"
	"io/fs"
	"os"

	"github.com/mcdonaldj/gunzip/internal/ports"
)

// OSFileSystem implements ports.FileSystem using the standard library.
type OSFileSystem struct{}

// New creates a new OSFileSystem adapter.
func New() *OSFileSystem {
	return &OSFileSystem{}
}

// Stat returns file info for the named file.
func (f *OSFileSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// Exists reports whether name exists. A dangling symlink counts as existing
// because renaming onto it would still replace it.
func (f *OSFileSystem) Exists(name string) bool {
	_, err := os.Lstat(name)
	return !errors.Is(err, fs.ErrNotExist)
}

// Mkdir creates a single directory and fails if it already exists.
func (f *OSFileSystem) Mkdir(path string, perm os.FileMode) error {
	return os.Mkdir(path, perm)
}

// Rename renames (moves) oldpath to newpath.
func (f *OSFileSystem) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

// RemoveAll removes path and any children it contains.
func (f *OSFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// AvailableSpace returns the bytes available to the current user on the
// volume containing path.
func (f *OSFileSystem) AvailableSpace(path string) (int64, error) {
	return availableSpace(path)
}

// Compile-time check that OSFileSystem implements ports.FileSystem.
var _ ports.FileSystem = (*OSFileSystem)(nil)
