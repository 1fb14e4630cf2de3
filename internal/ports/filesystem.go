// Package ports defines interfaces (contracts) for external dependencies.
// These enable dependency injection and testability via mock implementations.
package ports

import "os"

// FileSystem abstracts filesystem operations for testability.
// Production code uses OSFileSystem adapter; tests use MockFileSystem.
type FileSystem interface {
	// Stat returns file info for the named file.
	Stat(name string) (os.FileInfo, error)

	// Exists reports whether name exists. Errors other than "not exist" count as existing.
	Exists(name string) bool

	// Mkdir creates a single directory and fails if it already exists.
	Mkdir(path string, perm os.FileMode) error

	// Rename renames (moves) oldpath to newpath.
	Rename(oldpath, newpath string) error

	// RemoveAll removes path and any children it contains.
	RemoveAll(path string) error

	// AvailableSpace returns the bytes available to the current user on the
	// volume containing path.
	AvailableSpace(path string) (int64, error)
}
