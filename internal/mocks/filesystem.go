// Package mocks provides mock implementations for testing.
package mocks

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mcdonaldj/gunzip/internal/ports"
)

// MockFileSystem implements ports.FileSystem for testing. Paths are kept in
// an in-memory tree keyed by cleaned absolute path.
type MockFileSystem struct {
	// Stats maps paths to FileInfo for Stat and Exists
	Stats map[string]os.FileInfo
	// Errors maps paths to errors (for simulating failures)
	Errors map[string]error

	// Available is returned by AvailableSpace.
	Available int64
	// AvailableErr, when set, is returned by AvailableSpace.
	AvailableErr error
	// RenameErr, when set, is returned by every Rename.
	RenameErr error

	// MkdirCalls records directories created with Mkdir or MkdirAll
	MkdirCalls []string
	// RenameCalls records calls to Rename
	RenameCalls []RenameCall
	// RemoveAllCalls records calls to RemoveAll
	RemoveAllCalls []string
}

// RenameCall records parameters of a Rename call.
type RenameCall struct {
	OldPath string
	NewPath string
}

// NewMockFileSystem creates a new mock filesystem with plenty of free space.
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		Stats:     make(map[string]os.FileInfo),
		Errors:    make(map[string]error),
		Available: 1 << 40,
	}
}

// AddFile registers a file of the given size.
func (m *MockFileSystem) AddFile(path string, size int64) {
	path = filepath.Clean(path)
	m.Stats[path] = &mockFileInfo{name: filepath.Base(path), size: size, mode: 0o644, modTime: time.Now()}
}

// AddDir registers a directory.
func (m *MockFileSystem) AddDir(path string) {
	path = filepath.Clean(path)
	m.Stats[path] = &mockFileInfo{name: filepath.Base(path), isDir: true, mode: fs.ModeDir | 0o755, modTime: time.Now()}
}

// Paths returns every registered path in sorted order.
func (m *MockFileSystem) Paths() []string {
	paths := make([]string, 0, len(m.Stats))
	for p := range m.Stats {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Stat returns file info for the named file.
func (m *MockFileSystem) Stat(name string) (os.FileInfo, error) {
	name = filepath.Clean(name)
	if err, ok := m.Errors[name]; ok {
		return nil, err
	}
	if info, ok := m.Stats[name]; ok {
		return info, nil
	}
	return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
}

// Exists reports whether name exists.
func (m *MockFileSystem) Exists(name string) bool {
	_, err := m.Stat(name)
	return !errors.Is(err, fs.ErrNotExist)
}

// Mkdir creates a single directory and fails if it already exists.
func (m *MockFileSystem) Mkdir(path string, perm os.FileMode) error {
	path = filepath.Clean(path)
	if err, ok := m.Errors[path]; ok {
		return err
	}
	if m.Exists(path) {
		return &fs.PathError{Op: "mkdir", Path: path, Err: fs.ErrExist}
	}
	m.MkdirCalls = append(m.MkdirCalls, path)
	m.AddDir(path)
	return nil
}

// MkdirAll registers path and any missing parents. MockEngine uses it to
// materialize listings.
func (m *MockFileSystem) MkdirAll(path string, perm os.FileMode) error {
	path = filepath.Clean(path)
	if err, ok := m.Errors[path]; ok {
		return err
	}
	m.MkdirCalls = append(m.MkdirCalls, path)
	for p := path; ; p = filepath.Dir(p) {
		if !m.Exists(p) {
			m.AddDir(p)
		}
		if filepath.Dir(p) == p {
			break
		}
	}
	return nil
}

// Rename moves oldpath and everything below it to newpath.
func (m *MockFileSystem) Rename(oldpath, newpath string) error {
	oldpath, newpath = filepath.Clean(oldpath), filepath.Clean(newpath)
	m.RenameCalls = append(m.RenameCalls, RenameCall{OldPath: oldpath, NewPath: newpath})
	if m.RenameErr != nil {
		return m.RenameErr
	}
	if err, ok := m.Errors[oldpath]; ok {
		return err
	}
	if err, ok := m.Errors[newpath]; ok {
		return err
	}
	if !m.Exists(oldpath) {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: fs.ErrNotExist}
	}
	moved := make(map[string]os.FileInfo)
	for p, info := range m.Stats {
		if rel, ok := under(oldpath, p); ok {
			moved[filepath.Join(newpath, rel)] = info
			delete(m.Stats, p)
		}
	}
	for p, info := range moved {
		m.Stats[p] = info
	}
	return nil
}

// RemoveAll removes path and any children it contains.
func (m *MockFileSystem) RemoveAll(path string) error {
	path = filepath.Clean(path)
	m.RemoveAllCalls = append(m.RemoveAllCalls, path)
	if err, ok := m.Errors[path]; ok {
		return err
	}
	for p := range m.Stats {
		if _, ok := under(path, p); ok {
			delete(m.Stats, p)
		}
	}
	return nil
}

// AvailableSpace returns Available or AvailableErr.
func (m *MockFileSystem) AvailableSpace(path string) (int64, error) {
	if m.AvailableErr != nil {
		return 0, m.AvailableErr
	}
	return m.Available, nil
}

// under reports whether p is root or lies below it, returning the relative part.
func under(root, p string) (string, bool) {
	if p == root {
		return ".", true
	}
	if strings.HasPrefix(p, root+string(filepath.Separator)) {
		return p[len(root)+1:], true
	}
	return "", false
}

// mockFileInfo implements os.FileInfo for testing.
type mockFileInfo struct {
	name    string
	size    int64
	mode    os.FileMode
	modTime time.Time
	isDir   bool
}

func (fi *mockFileInfo) Name() string       { return fi.name }
func (fi *mockFileInfo) Size() int64        { return fi.size }
func (fi *mockFileInfo) Mode() os.FileMode  { return fi.mode }
func (fi *mockFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *mockFileInfo) IsDir() bool        { return fi.isDir }
func (fi *mockFileInfo) Sys() interface{}   { return nil }

// Compile-time check that MockFileSystem implements ports.FileSystem.
var _ ports.FileSystem = (*MockFileSystem)(nil)
