package model

import (
	"path"
	"strings"
	"time"
)

// ArchiveEntry is one member of an archive as reported by the engine.
type ArchiveEntry struct {
	// Path is relative to the archive root and always uses "/" separators.
	Path        string
	Name        string
	IsDir       bool
	Size        int64
	PackedSize  *int64
	ModTime     *time.Time
	Permissions string
	Encrypted   bool
}

// NewEntry normalizes p to "/" separators and derives the display name.
func NewEntry(p string, isDir bool, size int64) ArchiveEntry {
	p = NormalizePath(p)
	return ArchiveEntry{
		Path:  p,
		Name:  path.Base(p),
		IsDir: isDir,
		Size:  size,
	}
}

// NormalizePath converts backslashes to "/" and trims leading "./", "/" and
// trailing "/".
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	p = strings.Trim(p, "/")
	return p
}

// Depth is the number of separators in the entry path. Top-level entries have depth 0.
func (e ArchiveEntry) Depth() int {
	return strings.Count(e.Path, "/")
}

// ParentPath returns the parent path, or "" for top-level entries.
func (e ArchiveEntry) ParentPath() string {
	idx := strings.LastIndex(e.Path, "/")
	if idx < 0 {
		return ""
	}
	return e.Path[:idx]
}

// ArchiveContents is the full listing of an archive.
type ArchiveContents struct {
	Entries         []ArchiveEntry
	TotalSize       int64
	TotalPackedSize *int64
}

// NewContents computes the aggregate sizes for entries.
func NewContents(entries []ArchiveEntry) *ArchiveContents {
	c := &ArchiveContents{Entries: entries}
	var packed int64
	hasPacked := false
	for _, e := range entries {
		c.TotalSize += e.Size
		if e.PackedSize != nil {
			packed += *e.PackedSize
			hasPacked = true
		}
	}
	if hasPacked {
		c.TotalPackedSize = &packed
	}
	return c
}

// FileCount returns the number of non-directory entries.
func (c *ArchiveContents) FileCount() int {
	n := 0
	for _, e := range c.Entries {
		if !e.IsDir {
			n++
		}
	}
	return n
}

// DirectoryCount returns the number of directory entries.
func (c *ArchiveContents) DirectoryCount() int {
	return len(c.Entries) - c.FileCount()
}

// IsEmpty reports whether the archive has no entries.
func (c *ArchiveContents) IsEmpty() bool {
	return len(c.Entries) == 0
}

// TopLevelEntries returns the entries with depth 0, in listing order.
// Entries with an empty path are skipped.
func (c *ArchiveContents) TopLevelEntries() []ArchiveEntry {
	var top []ArchiveEntry
	for _, e := range c.Entries {
		if e.Path != "" && e.Depth() == 0 {
			top = append(top, e)
		}
	}
	return top
}

// SingleRootDirectory returns the sole top-level entry when it is a directory.
func (c *ArchiveContents) SingleRootDirectory() (ArchiveEntry, bool) {
	top := c.TopLevelEntries()
	if len(top) == 1 && top[0].IsDir {
		return top[0], true
	}
	return ArchiveEntry{}, false
}

// HasEncrypted reports whether any entry is marked as encrypted.
func (c *ArchiveContents) HasEncrypted() bool {
	for _, e := range c.Entries {
		if e.Encrypted {
			return true
		}
	}
	return false
}
