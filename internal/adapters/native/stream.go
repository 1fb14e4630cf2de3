package native

import (
	"io"
	"io/fs"
	"time"
)

// streamInfo describes the single file inside a compressed stream.
type streamInfo struct {
	name    string
	modTime int64
	mode    fs.FileMode
}

func (s streamInfo) Name() string       { return s.name }
func (s streamInfo) Size() int64        { return 0 }
func (s streamInfo) Mode() fs.FileMode  { return s.mode }
func (s streamInfo) ModTime() time.Time { return time.Unix(s.modTime, 0) }
func (s streamInfo) IsDir() bool        { return false }
func (s streamInfo) Sys() any           { return nil }

// streamFile adapts the decompressed reader to fs.File.
type streamFile struct {
	io.ReadCloser
	info streamInfo
}

func (f streamFile) Stat() (fs.FileInfo, error) { return f.info, nil }
