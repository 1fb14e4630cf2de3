// Package model defines the content model shared by the extraction engine,
// conflict resolution and the orchestrator.
package model

import (
	"path/filepath"
	"strings"
	"time"
)

// Format is the archive format detected from the file extension.
type Format string

const (
	FormatUnknown  Format = ""
	FormatZip      Format = "zip"
	FormatSevenZip Format = "7z"
	FormatRar      Format = "rar"
	FormatTar      Format = "tar"
	FormatTarGz    Format = "tar.gz"
	FormatTarBz2   Format = "tar.bz2"
	FormatTarXz    Format = "tar.xz"
	FormatTarZst   Format = "tar.zst"
	FormatGzip     Format = "gz"
	FormatBzip2    Format = "bz2"
	FormatXz       Format = "xz"
	FormatZstd     Format = "zst"
	FormatIso      Format = "iso"
	FormatCab      Format = "cab"
	FormatLzh      Format = "lzh"
	FormatArj      Format = "arj"
)

// extensions maps lower-case suffixes to formats. Compound suffixes are
// listed first so ".tar.gz" wins over ".gz".
var extensions = []struct {
	suffix string
	format Format
}{
	{".tar.gz", FormatTarGz},
	{".tar.bz2", FormatTarBz2},
	{".tar.xz", FormatTarXz},
	{".tar.zst", FormatTarZst},
	{".tgz", FormatTarGz},
	{".tbz2", FormatTarBz2},
	{".tbz", FormatTarBz2},
	{".txz", FormatTarXz},
	{".tzst", FormatTarZst},
	{".zip", FormatZip},
	{".jar", FormatZip},
	{".7z", FormatSevenZip},
	{".rar", FormatRar},
	{".tar", FormatTar},
	{".gz", FormatGzip},
	{".bz2", FormatBzip2},
	{".xz", FormatXz},
	{".zst", FormatZstd},
	{".iso", FormatIso},
	{".cab", FormatCab},
	{".lzh", FormatLzh},
	{".lha", FormatLzh},
	{".arj", FormatArj},
}

// CompressedTar reports whether f is a tarball inside a compression layer.
func (f Format) CompressedTar() bool {
	switch f {
	case FormatTarGz, FormatTarBz2, FormatTarXz, FormatTarZst:
		return true
	}
	return false
}

// DetectFormat returns the format for name and the suffix that matched.
// Unknown names return FormatUnknown and the plain filepath.Ext suffix.
func DetectFormat(name string) (Format, string) {
	lower := strings.ToLower(name)
	for _, e := range extensions {
		if strings.HasSuffix(lower, e.suffix) && len(lower) > len(e.suffix) {
			return e.format, name[len(name)-len(e.suffix):]
		}
	}
	return FormatUnknown, filepath.Ext(name)
}

// Archive identifies the source file of one extraction.
type Archive struct {
	Path    string // Absolute path
	Name    string // Display name (base name including extension)
	Format  Format
	Size    int64
	ModTime time.Time
}

// NewArchive builds an Archive from an absolute path and its file metadata.
func NewArchive(absPath string, size int64, modTime time.Time) Archive {
	name := filepath.Base(absPath)
	format, _ := DetectFormat(name)
	return Archive{
		Path:    absPath,
		Name:    name,
		Format:  format,
		Size:    size,
		ModTime: modTime,
	}
}

// Dir returns the directory containing the archive.
func (a Archive) Dir() string {
	return filepath.Dir(a.Path)
}

// BaseName returns the archive name without its (possibly compound) extension.
// "project.tar.gz" becomes "project".
func (a Archive) BaseName() string {
	_, suffix := DetectFormat(a.Name)
	base := strings.TrimSuffix(a.Name, suffix)
	if base == "" {
		return a.Name
	}
	return base
}
