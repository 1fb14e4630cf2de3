// Package conflict computes non-colliding destination paths and manages
// staging directories used when an extraction target already exists.
package conflict

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ExistsFunc reports whether a path is taken.
type ExistsFunc func(path string) bool

// UniqueFilePath returns path if it is free, otherwise the first free
// "name-N.ext" sibling with N starting at 1. Names without an extension get
// the suffix appended ("README-1").
func UniqueFilePath(path string, exists ExistsFunc) string {
	if !exists(path) {
		return path
	}
	dir, base := filepath.Split(path)
	stem, ext := splitExt(base)
	for n := 1; ; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, n, ext))
		if !exists(candidate) {
			return candidate
		}
	}
}

// UniqueFolderPath returns path if it is free, otherwise the first free
// "name-N" sibling with N starting at 1.
func UniqueFolderPath(path string, exists ExistsFunc) string {
	if !exists(path) {
		return path
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s-%d", path, n)
		if !exists(candidate) {
			return candidate
		}
	}
}

// splitExt splits a base name into stem and extension. A leading dot alone
// (".env") is not an extension.
func splitExt(base string) (string, string) {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		return base, ""
	}
	return stem, ext
}

// MaxStagingAttempts bounds how often a staging name is regenerated after a
// collision.
const MaxStagingAttempts = 16

// Mkdirer creates a single directory, failing when it already exists.
type Mkdirer interface {
	Mkdir(path string, perm os.FileMode) error
}

// StagingName returns "<prefix>_<6 hex digits>".
func StagingName(prefix string) (string, error) {
	var b [3]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generating staging suffix: %w", err)
	}
	return prefix + "_" + hex.EncodeToString(b[:]), nil
}

// CreateStagingDir creates a fresh staging directory inside parent. The
// random suffix is regenerated when the name is already taken.
func CreateStagingDir(fsys Mkdirer, parent, prefix string) (string, error) {
	for attempt := 0; attempt < MaxStagingAttempts; attempt++ {
		name, err := StagingName(prefix)
		if err != nil {
			return "", err
		}
		dir := filepath.Join(parent, name)
		err = fsys.Mkdir(dir, 0o755)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("creating staging directory: %w", err)
		}
	}
	return "", fmt.Errorf("creating staging directory in %s: no free name after %d attempts", parent, MaxStagingAttempts)
}
