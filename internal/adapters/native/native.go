// Package native provides an in-process archive engine built on
// github.com/mholt/archives, used when no 7-Zip executable is available.
package native

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"

	"github.com/mcdonaldj/gunzip/internal/model"
	"github.com/mcdonaldj/gunzip/internal/ports"
)

// MaxDecompressSize is the maximum allowed uncompressed size of one entry (10GB).
const MaxDecompressSize = 10 * 1024 * 1024 * 1024

// Engine implements ports.ArchiveEngine using mholt/archives.
type Engine struct {
	logger  *slog.Logger
	maxSize int64
}

// Option is a functional option for configuring Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMaxEntrySize overrides MaxDecompressSize.
func WithMaxEntrySize(n int64) Option {
	return func(e *Engine) {
		e.maxSize = n
	}
}

// New creates a new native Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:  slog.New(slog.DiscardHandler),
		maxSize: MaxDecompressSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name identifies the engine.
func (e *Engine) Name() string {
	return "native"
}

// handlerError marks failures raised while writing output, as opposed to
// decode failures reported by the format reader.
type handlerError struct {
	err error
}

func (h *handlerError) Error() string { return h.err.Error() }
func (h *handlerError) Unwrap() error { return h.err }

// visitor receives each entry of an archive. For single-stream compressed
// files the entry is synthesized and Open returns the decompressed stream.
type visitor func(ctx context.Context, f archives.FileInfo) error

// walk identifies the archive format and calls visit for every entry.
func (e *Engine) walk(ctx context.Context, archivePath string, visit visitor) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return model.Classify(err)
	}
	defer func() { _ = file.Close() }()

	format, input, err := archives.Identify(ctx, archivePath, file)
	if err != nil {
		if errors.Is(err, archives.NoMatch) {
			_, suffix := model.DetectFormat(archivePath)
			return model.UnsupportedFormat(suffix)
		}
		return e.classify(ctx, err)
	}
	e.logger.Debug("identified archive", "path", archivePath, "format", format.Extension())

	switch f := format.(type) {
	case archives.Extractor:
		err = f.Extract(ctx, input, func(ctx context.Context, info archives.FileInfo) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := visit(ctx, info); err != nil {
				return &handlerError{err: err}
			}
			return nil
		})
	case archives.Decompressor:
		err = e.walkStream(ctx, archivePath, file, input, f, visit)
	default:
		return model.UnsupportedFormat(format.Extension())
	}
	if err != nil {
		return e.classify(ctx, err)
	}
	return nil
}

// walkStream presents a single compressed stream (notes.txt.gz) as one file
// entry named after the archive without its compression suffix.
func (e *Engine) walkStream(ctx context.Context, archivePath string, file *os.File, input io.Reader, dec archives.Decompressor, visit visitor) error {
	rc, err := dec.OpenReader(input)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	stat, err := file.Stat()
	if err != nil {
		return &handlerError{err: err}
	}
	name := model.NewArchive(archivePath, stat.Size(), stat.ModTime()).BaseName()
	info := archives.FileInfo{
		FileInfo:      streamInfo{name: name, modTime: stat.ModTime().Unix(), mode: 0o644},
		NameInArchive: name,
		Open: func() (fs.File, error) {
			return streamFile{ReadCloser: io.NopCloser(rc), info: streamInfo{name: name, mode: 0o644}}, nil
		},
	}
	if err := visit(ctx, info); err != nil {
		return &handlerError{err: err}
	}
	return nil
}

// classify converts library and handler errors into extraction errors.
func (e *Engine) classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var xerr *model.ExtractionError
	if errors.As(err, &xerr) {
		return xerr
	}
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "password") || strings.Contains(lower, "encrypt") {
		return model.PasswordRequired()
	}
	var herr *handlerError
	if errors.As(err, &herr) {
		return model.Classify(herr.err)
	}
	return model.CorruptedArchive(err.Error(), err)
}

// List reads the archive's entries without writing anything.
func (e *Engine) List(ctx context.Context, archivePath string) (*model.ArchiveContents, error) {
	var entries []model.ArchiveEntry
	err := e.walk(ctx, archivePath, func(ctx context.Context, f archives.FileInfo) error {
		entry := model.NewEntry(f.NameInArchive, f.IsDir(), 0)
		if entry.Path == "" {
			return nil
		}
		if !f.IsDir() && f.Size() > 0 {
			entry.Size = f.Size()
		}
		if mt := f.ModTime(); !mt.IsZero() {
			entry.ModTime = &mt
		}
		entry.Permissions = f.Mode().String()
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return model.NewContents(entries), nil
}

// Test decodes every entry and discards the output.
func (e *Engine) Test(ctx context.Context, archivePath string) error {
	return e.walk(ctx, archivePath, func(ctx context.Context, f archives.FileInfo) error {
		if f.IsDir() || f.Mode()&fs.ModeSymlink != 0 {
			return nil
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		defer func() { _ = rc.Close() }()
		_, err = io.Copy(io.Discard, io.LimitReader(rc, e.maxSize+1))
		return err
	})
}

// Extract writes every entry below destDir, overwriting existing files.
func (e *Engine) Extract(ctx context.Context, archivePath, destDir string, progress ports.ProgressFunc) error {
	absDestDir, err := filepath.Abs(destDir)
	if err != nil {
		return model.IOError("resolving destination path", err)
	}
	absDestDir = filepath.Clean(absDestDir)

	var files int
	var written int64
	return e.walk(ctx, archivePath, func(ctx context.Context, f archives.FileInfo) error {
		name := model.NormalizePath(f.NameInArchive)
		if name == "" {
			return nil
		}
		target := filepath.Join(absDestDir, filepath.FromSlash(name))
		if !isWithinDir(absDestDir, target) {
			return model.CorruptedArchive("invalid file path (path traversal detected): "+f.NameInArchive, nil)
		}

		switch {
		case f.IsDir():
			return os.MkdirAll(target, 0o755)
		case f.Mode()&fs.ModeSymlink != 0:
			if err := writeSymlink(absDestDir, target, f.LinkTarget); err != nil {
				return err
			}
		default:
			n, err := e.writeFile(f, target)
			if err != nil {
				return err
			}
			written += n
		}

		files++
		if progress != nil {
			progress(ports.ExtractProgress{CurrentFile: name, FilesProcessed: files, BytesProcessed: written})
		}
		return nil
	})
}

// writeFile copies one entry to target, enforcing the entry size limit.
func (e *Engine) writeFile(f archives.FileInfo, target string) (int64, error) {
	if f.Size() > e.maxSize {
		return 0, model.CorruptedArchive(fmt.Sprintf("file too large: %d bytes exceeds limit of %d bytes", f.Size(), e.maxSize), nil)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, err
	}

	rc, err := f.Open()
	if err != nil {
		return 0, err
	}
	defer func() { _ = rc.Close() }()

	perm := f.Mode().Perm()
	if perm == 0 {
		perm = 0o644
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return 0, err
	}

	n, copyErr := io.Copy(out, io.LimitReader(rc, e.maxSize+1))
	closeErr := out.Close()
	if copyErr != nil {
		return n, copyErr
	}
	if closeErr != nil {
		return n, closeErr
	}
	if n > e.maxSize {
		return n, model.CorruptedArchive(fmt.Sprintf("decompressed size of %s exceeds limit of %d bytes", f.NameInArchive, e.maxSize), nil)
	}
	return n, nil
}

// writeSymlink creates a link only when its target resolves inside destDir.
func writeSymlink(absDestDir, target, linkTarget string) error {
	if linkTarget == "" {
		return nil
	}
	resolved := linkTarget
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(filepath.Dir(target), linkTarget)
	}
	if !isWithinDir(absDestDir, resolved) {
		return model.CorruptedArchive(fmt.Sprintf("symlink escapes destination: %s -> %s", target, linkTarget), nil)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	_ = os.Remove(target)
	return os.Symlink(linkTarget, target)
}

// isWithinDir checks if the target path is within the base directory.
func isWithinDir(absBaseDir, targetPath string) bool {
	absTarget, err := filepath.Abs(targetPath)
	if err != nil {
		return false
	}
	absTarget = filepath.Clean(absTarget)

	return strings.HasPrefix(absTarget, absBaseDir+string(filepath.Separator)) ||
		absTarget == absBaseDir
}

// Compile-time check that Engine implements ports.ArchiveEngine.
var _ ports.ArchiveEngine = (*Engine)(nil)
