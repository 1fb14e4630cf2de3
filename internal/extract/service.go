// Package extract runs one-action archive extraction: it inspects the
// archive, picks a destination layout, resolves naming conflicts through a
// staging directory and reports ordered progress ending in a terminal stage.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/mcdonaldj/gunzip/internal/conflict"
	"github.com/mcdonaldj/gunzip/internal/model"
	"github.com/mcdonaldj/gunzip/internal/ports"
)

// DefaultStagingPrefix names staging directories "gunzip_<hex>".
const DefaultStagingPrefix = "gunzip"

// Options configures a single extraction.
type Options struct {
	MoveToTrash         bool // Move the archive to the trash after success
	ShowCompletion      bool // Send a success notification
	VerifyBeforeExtract bool // Run an integrity test before writing anything
}

// Result describes a successful extraction.
type Result struct {
	FinalPath string
	Strategy  model.Strategy
}

// Observer receives progress events in order. It is called on the goroutine
// running the extraction.
type Observer func(model.Progress)

// Service provides extraction operations with injected dependencies.
type Service struct {
	engine        ports.ArchiveEngine
	fs            ports.FileSystem
	trash         ports.Trash
	notifier      ports.Notifier
	logger        *slog.Logger
	stagingPrefix string
	newRunID      func() string
}

// Option is a functional option for configuring Service.
type Option func(*Service)

// WithTrash sets the collaborator used when Options.MoveToTrash is set.
func WithTrash(t ports.Trash) Option {
	return func(s *Service) {
		s.trash = t
	}
}

// WithNotifier sets the collaborator receiving success and error notifications.
func WithNotifier(n ports.Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithStagingPrefix overrides DefaultStagingPrefix.
func WithStagingPrefix(prefix string) Option {
	return func(s *Service) {
		if prefix != "" {
			s.stagingPrefix = prefix
		}
	}
}

// NewService creates a new extraction service with the given dependencies.
func NewService(engine ports.ArchiveEngine, fsys ports.FileSystem, opts ...Option) *Service {
	s := &Service{
		engine:        engine,
		fs:            fsys,
		logger:        slog.New(slog.DiscardHandler),
		stagingPrefix: DefaultStagingPrefix,
		newRunID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run extracts archivePath synchronously. observe may be nil. The returned
// error is always a *model.ExtractionError.
func (s *Service) Run(ctx context.Context, archivePath string, opts Options, observe Observer) (Result, error) {
	r := &run{
		svc:     s,
		ctx:     ctx,
		opts:    opts,
		observe: observe,
		log:     s.logger.With("run_id", s.newRunID(), "archive", archivePath),
		sizes:   make(map[string]int64),
	}
	r.progress.ArchivePath = archivePath
	r.emit(model.StageStarting)

	res, err := r.execute(archivePath)
	if err != nil {
		xerr := model.Classify(err)
		r.cleanupAfterFailure()
		r.log.Error("extraction failed", "kind", xerr.Kind.String(), "error", xerr)
		if s.notifier != nil {
			s.notifier.Error("Extraction failed", fmt.Sprintf("%s: %v", filepath.Base(archivePath), xerr))
		}
		r.emit(model.StageFailed)
		return Result{}, xerr
	}

	r.progress.CurrentFile = ""
	r.progress.FilesProcessed = r.progress.TotalFiles
	r.progress.BytesProcessed = r.progress.TotalBytes
	r.emit(model.StageCompleted)
	r.log.Info("extraction completed", "final_path", res.FinalPath, "strategy", res.Strategy.String())
	return res, nil
}

// run holds the state of one extraction. It is owned by a single goroutine.
type run struct {
	svc     *Service
	ctx     context.Context
	opts    Options
	observe Observer
	log     *slog.Logger

	progress    model.Progress
	sizes       map[string]int64
	listedBytes int64

	// cleanup is removed best-effort when the run fails.
	cleanup string
}

// emit publishes the current snapshot at stage. Non-terminal events are
// dropped once the context is done.
func (r *run) emit(stage model.Stage) {
	if r.progress.Stage != stage {
		r.log.Debug("stage", "stage", stage.String())
	}
	r.progress.Stage = stage
	if r.observe == nil {
		return
	}
	if !stage.Terminal() && r.ctx.Err() != nil {
		return
	}
	r.observe(r.progress)
}

func (r *run) execute(archivePath string) (Result, error) {
	s := r.svc

	archive, err := r.resolveArchive(archivePath)
	if err != nil {
		return Result{}, err
	}
	r.progress.ArchivePath = archive.Path

	r.emit(model.StageAnalyzing)
	contents, err := s.engine.List(r.ctx, archive.Path)
	if err != nil {
		return Result{}, err
	}
	if err := checkEntryPaths(contents); err != nil {
		return Result{}, err
	}
	if contents.HasEncrypted() {
		return Result{}, model.PasswordRequired()
	}
	if r.opts.VerifyBeforeExtract {
		if err := r.verify(archive.Path); err != nil {
			return Result{}, err
		}
	}

	strategy, item := model.DetermineStrategy(contents)
	r.progress.TotalFiles = contents.FileCount()
	r.progress.TotalBytes = contents.TotalSize
	for _, e := range contents.Entries {
		if !e.IsDir {
			r.sizes[e.Path] = e.Size
		}
	}
	r.log.Debug("analyzed archive",
		"strategy", strategy.String(),
		"files", contents.FileCount(),
		"dirs", contents.DirectoryCount(),
		"bytes", contents.TotalSize)

	parent := archive.Dir()
	if err := r.checkSpace(parent, contents.TotalSize); err != nil {
		return Result{}, err
	}

	name := archive.BaseName()
	if strategy != model.MultipleFilesToFolder {
		name = item.Name
		if !isPlainName(name) {
			return Result{}, model.CorruptedArchive("unsafe top-level entry name "+strconv.Quote(name), nil)
		}
	}
	dest := filepath.Join(parent, name)

	var finalPath string
	switch {
	case strategy == model.MultipleFilesToFolder:
		finalPath, err = r.extractToNewFolder(archive, dest)
	case !s.fs.Exists(dest):
		finalPath, err = r.extractInPlace(archive, parent, dest)
	default:
		finalPath, err = r.extractViaStaging(archive, parent, dest, item)
	}
	if err != nil {
		return Result{}, err
	}

	r.emit(model.StageFinalizing)
	if r.opts.MoveToTrash && s.trash != nil {
		if err := s.trash.MoveToTrash(archive.Path); err != nil {
			r.log.Warn("moving archive to trash failed", "error", err)
		}
	}
	if r.opts.ShowCompletion && s.notifier != nil {
		s.notifier.Success("Extraction complete", fmt.Sprintf("Extracted %s", archive.Name), finalPath)
	}

	return Result{FinalPath: finalPath, Strategy: strategy}, nil
}

// resolveArchive stats the input and rejects directories and unknown
// extensions.
func (r *run) resolveArchive(archivePath string) (model.Archive, error) {
	abs, err := filepath.Abs(archivePath)
	if err != nil {
		return model.Archive{}, model.IOError("resolving archive path", err)
	}
	info, err := r.svc.fs.Stat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return model.Archive{}, model.FileNotFound(abs, err)
	case errors.Is(err, fs.ErrPermission):
		return model.Archive{}, model.PermissionDenied(abs, err)
	case err != nil:
		return model.Archive{}, err
	}
	if info.IsDir() {
		return model.Archive{}, model.UnsupportedFormat("directory")
	}

	archive := model.NewArchive(abs, info.Size(), info.ModTime())
	if archive.Format == model.FormatUnknown {
		_, suffix := model.DetectFormat(archive.Name)
		return model.Archive{}, model.UnsupportedFormat(suffix)
	}
	return archive, nil
}

// verify runs the engine's integrity test. Failures other than a missing
// password are reported as corruption.
func (r *run) verify(archivePath string) error {
	err := r.svc.engine.Test(r.ctx, archivePath)
	if err == nil {
		return nil
	}
	if ctxErr := r.ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if model.KindOf(err) == model.KindPasswordRequired {
		return err
	}
	return model.CorruptedArchive("integrity test failed", err)
}

// checkSpace compares the uncompressed size with the free space of dir. A
// failing space query is logged and does not block extraction.
func (r *run) checkSpace(dir string, required int64) error {
	available, err := r.svc.fs.AvailableSpace(dir)
	if err != nil {
		r.log.Warn("disk space check skipped", "dir", dir, "error", err)
		return nil
	}
	if required > available {
		return model.InsufficientSpace(required, available)
	}
	return nil
}

// extractToNewFolder creates a uniquely named folder and extracts into it.
func (r *run) extractToNewFolder(archive model.Archive, dest string) (string, error) {
	folder := conflict.UniqueFolderPath(dest, r.svc.fs.Exists)
	if err := r.svc.fs.Mkdir(folder, 0o755); err != nil {
		return "", fmt.Errorf("creating destination folder: %w", err)
	}
	r.cleanup = folder

	if err := r.extract(archive.Path, folder); err != nil {
		return "", err
	}
	r.cleanup = ""
	return folder, nil
}

// extractInPlace extracts a single top-level item next to the archive.
func (r *run) extractInPlace(archive model.Archive, parent, dest string) (string, error) {
	r.cleanup = dest
	if err := r.extract(archive.Path, parent); err != nil {
		return "", err
	}
	r.cleanup = ""
	return dest, nil
}

// extractViaStaging extracts into a fresh staging directory and moves the
// single top-level item to the first free name next to the archive.
func (r *run) extractViaStaging(archive model.Archive, parent, dest string, item model.ArchiveEntry) (string, error) {
	s := r.svc
	staging, err := conflict.CreateStagingDir(s.fs, parent, s.stagingPrefix)
	if err != nil {
		return "", err
	}
	r.cleanup = staging
	r.log.Debug("extracting via staging directory", "staging", staging)

	if err := r.extract(archive.Path, staging); err != nil {
		return "", err
	}

	src := filepath.Join(staging, item.Name)
	if !within(staging, src) {
		return "", model.CorruptedArchive("extracted item escapes staging directory: "+item.Name, nil)
	}

	var finalPath string
	if item.IsDir {
		finalPath = conflict.UniqueFolderPath(dest, s.fs.Exists)
	} else {
		finalPath = conflict.UniqueFilePath(dest, s.fs.Exists)
	}
	if err := s.fs.Rename(src, finalPath); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", model.IOError("destination appeared during extraction: "+finalPath, err)
		}
		return "", fmt.Errorf("moving extracted item into place: %w", err)
	}

	r.cleanup = ""
	if err := s.fs.RemoveAll(staging); err != nil {
		r.log.Warn("removing staging directory failed", "staging", staging, "error", err)
	}
	return finalPath, nil
}

// extract emits Extracting and forwards engine ticks as progress.
func (r *run) extract(archivePath, destDir string) error {
	r.emit(model.StageExtracting)
	return r.svc.engine.Extract(r.ctx, archivePath, destDir, r.onTick)
}

func (r *run) onTick(t ports.ExtractProgress) {
	if r.ctx.Err() != nil {
		return
	}
	r.progress.CurrentFile = t.CurrentFile
	r.progress.FilesProcessed = t.FilesProcessed
	if r.progress.TotalFiles > 0 && r.progress.FilesProcessed > r.progress.TotalFiles {
		r.progress.FilesProcessed = r.progress.TotalFiles
	}
	if t.BytesProcessed > 0 {
		r.progress.BytesProcessed = t.BytesProcessed
	} else if size, ok := r.sizes[t.CurrentFile]; ok {
		r.listedBytes += size
		r.progress.BytesProcessed = r.listedBytes
	}
	r.emit(model.StageExtracting)
}

// checkEntryPaths rejects listings with absolute paths or ".." segments.
func checkEntryPaths(c *model.ArchiveContents) error {
	for _, e := range c.Entries {
		raw := strings.ReplaceAll(e.Path, "\\", "/")
		if strings.HasPrefix(raw, "/") || filepath.IsAbs(e.Path) || filepath.VolumeName(e.Path) != "" {
			return model.CorruptedArchive("unsafe entry path "+strconv.Quote(e.Path), nil)
		}
		for _, seg := range strings.Split(raw, "/") {
			if seg == ".." {
				return model.CorruptedArchive("unsafe entry path "+strconv.Quote(e.Path), nil)
			}
		}
	}
	return nil
}

// isPlainName reports whether name is a single path element.
func isPlainName(name string) bool {
	switch name {
	case "", ".", "..":
		return false
	}
	return !strings.ContainsAny(name, "/\\") && filepath.Clean(name) == name
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// cleanupAfterFailure removes the staging directory or freshly created
// destination. Errors are logged only.
func (r *run) cleanupAfterFailure() {
	if r.cleanup == "" {
		return
	}
	if err := r.svc.fs.RemoveAll(r.cleanup); err != nil {
		r.log.Warn("cleanup after failure failed", "path", r.cleanup, "error", err)
	}
	r.cleanup = ""
}
