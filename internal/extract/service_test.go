package extract

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/mcdonaldj/gunzip/internal/mocks"
	"github.com/mcdonaldj/gunzip/internal/model"
	"github.com/mcdonaldj/gunzip/internal/ports"
)

type fixture struct {
	fs       *mocks.MockFileSystem
	engine   *mocks.MockEngine
	notifier *mocks.MockNotifier
	trash    *mocks.MockTrash
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mockFS := mocks.NewMockFileSystem()
	mockFS.AddDir("/test")
	engine := mocks.NewMockEngine()
	engine.FS = mockFS
	notifier := mocks.NewMockNotifier()
	trash := mocks.NewMockTrash()
	return &fixture{
		fs:       mockFS,
		engine:   engine,
		notifier: notifier,
		trash:    trash,
		svc:      NewService(engine, mockFS, WithNotifier(notifier), WithTrash(trash)),
	}
}

func (f *fixture) addArchive(path string, entries ...model.ArchiveEntry) {
	f.fs.AddFile(path, 100)
	f.engine.ListResults[path] = model.NewContents(entries)
}

// recorder collects progress events.
type recorder struct {
	events []model.Progress
}

func (r *recorder) observe(p model.Progress) {
	r.events = append(r.events, p)
}

// stages returns the stage sequence with consecutive repeats collapsed.
func (r *recorder) stages() []model.Stage {
	var out []model.Stage
	for _, e := range r.events {
		if len(out) == 0 || out[len(out)-1] != e.Stage {
			out = append(out, e.Stage)
		}
	}
	return out
}

func equalStages(a, b []model.Stage) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func file(p string, size int64) model.ArchiveEntry { return model.NewEntry(p, false, size) }
func dir(p string) model.ArchiveEntry              { return model.NewEntry(p, true, 0) }

var stagingPattern = regexp.MustCompile(`^/test/gunzip_[0-9a-f]{6}$`)

func TestMultipleFilesCreateFolder(t *testing.T) {
	f := newFixture(t)
	f.addArchive("/test/project.zip", file("file1.txt", 10), file("file2.txt", 20))

	res, err := f.svc.Run(context.Background(), "/test/project.zip", Options{}, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.FinalPath != "/test/project" {
		t.Errorf("FinalPath = %q, expected /test/project", res.FinalPath)
	}
	if res.Strategy != model.MultipleFilesToFolder {
		t.Errorf("Strategy = %v, expected new-folder", res.Strategy)
	}
	if len(f.engine.ExtractCalls) != 1 || f.engine.ExtractCalls[0].DestDir != "/test/project" {
		t.Errorf("ExtractCalls = %+v", f.engine.ExtractCalls)
	}
	if !f.fs.Exists("/test/project/file1.txt") {
		t.Errorf("file1.txt not extracted into folder: %v", f.fs.Paths())
	}
}

func TestMultipleFilesFolderConflict(t *testing.T) {
	f := newFixture(t)
	f.addArchive("/test/project.zip", file("file1.txt", 10), file("file2.txt", 20))
	f.fs.AddDir("/test/project")
	f.fs.AddDir("/test/project-1")

	res, err := f.svc.Run(context.Background(), "/test/project.zip", Options{}, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.FinalPath != "/test/project-2" {
		t.Errorf("FinalPath = %q, expected /test/project-2", res.FinalPath)
	}
}

func TestSingleFileConflictUsesStaging(t *testing.T) {
	f := newFixture(t)
	f.addArchive("/test/document.zip", file("report.pdf", 10))
	f.fs.AddFile("/test/report.pdf", 5)

	res, err := f.svc.Run(context.Background(), "/test/document.zip", Options{}, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.FinalPath != "/test/report-1.pdf" {
		t.Errorf("FinalPath = %q, expected /test/report-1.pdf", res.FinalPath)
	}
	if res.Strategy != model.SingleFileToDirectory {
		t.Errorf("Strategy = %v, expected single-file", res.Strategy)
	}

	if len(f.engine.ExtractCalls) != 1 {
		t.Fatalf("ExtractCalls = %+v", f.engine.ExtractCalls)
	}
	staging := f.engine.ExtractCalls[0].DestDir
	if !stagingPattern.MatchString(staging) {
		t.Errorf("staging dir %q does not match %s", staging, stagingPattern)
	}
	if f.fs.Exists(staging) {
		t.Error("staging directory should be removed")
	}
	if len(f.fs.RenameCalls) != 1 || f.fs.RenameCalls[0].OldPath != staging+"/report.pdf" {
		t.Errorf("RenameCalls = %+v", f.fs.RenameCalls)
	}
	if !f.fs.Exists("/test/report.pdf") || !f.fs.Exists("/test/report-1.pdf") {
		t.Errorf("expected both report files: %v", f.fs.Paths())
	}
}

func TestSingleFolderWithoutConflictExtractsInPlace(t *testing.T) {
	f := newFixture(t)
	f.addArchive("/test/archive.zip", dir("project"), file("project/main.go", 10))

	res, err := f.svc.Run(context.Background(), "/test/archive.zip", Options{}, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.FinalPath != "/test/project" || res.Strategy != model.SingleFolderToDirectory {
		t.Errorf("Result = %+v", res)
	}
	if f.engine.ExtractCalls[0].DestDir != "/test" {
		t.Errorf("expected extraction into the parent, got %q", f.engine.ExtractCalls[0].DestDir)
	}
	for _, p := range f.fs.MkdirCalls {
		if strings.Contains(p, "gunzip_") {
			t.Errorf("no staging directory expected, created %q", p)
		}
	}
}

func TestSingleFolderConflict(t *testing.T) {
	f := newFixture(t)
	f.addArchive("/test/archive.zip", dir("project"), file("project/main.go", 10))
	f.fs.AddDir("/test/project")

	res, err := f.svc.Run(context.Background(), "/test/archive.zip", Options{}, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.FinalPath != "/test/project-1" {
		t.Errorf("FinalPath = %q, expected /test/project-1", res.FinalPath)
	}
	if !f.fs.Exists("/test/project-1/main.go") {
		t.Errorf("folder contents not moved: %v", f.fs.Paths())
	}
}

func TestSingleFileNameWithoutExtension(t *testing.T) {
	f := newFixture(t)
	f.addArchive("/test/readme.zip", file("README", 10))
	f.fs.AddFile("/test/README", 1)

	res, err := f.svc.Run(context.Background(), "/test/readme.zip", Options{}, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.FinalPath != "/test/README-1" {
		t.Errorf("FinalPath = %q, expected /test/README-1", res.FinalPath)
	}
}

func TestInsufficientSpace(t *testing.T) {
	f := newFixture(t)
	f.fs.Available = 1024
	f.addArchive("/test/big.zip", file("a.bin", 1024), file("b.bin", 1024))
	rec := &recorder{}

	_, err := f.svc.Run(context.Background(), "/test/big.zip", Options{}, rec.observe)

	var xerr *model.ExtractionError
	if !errors.As(err, &xerr) || xerr.Kind != model.KindInsufficientSpace {
		t.Fatalf("expected insufficient space, got %v", err)
	}
	if xerr.Required != 2048 || xerr.Available != 1024 {
		t.Errorf("Required/Available = %d/%d, expected 2048/1024", xerr.Required, xerr.Available)
	}
	if len(f.fs.MkdirCalls) != 0 {
		t.Errorf("no directories may be created, got %v", f.fs.MkdirCalls)
	}
	if len(f.engine.ExtractCalls) != 0 {
		t.Error("engine must not be invoked")
	}
	want := []model.Stage{model.StageStarting, model.StageAnalyzing, model.StageFailed}
	if !equalStages(rec.stages(), want) {
		t.Errorf("stages = %v, expected %v", rec.stages(), want)
	}
	if len(f.notifier.ErrorCalls) != 1 {
		t.Errorf("expected one error notification, got %d", len(f.notifier.ErrorCalls))
	}
}

func TestSpaceProbeFailureDoesNotBlock(t *testing.T) {
	f := newFixture(t)
	f.fs.AvailableErr = errors.New("statfs unsupported")
	f.addArchive("/test/a.zip", file("a.txt", 1))

	if _, err := f.svc.Run(context.Background(), "/test/a.zip", Options{}, nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
}

func TestStageOrdering(t *testing.T) {
	f := newFixture(t)
	f.addArchive("/test/project.zip", file("file1.txt", 512), file("file2.txt", 512))
	rec := &recorder{}

	if _, err := f.svc.Run(context.Background(), "/test/project.zip", Options{}, rec.observe); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []model.Stage{
		model.StageStarting,
		model.StageAnalyzing,
		model.StageExtracting,
		model.StageFinalizing,
		model.StageCompleted,
	}
	if !equalStages(rec.stages(), want) {
		t.Errorf("stages = %v, expected %v", rec.stages(), want)
	}

	for i, e := range rec.events[:len(rec.events)-1] {
		if e.Stage.Terminal() {
			t.Errorf("event %d is terminal but not last", i)
		}
	}
	last := rec.events[len(rec.events)-1]
	if last.Percentage() != 100 {
		t.Errorf("final percentage = %v, expected 100", last.Percentage())
	}
}

func TestProgressBytesFromListing(t *testing.T) {
	f := newFixture(t)
	f.addArchive("/test/project.zip", file("file1.txt", 512), file("file2.txt", 1536))
	rec := &recorder{}

	if _, err := f.svc.Run(context.Background(), "/test/project.zip", Options{}, rec.observe); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var ticks []model.Progress
	for _, e := range rec.events {
		if e.Stage == model.StageExtracting && e.CurrentFile != "" {
			ticks = append(ticks, e)
		}
	}
	if len(ticks) != 2 {
		t.Fatalf("expected 2 file ticks, got %d", len(ticks))
	}
	if ticks[0].BytesProcessed != 512 || ticks[0].Percentage() != 25 {
		t.Errorf("first tick = %+v (%v%%)", ticks[0], ticks[0].Percentage())
	}
	if ticks[1].FilesProcessed != 2 || ticks[1].TotalFiles != 2 || ticks[1].BytesProcessed != 2048 {
		t.Errorf("second tick = %+v", ticks[1])
	}
}

func TestEngineReportedBytesWin(t *testing.T) {
	f := newFixture(t)
	f.addArchive("/test/project.zip", file("file1.txt", 100), file("file2.txt", 100))
	f.engine.ExtractFunc = func(ctx context.Context, archivePath, destDir string, progress ports.ProgressFunc) error {
		progress(ports.ExtractProgress{CurrentFile: "file1.txt", FilesProcessed: 5, BytesProcessed: 150})
		return nil
	}
	rec := &recorder{}

	if _, err := f.svc.Run(context.Background(), "/test/project.zip", Options{}, rec.observe); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	var tick *model.Progress
	for i := range rec.events {
		if rec.events[i].CurrentFile == "file1.txt" {
			tick = &rec.events[i]
		}
	}
	if tick == nil {
		t.Fatal("tick not forwarded")
	}
	if tick.BytesProcessed != 150 {
		t.Errorf("BytesProcessed = %d, expected engine value 150", tick.BytesProcessed)
	}
	if tick.FilesProcessed != 2 {
		t.Errorf("FilesProcessed = %d, expected clamp to 2", tick.FilesProcessed)
	}
}

func TestArchiveErrors(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(f *fixture)
		path     string
		wantKind model.ErrorKind
	}{
		{
			name:     "missing archive",
			setup:    func(f *fixture) {},
			path:     "/test/missing.zip",
			wantKind: model.KindFileNotFound,
		},
		{
			name: "permission denied",
			setup: func(f *fixture) {
				f.fs.Errors["/test/secret.zip"] = &fs.PathError{Op: "stat", Path: "/test/secret.zip", Err: fs.ErrPermission}
			},
			path:     "/test/secret.zip",
			wantKind: model.KindPermissionDenied,
		},
		{
			name:     "unknown extension",
			setup:    func(f *fixture) { f.fs.AddFile("/test/document.pdf", 10) },
			path:     "/test/document.pdf",
			wantKind: model.KindUnsupportedFormat,
		},
		{
			name:     "directory",
			setup:    func(f *fixture) { f.fs.AddDir("/test/folder.zip") },
			path:     "/test/folder.zip",
			wantKind: model.KindUnsupportedFormat,
		},
		{
			name: "encrypted entries",
			setup: func(f *fixture) {
				e := file("secret.txt", 10)
				e.Encrypted = true
				f.addArchive("/test/locked.zip", e, file("plain.txt", 1))
			},
			path:     "/test/locked.zip",
			wantKind: model.KindPasswordRequired,
		},
		{
			name: "listing fails",
			setup: func(f *fixture) {
				f.fs.AddFile("/test/broken.zip", 10)
				f.engine.Errors["List"] = model.CorruptedArchive("Can not open the file as archive", nil)
			},
			path:     "/test/broken.zip",
			wantKind: model.KindCorruptedArchive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f)
			rec := &recorder{}

			_, err := f.svc.Run(context.Background(), tt.path, Options{}, rec.observe)
			if got := model.KindOf(err); got != tt.wantKind {
				t.Errorf("kind = %v, expected %v (%v)", got, tt.wantKind, err)
			}
			if len(f.engine.ExtractCalls) != 0 {
				t.Error("engine Extract must not run")
			}
			last := rec.events[len(rec.events)-1]
			if last.Stage != model.StageFailed {
				t.Errorf("last stage = %v, expected failed", last.Stage)
			}
		})
	}
}

func TestFileNotFoundCarriesPath(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Run(context.Background(), "/test/missing.zip", Options{}, nil)
	var xerr *model.ExtractionError
	if !errors.As(err, &xerr) || xerr.Path != "/test/missing.zip" {
		t.Errorf("expected FileNotFound with path, got %+v", xerr)
	}
	if len(f.engine.ListCalls) != 0 {
		t.Error("List must not run for a missing archive")
	}
}

func TestVerifyBeforeExtract(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		f := newFixture(t)
		f.addArchive("/test/a.zip", file("a.txt", 1))
		if _, err := f.svc.Run(context.Background(), "/test/a.zip", Options{}, nil); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if len(f.engine.TestCalls) != 0 {
			t.Error("Test should not run when verification is off")
		}
	})

	t.Run("integrity failure", func(t *testing.T) {
		f := newFixture(t)
		f.addArchive("/test/a.zip", file("a.txt", 1))
		f.engine.Errors["Test"] = model.EngineError(2, "CRC Failed")

		_, err := f.svc.Run(context.Background(), "/test/a.zip", Options{VerifyBeforeExtract: true}, nil)
		if model.KindOf(err) != model.KindCorruptedArchive {
			t.Errorf("expected corrupted archive, got %v", err)
		}
		if len(f.engine.ExtractCalls) != 0 {
			t.Error("engine Extract must not run")
		}
	})

	t.Run("password", func(t *testing.T) {
		f := newFixture(t)
		f.addArchive("/test/a.zip", file("a.txt", 1))
		f.engine.Errors["Test"] = model.PasswordRequired()

		_, err := f.svc.Run(context.Background(), "/test/a.zip", Options{VerifyBeforeExtract: true}, nil)
		if model.KindOf(err) != model.KindPasswordRequired {
			t.Errorf("expected password required, got %v", err)
		}
	})
}

func TestEngineFailureRemovesFreshFolder(t *testing.T) {
	f := newFixture(t)
	f.addArchive("/test/project.zip", file("file1.txt", 10), file("file2.txt", 20))
	f.engine.Errors["Extract"] = model.EngineError(2, "Data Error")

	_, err := f.svc.Run(context.Background(), "/test/project.zip", Options{}, nil)
	if model.KindOf(err) != model.KindEngine {
		t.Fatalf("expected engine error, got %v", err)
	}
	if f.fs.Exists("/test/project") {
		t.Error("fresh folder should be removed after failure")
	}
	if len(f.notifier.ErrorCalls) != 1 || !strings.Contains(f.notifier.ErrorCalls[0].Message, "project.zip") {
		t.Errorf("ErrorCalls = %+v", f.notifier.ErrorCalls)
	}
}

func TestEngineFailureRemovesStaging(t *testing.T) {
	f := newFixture(t)
	f.addArchive("/test/document.zip", file("report.pdf", 10))
	f.fs.AddFile("/test/report.pdf", 5)
	f.engine.Errors["Extract"] = errors.New("boom")

	_, err := f.svc.Run(context.Background(), "/test/document.zip", Options{}, nil)
	if model.KindOf(err) != model.KindUnknown {
		t.Fatalf("expected unknown error, got %v", err)
	}
	staging := f.engine.ExtractCalls[0].DestDir
	if f.fs.Exists(staging) {
		t.Error("staging directory should be removed after failure")
	}
	if !f.fs.Exists("/test/report.pdf") {
		t.Error("existing file must be untouched")
	}
}

func TestCleanupErrorDoesNotMaskFailure(t *testing.T) {
	f := newFixture(t)
	f.addArchive("/test/project.zip", file("file1.txt", 10), file("file2.txt", 20))
	f.engine.ExtractFunc = func(ctx context.Context, archivePath, destDir string, progress ports.ProgressFunc) error {
		f.fs.Errors[destDir] = errors.New("device busy")
		return model.EngineError(2, "Data Error")
	}

	_, err := f.svc.Run(context.Background(), "/test/project.zip", Options{}, nil)
	if model.KindOf(err) != model.KindEngine {
		t.Errorf("expected original engine error, got %v", err)
	}
	if len(f.fs.RemoveAllCalls) != 1 || f.fs.RemoveAllCalls[0] != "/test/project" {
		t.Errorf("RemoveAllCalls = %v", f.fs.RemoveAllCalls)
	}
}

func TestLateConflictIsIOError(t *testing.T) {
	f := newFixture(t)
	f.addArchive("/test/document.zip", file("report.pdf", 10))
	f.fs.AddFile("/test/report.pdf", 5)
	f.fs.RenameErr = &os.LinkError{Op: "rename", Old: "a", New: "/test/report-1.pdf", Err: fs.ErrExist}

	_, err := f.svc.Run(context.Background(), "/test/document.zip", Options{}, nil)
	if model.KindOf(err) != model.KindIO {
		t.Errorf("expected i/o error, got %v", err)
	}
	if f.fs.Exists(f.engine.ExtractCalls[0].DestDir) {
		t.Error("staging directory should be removed")
	}
}

func TestMoveToTrash(t *testing.T) {
	t.Run("moved after success", func(t *testing.T) {
		f := newFixture(t)
		f.addArchive("/test/a.zip", file("a.txt", 1))
		if _, err := f.svc.Run(context.Background(), "/test/a.zip", Options{MoveToTrash: true}, nil); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if len(f.trash.Moved) != 1 || f.trash.Moved[0] != "/test/a.zip" {
			t.Errorf("Moved = %v", f.trash.Moved)
		}
	})

	t.Run("not requested", func(t *testing.T) {
		f := newFixture(t)
		f.addArchive("/test/a.zip", file("a.txt", 1))
		if _, err := f.svc.Run(context.Background(), "/test/a.zip", Options{}, nil); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if len(f.trash.Moved) != 0 {
			t.Errorf("Moved = %v, expected none", f.trash.Moved)
		}
	})

	t.Run("trash failure keeps success", func(t *testing.T) {
		f := newFixture(t)
		f.addArchive("/test/a.zip", file("a.txt", 1))
		f.trash.Err = errors.New("trash unavailable")
		if _, err := f.svc.Run(context.Background(), "/test/a.zip", Options{MoveToTrash: true}, nil); err != nil {
			t.Errorf("trash failure must not fail the run: %v", err)
		}
	})

	t.Run("not moved on failure", func(t *testing.T) {
		f := newFixture(t)
		f.addArchive("/test/a.zip", file("a.txt", 1))
		f.engine.Errors["Extract"] = errors.New("boom")
		_, _ = f.svc.Run(context.Background(), "/test/a.zip", Options{MoveToTrash: true}, nil)
		if len(f.trash.Moved) != 0 {
			t.Errorf("Moved = %v, expected none", f.trash.Moved)
		}
	})
}

func TestSuccessNotification(t *testing.T) {
	f := newFixture(t)
	f.addArchive("/test/a.zip", file("a.txt", 1))

	if _, err := f.svc.Run(context.Background(), "/test/a.zip", Options{ShowCompletion: true}, nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(f.notifier.SuccessCalls) != 1 || f.notifier.SuccessCalls[0].FinalPath != "/test/a.txt" {
		t.Errorf("SuccessCalls = %+v", f.notifier.SuccessCalls)
	}

	if _, err := f.svc.Run(context.Background(), "/test/a.zip", Options{}, nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(f.notifier.SuccessCalls) != 1 {
		t.Error("no notification expected when completion display is off")
	}
}

func TestCancellation(t *testing.T) {
	f := newFixture(t)
	f.addArchive("/test/project.zip", file("file1.txt", 10), file("file2.txt", 20))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.engine.ExtractFunc = func(ctx context.Context, archivePath, destDir string, progress ports.ProgressFunc) error {
		progress(ports.ExtractProgress{CurrentFile: "file1.txt", FilesProcessed: 1})
		cancel()
		progress(ports.ExtractProgress{CurrentFile: "file2.txt", FilesProcessed: 2})
		return ctx.Err()
	}
	rec := &recorder{}

	_, err := f.svc.Run(ctx, "/test/project.zip", Options{MoveToTrash: true}, rec.observe)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if model.KindOf(err) != model.KindUnknown {
		t.Errorf("kind = %v, expected unknown", model.KindOf(err))
	}
	for _, e := range rec.events {
		if e.CurrentFile == "file2.txt" {
			t.Error("progress after cancellation must be dropped")
		}
	}
	if last := rec.events[len(rec.events)-1]; last.Stage != model.StageFailed {
		t.Errorf("last stage = %v, expected failed", last.Stage)
	}
	if f.fs.Exists("/test/project") {
		t.Error("fresh folder should be removed after cancellation")
	}
	if len(f.trash.Moved) != 0 {
		t.Error("archive must not be trashed after cancellation")
	}
}

func TestRejectsEntriesOutsideArchiveFolder(t *testing.T) {
	tests := []struct {
		name    string
		entries []model.ArchiveEntry
	}{
		{"parent traversal", []model.ArchiveEntry{file("../payload.txt", 5)}},
		{"parent directory entry", []model.ArchiveEntry{dir(".."), file("../payload.txt", 5)}},
		{"nested traversal", []model.ArchiveEntry{dir("a"), file("a/../../payload.txt", 5)}},
		{"backslash traversal", []model.ArchiveEntry{file(`..\payload.txt`, 5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.addArchive("/test/evil.zip", tt.entries...)
			f.fs.AddFile("/test/precious.doc", 1)

			_, err := f.svc.Run(context.Background(), "/test/evil.zip", Options{}, nil)
			if model.KindOf(err) != model.KindCorruptedArchive {
				t.Fatalf("expected corrupted archive error, got %v", err)
			}
			if len(f.engine.ExtractCalls) != 0 {
				t.Errorf("nothing should be extracted: %+v", f.engine.ExtractCalls)
			}
			if len(f.fs.RenameCalls) != 0 {
				t.Errorf("nothing should be renamed: %+v", f.fs.RenameCalls)
			}
			if !f.fs.Exists("/test") || !f.fs.Exists("/test/precious.doc") {
				t.Errorf("parent folder was touched: %v", f.fs.Paths())
			}
		})
	}
}

func TestIsPlainName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"report.pdf", true},
		{"project", true},
		{"..report", true},
		{"", false},
		{".", false},
		{"..", false},
		{"a/b", false},
		{`a\b`, false},
	}
	for _, tt := range tests {
		if got := isPlainName(tt.name); got != tt.want {
			t.Errorf("isPlainName(%q) = %v, expected %v", tt.name, got, tt.want)
		}
	}
}

func TestWithin(t *testing.T) {
	if !within("/test/gunzip_abc", "/test/gunzip_abc/project") {
		t.Error("child should be within staging")
	}
	for _, p := range []string{"/test/gunzip_abc", "/test", "/test/gunzip_abcd/x", "/other"} {
		if within("/test/gunzip_abc", p) {
			t.Errorf("%q should not be within staging", p)
		}
	}
}

func TestCustomStagingPrefix(t *testing.T) {
	f := newFixture(t)
	f.svc = NewService(f.engine, f.fs, WithStagingPrefix("unpack"))
	f.addArchive("/test/document.zip", file("report.pdf", 10))
	f.fs.AddFile("/test/report.pdf", 5)

	if _, err := f.svc.Run(context.Background(), "/test/document.zip", Options{}, nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.HasPrefix(f.engine.ExtractCalls[0].DestDir, "/test/unpack_") {
		t.Errorf("staging = %q, expected unpack_ prefix", f.engine.ExtractCalls[0].DestDir)
	}
}

func TestRunIDLogged(t *testing.T) {
	f := newFixture(t)
	var buf bytes.Buffer
	f.svc = NewService(f.engine, f.fs, WithLogger(slog.New(slog.NewJSONHandler(&buf, nil))))
	f.svc.newRunID = func() string { return "run-1" }
	f.addArchive("/test/a.zip", file("a.txt", 1))

	if _, err := f.svc.Run(context.Background(), "/test/a.zip", Options{}, nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"run_id":"run-1"`) {
		t.Errorf("log output missing run_id: %s", buf.String())
	}
}
