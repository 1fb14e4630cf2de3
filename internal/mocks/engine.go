package mocks

import (
	"context"
	"path"
	"path/filepath"

	"github.com/mcdonaldj/gunzip/internal/model"
	"github.com/mcdonaldj/gunzip/internal/ports"
)

// MockEngine implements ports.ArchiveEngine for testing.
type MockEngine struct {
	// ListResults maps archive paths to listings
	ListResults map[string]*model.ArchiveContents
	// Errors maps method names ("List", "Test", "Extract") to errors
	Errors map[string]error
	// FS, when set, receives the listed entries below destDir on Extract.
	FS *MockFileSystem
	// ExtractFunc, when set, replaces the default Extract behaviour.
	ExtractFunc func(ctx context.Context, archivePath, destDir string, progress ports.ProgressFunc) error

	ListCalls    []string
	TestCalls    []string
	ExtractCalls []ExtractCall
}

// ExtractCall records parameters of an Extract call.
type ExtractCall struct {
	ArchivePath string
	DestDir     string
}

// NewMockEngine creates a new mock engine.
func NewMockEngine() *MockEngine {
	return &MockEngine{
		ListResults: make(map[string]*model.ArchiveContents),
		Errors:      make(map[string]error),
	}
}

// Name identifies the engine.
func (m *MockEngine) Name() string {
	return "mock"
}

// List returns the configured listing, or empty contents.
func (m *MockEngine) List(ctx context.Context, archivePath string) (*model.ArchiveContents, error) {
	m.ListCalls = append(m.ListCalls, archivePath)
	if err, ok := m.Errors["List"]; ok {
		return nil, err
	}
	if result, ok := m.ListResults[archivePath]; ok {
		return result, nil
	}
	return model.NewContents(nil), nil
}

// Test returns the configured "Test" error.
func (m *MockEngine) Test(ctx context.Context, archivePath string) error {
	m.TestCalls = append(m.TestCalls, archivePath)
	return m.Errors["Test"]
}

// Extract records the call, materializes the listing into FS and emits one
// progress tick per file.
func (m *MockEngine) Extract(ctx context.Context, archivePath, destDir string, progress ports.ProgressFunc) error {
	m.ExtractCalls = append(m.ExtractCalls, ExtractCall{
		ArchivePath: archivePath,
		DestDir:     destDir,
	})
	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, archivePath, destDir, progress)
	}
	if err, ok := m.Errors["Extract"]; ok {
		return err
	}

	contents := m.ListResults[archivePath]
	if contents == nil {
		return nil
	}
	files := 0
	for _, e := range contents.Entries {
		target := filepath.Join(destDir, filepath.FromSlash(e.Path))
		if m.FS != nil {
			if parent := path.Dir(e.Path); parent != "." {
				_ = m.FS.MkdirAll(filepath.Join(destDir, filepath.FromSlash(parent)), 0o755)
			}
			if e.IsDir {
				_ = m.FS.MkdirAll(target, 0o755)
			} else {
				m.FS.AddFile(target, e.Size)
			}
		}
		if e.IsDir {
			continue
		}
		files++
		if progress != nil {
			progress(ports.ExtractProgress{CurrentFile: e.Path, FilesProcessed: files})
		}
	}
	return nil
}

// Compile-time check that MockEngine implements ports.ArchiveEngine.
var _ ports.ArchiveEngine = (*MockEngine)(nil)
