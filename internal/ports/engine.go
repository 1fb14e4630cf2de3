package ports

import (
	"context"

	"github.com/mcdonaldj/gunzip/internal/model"
)

// ExtractProgress is one progress tick reported by an engine during Extract.
type ExtractProgress struct {
	CurrentFile    string
	FilesProcessed int
	BytesProcessed int64
}

// ProgressFunc receives extraction ticks. It is called from the goroutine
// running Extract.
type ProgressFunc func(ExtractProgress)

// ArchiveEngine abstracts the tool that reads and unpacks archives.
// Production code uses the sevenzip or native adapters; tests use MockEngine.
type ArchiveEngine interface {
	// Name identifies the engine in logs and CLI output.
	Name() string

	// List returns the archive's entries in the order reported by the engine.
	List(ctx context.Context, archivePath string) (*model.ArchiveContents, error)

	// Test verifies archive integrity. A nil error means the archive is intact.
	Test(ctx context.Context, archivePath string) error

	// Extract unpacks the archive into destDir, overwriting existing files.
	// progress may be nil.
	Extract(ctx context.Context, archivePath, destDir string, progress ProgressFunc) error
}
