package engine

import (
	"context"
	"path/filepath"

	"github.com/mcdonaldj/gunzip/internal/model"
	"github.com/mcdonaldj/gunzip/internal/ports"
)

// tarRouter sends compressed tarballs to a second engine. 7-Zip only
// unwraps the outer compression of a .tar.gz and would leave the inner .tar
// behind as a single file.
type tarRouter struct {
	primary ports.ArchiveEngine
	tar     ports.ArchiveEngine
}

func newTarRouter(primary, tar ports.ArchiveEngine) *tarRouter {
	return &tarRouter{primary: primary, tar: tar}
}

// Name identifies the primary engine.
func (r *tarRouter) Name() string {
	return r.primary.Name()
}

func (r *tarRouter) pick(archivePath string) ports.ArchiveEngine {
	if format, _ := model.DetectFormat(filepath.Base(archivePath)); format.CompressedTar() {
		return r.tar
	}
	return r.primary
}

func (r *tarRouter) List(ctx context.Context, archivePath string) (*model.ArchiveContents, error) {
	return r.pick(archivePath).List(ctx, archivePath)
}

func (r *tarRouter) Test(ctx context.Context, archivePath string) error {
	return r.pick(archivePath).Test(ctx, archivePath)
}

func (r *tarRouter) Extract(ctx context.Context, archivePath, destDir string, progress ports.ProgressFunc) error {
	return r.pick(archivePath).Extract(ctx, archivePath, destDir, progress)
}

// Compile-time check that tarRouter implements ports.ArchiveEngine.
var _ ports.ArchiveEngine = (*tarRouter)(nil)
