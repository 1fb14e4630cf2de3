// Package systrash moves files into the desktop trash: the freedesktop.org
// trash on Linux and BSD, the Finder trash on macOS and the recycle bin on
// Windows. Files on another volume go to that volume's trash directory.
package systrash

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Bios-Marcel/wastebasket/v2"

	"github.com/mcdonaldj/gunzip/internal/ports"
)

// Trash implements ports.Trash on the platform trash.
type Trash struct {
	trash func(paths ...string) error
}

// New creates a Trash backed by the user's desktop trash.
func New() *Trash {
	return &Trash{trash: wastebasket.Trash}
}

// MoveToTrash moves path into the trash.
func (t *Trash) MoveToTrash(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}
	if _, err := os.Lstat(abs); err != nil {
		return fmt.Errorf("trashing %s: %w", abs, err)
	}
	if err := t.trash(abs); err != nil {
		return fmt.Errorf("moving %s to trash: %w", abs, err)
	}
	return nil
}

// Compile-time check that Trash implements ports.Trash.
var _ ports.Trash = (*Trash)(nil)
