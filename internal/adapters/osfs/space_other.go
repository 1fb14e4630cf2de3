//go:build !linux && !darwin && !freebsd && !windows

package osfs

import (
	"errors"
	"runtime"
)

func availableSpace(path string) (int64, error) {
	return 0, errors.New("disk space query not supported on " + runtime.GOOS)
}
