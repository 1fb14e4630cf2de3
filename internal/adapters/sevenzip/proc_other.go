//go:build !unix && !windows

package sevenzip

import "os/exec"

func configureProcess(cmd *exec.Cmd) {}
