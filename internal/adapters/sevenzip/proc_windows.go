//go:build windows

package sevenzip

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// configureProcess suppresses the console window that would otherwise flash
// up when launched from a GUI file association.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: windows.CREATE_NO_WINDOW,
	}
}
