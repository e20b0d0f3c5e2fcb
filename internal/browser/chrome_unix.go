//go:build !windows

package browser

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setProcessGroup detaches the browser into its own process group so it
// outlives the assistant and its renderers can be signalled together.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// killProcessGroup sends a signal to the entire browser process group.
// force=false sends SIGTERM (graceful), force=true sends SIGKILL.
func killProcessGroup(cmd *exec.Cmd, force bool) {
	if cmd.Process == nil {
		return
	}
	sig := unix.SIGTERM
	if force {
		sig = unix.SIGKILL
	}
	// Negative PID targets the entire process group
	_ = unix.Kill(-cmd.Process.Pid, sig)
}
