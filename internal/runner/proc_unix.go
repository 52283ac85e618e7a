//go:build unix

package runner

import (
	"os/exec"
	"syscall"
	"time"
)

const waitDelay = 2 * time.Second

// configureProcess puts the child in its own process group so cancellation
// also reaches the uploader and serial helpers it spawns.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = waitDelay
}
