//go:build !windows

package launcher

import (
	"os/exec"
	"syscall"
)

// configureSysProcAttr starts the worker in a new session (setsid) so it
// is detached from the supervisor's terminal and survives supervisor
// exit. No Pdeathsig: the worker must outlive us.
func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
