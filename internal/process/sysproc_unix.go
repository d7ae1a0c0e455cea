//go:build unix

package process

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/Iron-Ham/nextron/internal/errors"
)

// setDetached puts the child in a new process group so terminal-generated
// signals are not delivered to it.
func setDetached(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// terminate sends SIGTERM to the child, or to its whole group when group is set.
func terminate(p *os.Process, group bool) error {
	if group {
		err := syscall.Kill(-p.Pid, syscall.SIGTERM)
		if errors.Is(err, syscall.ESRCH) {
			return nil
		}
		return err
	}

	err := p.Signal(syscall.SIGTERM)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
