//go:build windows

package process

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/Iron-Ham/nextron/internal/errors"
)

// setDetached starts the child in a new process group, which keeps console
// Ctrl+C events away from it.
func setDetached(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

// terminate kills the child. Windows has no SIGTERM for console processes.
func terminate(p *os.Process, _ bool) error {
	err := p.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
