// Package session guards a project against concurrent dev sessions.
//
// Two sessions in the same project would write the same app/ bundle and
// compete for the renderer port, so "nextron dev" holds a lock file in the
// project's .nextron directory for as long as it runs. A lock left behind by
// a process that no longer exists is treated as stale and replaced.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Iron-Ham/nextron/internal/errors"
	"github.com/Iron-Ham/nextron/internal/logging"
)

// LockFileName is the name of the lock file within the state directory
const LockFileName = "dev.lock"

// ErrSessionLocked is returned when another live process holds the lock
var ErrSessionLocked = errors.New("a dev session is already running in this project")

// Lock represents an acquired dev session lock
type Lock struct {
	SessionID    string    `json:"session_id"`
	PID          int       `json:"pid"`
	Hostname     string    `json:"hostname"`
	RendererPort int       `json:"renderer_port"`
	StartedAt    time.Time `json:"started_at"`

	// Internal fields (not serialized)
	lockFile string
	logger   *logging.Logger
}

// AcquireLock takes the lock in stateDir, creating the directory if needed.
// It returns an error matching ErrSessionLocked if a live process holds it.
// The logger parameter is optional and can be nil.
func AcquireLock(stateDir, sessionID string, rendererPort int, logger *logging.Logger) (*Lock, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	lockPath := filepath.Join(stateDir, LockFileName)

	existing, err := ReadLock(lockPath)
	switch {
	case err == nil:
		if isProcessAlive(existing.PID) {
			logger.Error("failed to acquire lock",
				"session_id", sessionID,
				"holder_pid", existing.PID,
				"holder_session", existing.SessionID)
			return nil, existing.lockedError()
		}
		if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove stale lock: %w", err)
		}
		logger.Warn("stale lock cleaned", "session_id", sessionID, "old_pid", existing.PID)
	case !os.IsNotExist(err):
		// Unreadable lock files cannot name a live holder.
		if err := os.Remove(lockPath); err != nil {
			return nil, fmt.Errorf("failed to remove corrupt lock: %w", err)
		}
		logger.Warn("corrupt lock removed", "session_id", sessionID, "error", err.Error())
	}

	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	lock := &Lock{
		SessionID:    sessionID,
		PID:          os.Getpid(),
		Hostname:     hostname,
		RendererPort: rendererPort,
		StartedAt:    time.Now(),
		lockFile:     lockPath,
		logger:       logger,
	}

	data, err := json.MarshalIndent(lock, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lock: %w", err)
	}

	// O_EXCL makes a concurrent acquirer fail instead of overwriting.
	f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			if existing, readErr := ReadLock(lockPath); readErr == nil {
				return nil, existing.lockedError()
			}
			return nil, ErrSessionLocked
		}
		return nil, fmt.Errorf("failed to create lock file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		_ = os.Remove(lockPath)
		return nil, fmt.Errorf("failed to write lock file: %w", err)
	}

	logger.Info("session lock acquired", "session_id", sessionID, "pid", lock.PID)
	return lock, nil
}

func (l *Lock) lockedError() error {
	return fmt.Errorf("%w: PID %d on %s (renderer port %d)", ErrSessionLocked, l.PID, l.Hostname, l.RendererPort)
}

// Release removes the lock file if this process still owns it.
// Safe to call multiple times.
func (l *Lock) Release() error {
	if l == nil || l.lockFile == "" {
		return nil
	}

	existing, err := ReadLock(l.lockFile)
	if err != nil {
		// Lock file doesn't exist or can't be read - nothing to do
		return nil
	}
	if existing.PID != l.PID || existing.SessionID != l.SessionID {
		return nil
	}

	if err := os.Remove(l.lockFile); err != nil {
		return err
	}
	if l.logger != nil {
		l.logger.Info("session lock released", "session_id", l.SessionID)
	}
	return nil
}

// ReadLock reads a lock file and returns the Lock info.
func ReadLock(lockPath string) (*Lock, error) {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return nil, err
	}

	var lock Lock
	if err := json.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("failed to parse lock file: %w", err)
	}
	lock.lockFile = lockPath
	return &lock, nil
}

// IsLocked reports whether a live process holds the lock in stateDir.
// The lock info is returned even when it is stale.
func IsLocked(stateDir string) (*Lock, bool) {
	lock, err := ReadLock(filepath.Join(stateDir, LockFileName))
	if err != nil {
		return nil, false
	}
	return lock, isProcessAlive(lock.PID)
}

// isProcessAlive checks if a process with the given PID is still running.
func isProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	// On Unix, sending signal 0 checks if process exists without affecting it
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
