package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Iron-Ham/nextron/internal/errors"
)

func TestAcquireLock(t *testing.T) {
	stateDir := filepath.Join(t.TempDir(), ".nextron")

	lock, err := AcquireLock(stateDir, "session-1", 8888, nil)
	if err != nil {
		t.Fatalf("AcquireLock() error = %v", err)
	}

	info, locked := IsLocked(stateDir)
	if !locked {
		t.Fatal("project should be locked")
	}
	if info.PID != os.Getpid() {
		t.Errorf("Lock PID = %d, want %d", info.PID, os.Getpid())
	}
	if info.SessionID != "session-1" || info.RendererPort != 8888 {
		t.Errorf("lock = %+v", info)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if _, locked := IsLocked(stateDir); locked {
		t.Error("project should not be locked after release")
	}
	if err := lock.Release(); err != nil {
		t.Errorf("second Release() error = %v", err)
	}
}

func TestAcquireLock_HeldByLiveProcess(t *testing.T) {
	stateDir := t.TempDir()

	first, err := AcquireLock(stateDir, "session-1", 8888, nil)
	if err != nil {
		t.Fatalf("AcquireLock() error = %v", err)
	}
	defer func() { _ = first.Release() }()

	_, err = AcquireLock(stateDir, "session-2", 3000, nil)
	if !errors.Is(err, ErrSessionLocked) {
		t.Fatalf("second AcquireLock() error = %v, want ErrSessionLocked", err)
	}
}

func TestAcquireLock_StaleLock(t *testing.T) {
	stateDir := t.TempDir()

	// A PID far above any real pid_max.
	stale := Lock{SessionID: "old", PID: 1 << 30, Hostname: "elsewhere", StartedAt: time.Now()}
	data, err := json.Marshal(stale)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(stateDir, LockFileName), data, 0644); err != nil {
		t.Fatal(err)
	}

	if info, locked := IsLocked(stateDir); locked || info == nil {
		t.Fatalf("IsLocked() = %v, %v; want stale lock info", info, locked)
	}

	lock, err := AcquireLock(stateDir, "new", 8888, nil)
	if err != nil {
		t.Fatalf("AcquireLock() over a stale lock error = %v", err)
	}
	defer func() { _ = lock.Release() }()

	info, _ := IsLocked(stateDir)
	if info.SessionID != "new" {
		t.Errorf("SessionID = %q, want %q", info.SessionID, "new")
	}
}

func TestRelease_NotOwner(t *testing.T) {
	stateDir := t.TempDir()

	lock, err := AcquireLock(stateDir, "mine", 8888, nil)
	if err != nil {
		t.Fatal(err)
	}

	// Another session took over the file.
	other := Lock{SessionID: "theirs", PID: os.Getpid(), StartedAt: time.Now()}
	data, _ := json.Marshal(other)
	if err := os.WriteFile(filepath.Join(stateDir, LockFileName), data, 0644); err != nil {
		t.Fatal(err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(stateDir, LockFileName)); err != nil {
		t.Error("Release() removed a lock it does not own")
	}
}

func TestAcquireLock_CorruptLock(t *testing.T) {
	stateDir := t.TempDir()
	path := filepath.Join(stateDir, LockFileName)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadLock(path); err == nil {
		t.Error("ReadLock() should fail on a corrupt file")
	}

	lock, err := AcquireLock(stateDir, "fresh", 8888, nil)
	if err != nil {
		t.Fatalf("AcquireLock() over a corrupt lock error = %v", err)
	}
	defer func() { _ = lock.Release() }()
}
