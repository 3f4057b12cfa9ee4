package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redcode-editor/redcode/internal/logging"
)

// LockFileName is the name of the lock file within the state directory.
const LockFileName = "workspace.lock"

// ErrWorkspaceLocked is returned when another live redcode process owns the
// workspace state.
var ErrWorkspaceLocked = errors.New("workspace is locked by another process")

// Lock marks the state directory as owned by one process, so two editors
// never overwrite each other's workspace state. Editing works without it;
// only Restore and SaveState are skipped.
type Lock struct {
	PID       int       `json:"pid"`
	Hostname  string    `json:"hostname"`
	StartedAt time.Time `json:"started_at"`

	lockFile string
	logger   *logging.Logger
}

// AcquireLock takes the workspace lock in stateDir. A lock left by a dead
// process is removed and taken over. logger may be nil.
func AcquireLock(stateDir string, logger *logging.Logger) (*Lock, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	lockPath := filepath.Join(stateDir, LockFileName)

	if existing, err := ReadLock(lockPath); err == nil {
		if isProcessAlive(existing.PID) {
			logger.Warn("workspace lock held", "pid", existing.PID, "hostname", existing.Hostname)
			return nil, fmt.Errorf("%w: PID %d on %s", ErrWorkspaceLocked, existing.PID, existing.Hostname)
		}
		if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove stale lock: %w", err)
		}
		logger.Warn("stale workspace lock cleaned", "old_pid", existing.PID)
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	lock := &Lock{
		PID:       os.Getpid(),
		Hostname:  hostname,
		StartedAt: time.Now(),
		lockFile:  lockPath,
		logger:    logger,
	}
	data, err := json.MarshalIndent(lock, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lock: %w", err)
	}

	// O_EXCL loses the race cleanly if another process got here first.
	f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, ErrWorkspaceLocked
		}
		return nil, fmt.Errorf("failed to create lock file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		_ = os.Remove(lockPath)
		return nil, fmt.Errorf("failed to write lock file: %w", err)
	}

	logger.Debug("workspace lock acquired", "pid", lock.PID)
	return lock, nil
}

// Release removes the lock file if this process still owns it. Safe to call
// more than once and on a nil Lock.
func (l *Lock) Release() error {
	if l == nil || l.lockFile == "" {
		return nil
	}
	existing, err := ReadLock(l.lockFile)
	if err != nil || existing.PID != l.PID {
		return nil
	}
	if err := os.Remove(l.lockFile); err != nil {
		return err
	}
	if l.logger != nil {
		l.logger.Debug("workspace lock released")
	}
	return nil
}

// ReadLock reads a lock file.
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

// isProcessAlive checks if a process with the given PID is still running.
func isProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 probes for existence without affecting the process.
	return process.Signal(syscall.Signal(0)) == nil
}
