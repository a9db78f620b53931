package daemon

import (
	"context"
	"fmt"
	"path/filepath"
	"time"
)

// LifecycleManager owns the lock and PID files of one daemon data directory.
type LifecycleManager struct {
	lockFile   *LockFile
	pidFile    *PIDFile
	socketPath string
}

func NewLifecycleManager(baseDir, socketPath string) *LifecycleManager {
	return &LifecycleManager{
		lockFile:   NewLockFile(filepath.Join(baseDir, "daemon.lock")),
		pidFile:    NewPIDFile(filepath.Join(baseDir, "daemon.pid")),
		socketPath: socketPath,
	}
}

// Acquire takes the instance lock and records this process as the daemon.
func (lm *LifecycleManager) Acquire() error {
	if err := lm.lockFile.Acquire(); err != nil {
		return fmt.Errorf("failed to acquire instance lock: %w", err)
	}
	if err := lm.pidFile.Write(); err != nil {
		lm.lockFile.Release()
		return err
	}
	return nil
}

// Running reports whether a live daemon answers on the socket.
func (lm *LifecycleManager) Running() bool {
	if !lm.pidFile.IsProcessAlive() {
		return false
	}
	return lm.isSocketResponsive()
}

func (lm *LifecycleManager) isSocketResponsive() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	conn, err := NewSocketConnector(lm.socketPath).Connect(ctx)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func (lm *LifecycleManager) Cleanup() {
	lm.pidFile.Remove()
	lm.lockFile.Release()
}

func (lm *LifecycleManager) PIDFile() *PIDFile {
	return lm.pidFile
}
