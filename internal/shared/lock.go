package shared

import (
	"github.com/gofrs/flock"
)

// DefaultLockPath is the host-wide lock file guarding sync runs.
const DefaultLockPath = "/tmp/navidrofm.lock"

// RunLock is a process-wide cooperative mutual-exclusion lock around a sync
// run. Acquisition is non-blocking: a run that cannot take the lock is
// expected to exit rather than queue. The OS releases the underlying flock
// when the process dies, so a killed run never wedges the next one.
type RunLock struct {
	fl *flock.Flock
}

// NewRunLock creates a lock backed by the given file path.
func NewRunLock(path string) *RunLock {
	if path == "" {
		path = DefaultLockPath
	}
	return &RunLock{fl: flock.New(path)}
}

// TryAcquire attempts to take the lock without blocking. Returns false when
// another run holds it.
func (l *RunLock) TryAcquire() (bool, error) {
	return l.fl.TryLock()
}

// Release drops the lock. Safe to call when the lock was never acquired.
func (l *RunLock) Release() error {
	return l.fl.Unlock()
}

// Path returns the lock file location.
func (l *RunLock) Path() string {
	return l.fl.Path()
}
