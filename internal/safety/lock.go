// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

// Package safety wraps a migration batch's destructive file work with
// mutual exclusion, pre-mutation snapshots, an immutable audit log and
// restoration.
package safety

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/mutex/v2"
)

var logger = loggo.GetLogger("sdkmigrate.safety")

// ErrLockHeld is returned when another run already holds the directory
// lock. Lock failure is pre-flight and fatal: the run aborts with zero
// mutations.
const ErrLockHeld = errors.ConstError("another migration is running against this directory")

// lockTimeout bounds how long a run waits for a concurrent run to
// finish before giving up. Contended runs should fail fast, not queue.
const lockTimeout = 2 * time.Second

// AcquireLock takes the machine-wide mutex serialising migration runs
// against the given directory tree. The returned releaser must be
// released unconditionally at run end. Runs against different trees do
// not contend.
func AcquireLock(root string, clk clock.Clock) (mutex.Releaser, error) {
	releaser, err := mutex.Acquire(mutex.Spec{
		Name:    lockName(root),
		Clock:   clk,
		Delay:   100 * time.Millisecond,
		Timeout: lockTimeout,
	})
	if errors.Is(err, mutex.ErrTimeout) {
		return nil, errors.WithType(
			errors.Annotatef(err, "locking %q", root), ErrLockHeld)
	}
	if err != nil {
		return nil, errors.Annotatef(err, "locking %q", root)
	}
	logger.Debugf("acquired migration lock %q", lockName(root))
	return releaser, nil
}

// lockName derives a valid mutex name from the directory path. Mutex
// names must be short and alphanumeric, so the path is hashed.
func lockName(root string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	sum := sha256.Sum256([]byte(abs))
	return "sdkmigrate-" + hex.EncodeToString(sum[:])[:12]
}
