//go:build unix

package process

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Probe reports whether a process with the given PID exists by sending it
// signal 0, which performs the existence and permission checks without
// delivering anything.
//
// It returns nil when the process exists and can be signaled, an error
// wrapping ErrProcessNotFound on ESRCH, and the raw errno (for example EPERM)
// otherwise. Callers decide how to treat a process that exists but belongs to
// another user.
func Probe(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("probe pid %d: %w", pid, ErrInvalidPID)
	}
	err := unix.Kill(pid, 0)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.ESRCH):
		return fmt.Errorf("probe pid %d: %w", pid, ErrProcessNotFound)
	default:
		return fmt.Errorf("probe pid %d: %w", pid, err)
	}
}
