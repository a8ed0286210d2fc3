package platform

import (
	"runtime"

	"github.com/giantswarm/lockstep/internal/process"
)

// Dialect builds and interprets the platform commands that enumerate and kill
// the processes bound to a TCP port.
type Dialect interface {
	// Name identifies the dialect in logs ("posix", "windows").
	Name() string

	// ListCommand returns the command that lists processes bound to port.
	ListCommand(port int) process.Command

	// ParsePIDs extracts the owning PIDs of port from the list command's
	// stdout. The result is de-duplicated, keeps discovery order and never
	// contains 0.
	ParsePIDs(port int, stdout string) []int

	// NoOwners reports whether a failed list command means "nothing is bound
	// to the port" rather than a genuine failure.
	NoOwners(res process.Result, err error) bool

	// KillCommand returns the command that forcibly terminates pid.
	KillCommand(pid int) process.Command
}

// ForOS returns the dialect for a GOOS value. Every non-Windows platform uses
// the POSIX dialect.
//
//nolint:ireturn // callers only need the behavior, not the concrete type.
func ForOS(goos string) Dialect {
	if goos == "windows" {
		return Windows{}
	}
	return Posix{}
}

// Current returns the dialect for the running platform.
//
//nolint:ireturn // see ForOS.
func Current() Dialect {
	return ForOS(runtime.GOOS)
}

// appendPID adds pid to pids unless it is 0 or already present.
func appendPID(pids []int, seen map[int]struct{}, pid int) []int {
	if pid <= 0 {
		return pids
	}
	if _, ok := seen[pid]; ok {
		return pids
	}
	seen[pid] = struct{}{}
	return append(pids, pid)
}
