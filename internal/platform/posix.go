package platform

import (
	"strconv"
	"strings"

	"github.com/giantswarm/lockstep/internal/process"
)

// lsofNoMatch is the status lsof exits with when no open file matches the
// selection. lsof uses the same status for some errors, so it is only taken
// as "no owners" together with empty stdout and warning-only stderr.
const lsofNoMatch = 1

// lsofWarning prefixes the lines lsof prints for filesystems it cannot stat
// (overlay, fuse, tracefs). They do not affect the TCP selection.
const lsofWarning = "lsof: WARNING:"

var _ Dialect = Posix{}

// Posix is the dialect for Linux, macOS and the BSDs. It relies on lsof for
// enumeration and kill(1) for termination.
type Posix struct{}

// Name implements Dialect.
func (Posix) Name() string { return "posix" }

// ListCommand returns an lsof invocation printing only the PIDs (-t) of
// processes listening on the TCP port, without resolving names (-nP).
func (Posix) ListCommand(port int) process.Command {
	return process.Command{
		Name: "lsof",
		Args: []string{"-nP", "-t", "-iTCP:" + strconv.Itoa(port), "-sTCP:LISTEN"},
	}
}

// ParsePIDs reads one PID per line. Blank and non-numeric lines are skipped.
func (Posix) ParsePIDs(_ int, stdout string) []int {
	var pids []int
	seen := make(map[int]struct{})
	for line := range strings.Lines(stdout) {
		pid, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			continue
		}
		pids = appendPID(pids, seen, pid)
	}
	return pids
}

// NoOwners reports lsof's "no match" exit: status 1, nothing on stdout and
// nothing but lsof warnings on stderr. A missing binary or permission
// failure has a different shape.
func (Posix) NoOwners(res process.Result, err error) bool {
	if err == nil {
		return false
	}
	return process.ExitCode(err) == lsofNoMatch &&
		strings.TrimSpace(res.Stdout) == "" &&
		onlyWarnings(res.Stderr)
}

// onlyWarnings reports whether stderr holds nothing but lsof warnings. A
// warning may continue on indented lines, such as "Output information may
// be incomplete."
func onlyWarnings(stderr string) bool {
	inWarning := false
	for line := range strings.Lines(stderr) {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
		case strings.HasPrefix(trimmed, lsofWarning):
			inWarning = true
		case inWarning && line != strings.TrimLeft(line, " \t"):
		default:
			return false
		}
	}
	return true
}

// KillCommand returns kill -9 pid.
func (Posix) KillCommand(pid int) process.Command {
	return process.Command{Name: "kill", Args: []string{"-9", strconv.Itoa(pid)}}
}
