//go:build windows

package process

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
)

// stillActive is the exit code GetExitCodeProcess reports for a running process.
const stillActive = 259

// Probe reports whether a process with the given PID exists. Windows has no
// signal 0, so the process is opened for limited query access and its exit
// code inspected.
//
// OpenProcess fails with ERROR_INVALID_PARAMETER for a PID that does not
// exist; that case, and a process that has exited but whose handle is still
// held elsewhere, wrap ErrProcessNotFound. Any other failure (for example
// access denied) is returned as is.
func Probe(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("probe pid %d: %w", pid, ErrInvalidPID)
	}
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		if errors.Is(err, windows.ERROR_INVALID_PARAMETER) {
			return fmt.Errorf("probe pid %d: %w", pid, ErrProcessNotFound)
		}
		return fmt.Errorf("probe pid %d: open process: %w", pid, err)
	}
	defer windows.CloseHandle(h) //nolint:errcheck // query handle, nothing to recover

	var code uint32
	if err := windows.GetExitCodeProcess(h, &code); err != nil {
		return fmt.Errorf("probe pid %d: exit code: %w", pid, err)
	}
	if code != stillActive {
		return fmt.Errorf("probe pid %d: %w", pid, ErrProcessNotFound)
	}
	return nil
}
