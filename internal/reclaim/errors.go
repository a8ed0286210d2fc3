package reclaim

import (
	"fmt"

	"github.com/giantswarm/lockstep/internal/process"
	"github.com/giantswarm/lockstep/internal/sentinel"
)

// ErrPortStillBound indicates the port still had owners when the confirm
// timeout expired.
const ErrPortStillBound = sentinel.Error("port still bound after reclaim")

// Error is a genuine command failure during reclamation: a list command that
// could not run or a kill that failed against a live process.
type Error struct {
	Port    int
	PID     int // 0 for list failures
	Command process.Command
	Err     error
}

func (e *Error) Error() string {
	if e.PID > 0 {
		return fmt.Sprintf("reclaim port %d: pid %d: %s: %v", e.Port, e.PID, e.Command, e.Err)
	}
	return fmt.Sprintf("reclaim port %d: %s: %v", e.Port, e.Command, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
