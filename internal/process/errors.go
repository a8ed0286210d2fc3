package process

import "github.com/giantswarm/lockstep/internal/sentinel"

// ErrProcessNotFound is returned by Probe when no process with the PID exists.
const ErrProcessNotFound = sentinel.Error("process not found")

// ErrInvalidPID is returned by Probe for PIDs that can never name a process.
const ErrInvalidPID = sentinel.Error("pid must be positive")

// ErrEmptyCommand is returned by ExecRunner.Run for a Command without a Name.
const ErrEmptyCommand = sentinel.Error("command name must not be empty")
