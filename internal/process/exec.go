package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Command is a single external program invocation. It is built by a
// platform dialect and executed by a Runner.
type Command struct {
	Name string
	Args []string
}

// String renders the command as it would be typed in a shell, for logs and
// error messages. No quoting is applied.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result holds the captured output of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandError reports a command that could not be started or that exited
// with a non-zero status. ExitCode is -1 when the command never produced an
// exit status (binary missing, killed by a signal, context canceled).
type CommandError struct {
	Command  Command
	ExitCode int
	Stderr   string
	Err      error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command %q", e.Command.String())
	if e.ExitCode >= 0 {
		msg += fmt.Sprintf(" exited with status %d", e.ExitCode)
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	if e.Err != nil && e.ExitCode < 0 {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying exec error.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExitCode returns the exit status carried by err, or -1 if err does not
// carry one. It understands *CommandError and *exec.ExitError.
func ExitCode(err error) int {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.ExitCode
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// Runner runs external commands. Implementations must return the captured
// output even when the command fails, so callers can inspect stdout of a
// command that exits non-zero by convention.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner is the Runner backed by os/exec.
type ExecRunner struct {
	// Logger receives a debug line per command. Nil uses slog.Default().
	Logger *slog.Logger
}

// Run executes cmd, waits for it to finish and returns its output. A non-zero
// exit or a start failure is returned as *CommandError alongside the partial
// Result.
func (r ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	if cmd.Name == "" {
		return Result{ExitCode: -1}, ErrEmptyCommand
	}
	log := r.Logger
	if log == nil {
		log = slog.Default()
	}

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	configureSysProcAttr(c)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		log.Debug("command finished", "command", cmd.String())
		return res, nil
	}

	res.ExitCode = -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	}
	log.Debug("command failed", "command", cmd.String(), "exit_code", res.ExitCode, "error", err)
	return res, &CommandError{
		Command:  cmd,
		ExitCode: res.ExitCode,
		Stderr:   strings.TrimSpace(res.Stderr),
		Err:      err,
	}
}
