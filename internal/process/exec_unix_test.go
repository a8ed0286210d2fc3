//go:build unix

package process

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
)

func TestExecRunner_CapturesStdout(t *testing.T) {
	t.Parallel()

	res, err := ExecRunner{}.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo 111; echo 222"}})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if got := strings.Fields(res.Stdout); len(got) != 2 || got[0] != "111" || got[1] != "222" {
		t.Errorf("Stdout = %q, want lines 111 and 222", res.Stdout)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	t.Parallel()

	res, err := ExecRunner{}.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo partial; echo denied >&2; exit 3"}})
	if err == nil {
		t.Fatal("expected error for non-zero exit, got nil")
	}
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error type = %T, want *CommandError", err)
	}
	if cmdErr.ExitCode != 3 || res.ExitCode != 3 {
		t.Errorf("ExitCode = %d/%d, want 3", cmdErr.ExitCode, res.ExitCode)
	}
	if cmdErr.Stderr != "denied" {
		t.Errorf("Stderr = %q, want %q", cmdErr.Stderr, "denied")
	}
	if strings.TrimSpace(res.Stdout) != "partial" {
		t.Errorf("Stdout = %q, want partial output preserved", res.Stdout)
	}
}

func TestExecRunner_MissingBinary(t *testing.T) {
	t.Parallel()

	_, err := ExecRunner{}.Run(context.Background(), Command{Name: "lockstep-no-such-binary"})
	if !errors.Is(err, exec.ErrNotFound) {
		t.Fatalf("Run() error = %v, want exec.ErrNotFound", err)
	}
	if code := ExitCode(err); code != -1 {
		t.Errorf("ExitCode() = %d, want -1", code)
	}
}
