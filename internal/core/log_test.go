package core

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// Not parallel: mutates the package-level logger.
func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	custom := slog.New(slog.NewTextHandler(&buf, nil))

	SetLogger(custom)
	t.Cleanup(func() { SetLogger(nil) })

	if Logger() != custom {
		t.Fatal("Logger() did not return the custom logger")
	}
	Logger().Info("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("custom logger output = %q, want it to contain hello", buf.String())
	}

	SetLogger(nil)
	if Logger() == custom {
		t.Error("SetLogger(nil) did not restore the default logger")
	}
	if Logger() != Logger() {
		t.Error("default logger is not cached")
	}
}
