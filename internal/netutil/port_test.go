package netutil

import (
	"net"
	"testing"
)

func TestValidatePort(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		port    int
		wantErr bool
	}{
		"zero":     {port: 0, wantErr: true},
		"negative": {port: -1, wantErr: true},
		"too big":  {port: MaxPort + 1, wantErr: true},
		"min":      {port: 1, wantErr: false},
		"max":      {port: MaxPort, wantErr: false},
		"typical":  {port: 9999, wantErr: false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			err := ValidatePort(tc.port)
			if (err != nil) != tc.wantErr {
				t.Errorf("ValidatePort(%d) error = %v, wantErr %v", tc.port, err, tc.wantErr)
			}
		})
	}
}

func TestListen_AndIsFree(t *testing.T) {
	t.Parallel()

	l, err := Listen("127.0.0.1", freePort(t))
	if err != nil {
		t.Fatalf("Listen() error: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port

	if IsFree(port, nil) {
		t.Errorf("IsFree(%d) = true while bound", port)
	}

	_, err = Listen("127.0.0.1", port)
	if err == nil {
		t.Fatal("second Listen on bound port succeeded")
	}
	if !IsAddrInUse(err) {
		t.Errorf("IsAddrInUse(%v) = false, want true", err)
	}

	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !IsFree(port, nil) {
		t.Errorf("IsFree(%d) = false after close", port)
	}
}

func TestListen_InvalidPort(t *testing.T) {
	t.Parallel()

	if _, err := Listen("", 0); err == nil {
		t.Fatal("Listen with port 0 succeeded, want validation error")
	}
}

// freePort asks the kernel for an unused port and releases it.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("test setup: listen: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	if err := l.Close(); err != nil {
		t.Fatalf("test setup: close: %v", err)
	}
	return port
}
