package netutil

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"syscall"
)

// MaxPort is the largest valid TCP port.
const MaxPort = 65535

// ValidatePort returns an error unless port is in 1..MaxPort.
func ValidatePort(port int) error {
	if port <= 0 || port > MaxPort {
		return fmt.Errorf("port must be between 1 and %d, got %d", MaxPort, port)
	}
	return nil
}

// Listen binds host:port for TCP. An empty host binds every interface.
func Listen(host string, port int) (net.Listener, error) {
	if err := ValidatePort(port); err != nil {
		return nil, err
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return l, nil
}

// IsAddrInUse reports whether err is the bind failure of a port that is
// already taken.
func IsAddrInUse(err error) bool {
	return errors.Is(err, syscall.EADDRINUSE)
}

// IsFree reports whether port can be bound on 127.0.0.1 right now. The probe
// listener is closed before returning, so the answer can be stale by the time
// the caller acts on it.
func IsFree(port int, log *slog.Logger) bool {
	l, err := Listen("127.0.0.1", port)
	if err != nil {
		return false
	}
	if closeErr := l.Close(); closeErr != nil {
		if log == nil {
			log = slog.Default()
		}
		log.Warn("close probe listener", "port", port, "error", closeErr)
	}
	return true
}
