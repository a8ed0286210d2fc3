package platform

import (
	"strconv"
	"strings"

	"github.com/giantswarm/lockstep/internal/process"
)

var _ Dialect = Windows{}

// Windows is the dialect for Windows. netstat lists every socket of both
// address families with its owning PID; filtering happens here rather than
// through findstr so a port with no owners is an ordinary empty result.
type Windows struct{}

// Name implements Dialect.
func (Windows) Name() string { return "windows" }

// ListCommand returns netstat -ano. Adding -p TCP would restrict the listing
// to IPv4 sockets and miss owners bound only to [::].
func (Windows) ListCommand(_ int) process.Command {
	return process.Command{Name: "netstat", Args: []string{"-ano"}}
}

// ParsePIDs keeps TCP rows whose local address ends in ":<port>" and takes
// the trailing column as the PID. UDP rows are skipped. Rows look like:
//
//	TCP    0.0.0.0:9999    0.0.0.0:0    LISTENING    111
//	TCP    [::]:9999       [::]:0       LISTENING    111
//
// PID 0 (the System Idle Process, owner of TIME_WAIT sockets) and
// non-numeric tokens are dropped.
func (Windows) ParsePIDs(port int, stdout string) []int {
	suffix := ":" + strconv.Itoa(port)
	var pids []int
	seen := make(map[int]struct{})
	for line := range strings.Lines(stdout) {
		fields := strings.Fields(line)
		if len(fields) < 4 || !isTCP(fields[0]) {
			continue
		}
		if !strings.HasSuffix(fields[1], suffix) {
			continue
		}
		pid, err := strconv.Atoi(fields[len(fields)-1])
		if err != nil {
			continue
		}
		pids = appendPID(pids, seen, pid)
	}
	return pids
}

// isTCP matches the protocol column of TCP rows. Plain netstat -ano labels
// both families TCP; the per-protocol listing labels IPv6 rows TCPv6.
func isTCP(proto string) bool {
	return strings.EqualFold(proto, "TCP") || strings.EqualFold(proto, "TCPv6")
}

// NoOwners is always false: netstat succeeds whether or not the port is in
// use, so any failure is genuine.
func (Windows) NoOwners(_ process.Result, _ error) bool {
	return false
}

// KillCommand returns taskkill /F /PID pid.
func (Windows) KillCommand(pid int) process.Command {
	return process.Command{Name: "taskkill", Args: []string{"/F", "/PID", strconv.Itoa(pid)}}
}
