package lockstep

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// requirePositive panics if v <= 0 with a descriptive message.
func requirePositive[T int | time.Duration](name string, v T) {
	if v <= 0 {
		panic(fmt.Sprintf("lockstep: %s must be greater than 0, got %v", name, v))
	}
}

// requireNonEmpty panics if s is empty with a descriptive message.
func requireNonEmpty(name, s string) {
	if s == "" {
		panic(fmt.Sprintf("lockstep: %s must not be empty", name))
	}
}

// Option configures a Supervisor during construction via New.
//
// Several With* functions panic on invalid input. Option values are
// normally constants or flags validated earlier, so an invalid value is a
// programmer error.
type Option func(*supervisorConfig)

// WithHost sets the address the port is bound on. An empty host binds every
// interface.
//
// Default: "127.0.0.1".
func WithHost(host string) Option {
	return func(c *supervisorConfig) {
		c.Host = host
	}
}

// WithDatabaseURI sets the database connection string. The scheme selects
// the driver: mongodb and mongodb+srv use MongoDB, sqlite and file use
// SQLite.
//
// An empty uri is accepted here; Start then fails with ErrMissingURI.
func WithDatabaseURI(uri string) Option {
	return func(c *supervisorConfig) {
		c.DBURI = uri
	}
}

// WithDatabaseName sets the database selected on the connection.
// Panics if name is empty.
func WithDatabaseName(name string) Option {
	requireNonEmpty("database name", name)
	return func(c *supervisorConfig) {
		c.DBName = name
	}
}

// WithParentPID sets the process watched by the watchdog.
//
// Default: the process that started this one.
//
// Panics if pid <= 0.
func WithParentPID(pid int) Option {
	requirePositive("parent pid", pid)
	return func(c *supervisorConfig) {
		c.ParentPID = pid
	}
}

// WithWatchInterval sets how often the parent is probed. Loss of the parent
// is noticed within two intervals.
//
// Default: 2 seconds.
//
// Panics if d <= 0.
func WithWatchInterval(d time.Duration) Option {
	requirePositive("watch interval", d)
	return func(c *supervisorConfig) {
		c.WatchInterval = d
	}
}

// WithSettleDelay sets the wait after killing the port's owners.
//
// Default: 1 second.
//
// Panics if d <= 0.
func WithSettleDelay(d time.Duration) Option {
	requirePositive("settle delay", d)
	return func(c *supervisorConfig) {
		c.SettleDelay = d
	}
}

// WithConfirmTimeout bounds the wait for the port to be released after the
// settle delay.
//
// Default: 2 seconds.
//
// Panics if d <= 0.
func WithConfirmTimeout(d time.Duration) Option {
	requirePositive("confirm timeout", d)
	return func(c *supervisorConfig) {
		c.ConfirmTimeout = d
	}
}

// WithLockDir sets the directory holding per-port lock files. Two
// supervisors using the same directory and port run one at a time.
//
// Default: lockstep/locks under the user cache directory.
//
// Panics if dir is empty. Use WithoutPortLock to disable locking.
func WithLockDir(dir string) Option {
	requireNonEmpty("lock dir", dir)
	return func(c *supervisorConfig) {
		c.LockDir = dir
	}
}

// WithoutPortLock disables the per-port lock.
func WithoutPortLock() Option {
	return func(c *supervisorConfig) {
		c.LockDir = ""
	}
}

// WithLockTimeout bounds the wait for the port lock.
//
// Default: 30 seconds.
//
// Panics if d <= 0.
func WithLockTimeout(d time.Duration) Option {
	requirePositive("lock timeout", d)
	return func(c *supervisorConfig) {
		c.LockTimeout = d
	}
}

// WithShutdownTimeout bounds the teardown of a failed Start and the
// database close on interrupt.
//
// Default: 10 seconds.
//
// Panics if d <= 0.
func WithShutdownTimeout(d time.Duration) Option {
	requirePositive("shutdown timeout", d)
	return func(c *supervisorConfig) {
		c.ShutdownTimeout = d
	}
}

// WithNotifier sets where progress and error notifications go.
//
// Default: the lockstep logger.
//
// Panics if n is nil.
func WithNotifier(n Notifier) Option {
	if n == nil {
		panic("lockstep: notifier must not be nil")
	}
	return func(c *supervisorConfig) {
		c.notifier = n
	}
}

// WithRegistry sets the registry the supervisor's metrics are registered
// with and served from.
//
// Default: a new registry carrying the Go and process collectors.
//
// Panics if reg is nil.
func WithRegistry(reg *prometheus.Registry) Option {
	if reg == nil {
		panic("lockstep: registry must not be nil")
	}
	return func(c *supervisorConfig) {
		c.registry = reg
	}
}

// WithMaxPoolSize caps the connections the database driver opens.
//
// Default: 10.
//
// Panics if n <= 0.
func WithMaxPoolSize(n int) Option {
	requirePositive("max pool size", n)
	return func(c *supervisorConfig) {
		c.poolOpts.MaxPoolSize = uint64(n)
	}
}

// WithServerSelectionTimeout bounds the wait for a usable database server.
//
// Default: 5 seconds.
//
// Panics if d <= 0.
func WithServerSelectionTimeout(d time.Duration) Option {
	requirePositive("server selection timeout", d)
	return func(c *supervisorConfig) {
		c.poolOpts.ServerSelectionTimeout = d
	}
}

// WithExitFunc sets the function that ends the process when the parent is
// gone (code 0) or after an interrupt (code 130). The CLI uses it to let
// pending notifications reach the parent first.
//
// Default: os.Exit.
//
// Panics if fn is nil.
func WithExitFunc(fn func(code int)) Option {
	if fn == nil {
		panic("lockstep: exit func must not be nil")
	}
	return func(c *supervisorConfig) {
		c.exit = fn
	}
}
