package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/giantswarm/lockstep/internal/netutil"
)

// Config holds configuration for a Supervisor.
//
// All fields are immutable after construction via NewSupervisor.
type Config struct {
	// Port is the TCP port reclaimed and then bound by the supervisor.
	Port int
	// Host is the address the port is bound on. Empty binds every interface.
	Host string

	// DBURI and DBName select the database. An empty DBURI is accepted here
	// and reported by the pool at Start, where it fails startup.
	DBURI  string
	DBName string

	// ParentPID is the process watched by the watchdog. 0 watches the
	// process that started this one.
	ParentPID int
	// WatchInterval is the parent probe interval.
	WatchInterval time.Duration

	// SettleDelay is the wait after killing port owners, before the port
	// is checked again.
	SettleDelay time.Duration
	// ConfirmTimeout bounds the wait for the port to be released after the
	// settle delay.
	ConfirmTimeout time.Duration

	// LockDir holds the per-port lock files. Empty disables the lock.
	LockDir string
	// LockTimeout bounds the wait for another supervisor to give up the
	// port lock.
	LockTimeout time.Duration

	// ShutdownTimeout bounds the teardown of a failed Start and the
	// shutdown the CLI runs on a termination signal.
	ShutdownTimeout time.Duration
}

// Validate checks every Config invariant and reports all violations at once
// through errors.Join.
func (c Config) Validate() error {
	var errs []error

	if err := netutil.ValidatePort(c.Port); err != nil {
		errs = append(errs, err)
	}
	if c.ParentPID < 0 {
		errs = append(errs, fmt.Errorf("parent pid must not be negative, got %d", c.ParentPID))
	}
	if c.WatchInterval <= 0 {
		errs = append(errs, fmt.Errorf("watch interval must be greater than 0, got %s", c.WatchInterval))
	}
	if c.SettleDelay <= 0 {
		errs = append(errs, fmt.Errorf("settle delay must be greater than 0, got %s", c.SettleDelay))
	}
	if c.ConfirmTimeout <= 0 {
		errs = append(errs, fmt.Errorf("confirm timeout must be greater than 0, got %s", c.ConfirmTimeout))
	}
	if c.LockDir != "" && c.LockTimeout <= 0 {
		errs = append(errs, fmt.Errorf("lock timeout must be greater than 0 when a lock dir is set, got %s", c.LockTimeout))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown timeout must be greater than 0, got %s", c.ShutdownTimeout))
	}
	if c.DBURI != "" && c.DBName == "" {
		errs = append(errs, errors.New("database name must not be empty when a database URI is set"))
	}

	return errors.Join(errs...)
}
