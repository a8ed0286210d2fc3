package lockstep

import (
	"context"

	"github.com/giantswarm/lockstep/internal/core"
	"github.com/giantswarm/lockstep/internal/dbpool"
	"github.com/giantswarm/lockstep/internal/fileutil"
)

var _ Supervisor = (*supervisorWrapper)(nil)

// supervisorWrapper hides core.Supervisor behind the Supervisor interface so
// callers cannot reach its internal methods by type assertion.
type supervisorWrapper struct {
	sup *core.Supervisor
}

func (w *supervisorWrapper) Start(ctx context.Context) error    { return w.sup.Start(ctx) }
func (w *supervisorWrapper) Wait() error                        { return w.sup.Wait() }
func (w *supervisorWrapper) Shutdown(ctx context.Context) error { return w.sup.Shutdown(ctx) }
func (w *supervisorWrapper) Addr() string                       { return w.sup.Addr() }

// Pool returns the connection pool.
//
//nolint:ireturn // Pool is an interface by design.
func (w *supervisorWrapper) Pool() Pool { return w.sup.Pool() }

// defaultSupervisorConfig returns a supervisorConfig holding every default.
func defaultSupervisorConfig(port int) supervisorConfig {
	return supervisorConfig{
		Config: core.Config{
			Port:            port,
			Host:            DefaultHost,
			WatchInterval:   DefaultWatchInterval,
			SettleDelay:     DefaultSettleDelay,
			ConfirmTimeout:  DefaultConfirmTimeout,
			LockDir:         fileutil.DefaultLockDir(),
			LockTimeout:     DefaultLockTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		poolOpts: dbpool.Options{
			MaxPoolSize:            DefaultMaxPoolSize,
			ServerSelectionTimeout: DefaultServerSelectionTimeout,
			SocketTimeout:          DefaultSocketTimeout,
			MaxConnIdleTime:        DefaultMaxConnIdleTime,
			RetryWrites:            true,
			IPv4Only:               true,
		},
	}
}

// New returns a Supervisor for port. It performs no I/O; call Start.
//
// Every New returns an independent Supervisor with its own pool. A process
// normally creates exactly one.
//
// Panics if port is out of range or any option receives an invalid value.
//
//nolint:ireturn // Returns the Supervisor interface by design.
func New(port int, opts ...Option) Supervisor {
	cfg := defaultSupervisorConfig(port)
	for _, opt := range opts {
		opt(&cfg)
	}
	return &supervisorWrapper{sup: core.NewSupervisor(cfg.toCoreConfig(), cfg.toDeps())}
}
