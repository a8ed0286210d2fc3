package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/giantswarm/lockstep/internal/dbpool"
	"github.com/giantswarm/lockstep/internal/metrics"
	"github.com/giantswarm/lockstep/internal/netutil"
	"github.com/giantswarm/lockstep/internal/notify"
	"github.com/giantswarm/lockstep/internal/platform"
	"github.com/giantswarm/lockstep/internal/portlock"
	"github.com/giantswarm/lockstep/internal/process"
	"github.com/giantswarm/lockstep/internal/reclaim"
	"github.com/giantswarm/lockstep/internal/sentinel"
	"github.com/giantswarm/lockstep/internal/server"
	"github.com/giantswarm/lockstep/internal/watchdog"
)

// supervisorState is the lifecycle state of a Supervisor.
type supervisorState uint32

const (
	supervisorCreated      supervisorState = iota // zero value; NewSupervisor returns in this state
	supervisorStarting                            // Start in progress
	supervisorRunning                             // serving
	supervisorShuttingDown                        // Shutdown called
)

// Lifecycle errors.
const (
	ErrAlreadyStarted = sentinel.Error("supervisor already started")
	ErrNotStarted     = sentinel.Error("supervisor not started")
	ErrShuttingDown   = sentinel.Error("supervisor is shutting down")
)

// PortReclaimer frees a port before it is bound.
type PortReclaimer interface {
	Reclaim(ctx context.Context, port int) (reclaim.Result, error)
}

// ConnectionPool owns the database connection.
type ConnectionPool interface {
	Acquire(ctx context.Context, uri, dbName string) (*dbpool.Handle, error)
	Release(ctx context.Context) error
	Close(ctx context.Context) error
	State() dbpool.State
}

// ParentWatchdog ends the process when the parent goes away.
type ParentWatchdog interface {
	Start(ctx context.Context, parentPID int, interval time.Duration) error
	State() watchdog.State
}

var (
	_ PortReclaimer  = (*reclaim.Reclaimer)(nil)
	_ ConnectionPool = (*dbpool.Pool)(nil)
	_ ParentWatchdog = (*watchdog.Watchdog)(nil)
)

// Deps are the collaborators of a Supervisor. Nil fields are built from the
// Config with production defaults.
type Deps struct {
	Reclaimer PortReclaimer
	Pool      ConnectionPool
	Watchdog  ParentWatchdog

	// Used only when the matching component above is nil.
	Runner     process.Runner
	Dialect    platform.Dialect
	Probe      func(pid int) error
	Connectors map[string]dbpool.Connector
	PoolOpts   *dbpool.Options
	Signals    dbpool.SignalHooks

	// Exit terminates the process. It is called with 0 by the watchdog and
	// with 130 by the pool's interrupt handler. Defaults to os.Exit.
	Exit func(code int)

	// Listen binds the reclaimed port. Defaults to netutil.Listen.
	Listen func(host string, port int) (net.Listener, error)

	Notifier notify.Notifier
	// Registry receives the supervisor's collectors and backs /metrics.
	// Defaults to a fresh registry with the Go and process collectors.
	Registry *prometheus.Registry
}

// Supervisor runs the startup and shutdown sequence around one port and one
// database connection. It is safe for concurrent use.
type Supervisor struct {
	cfg Config

	reclaimer PortReclaimer
	pool      ConnectionPool
	watchdog  ParentWatchdog
	listen    func(host string, port int) (net.Listener, error)
	report    *notify.Reporter
	registry  *prometheus.Registry

	state atomic.Uint32 // supervisorState

	// Set by Start before the state becomes running; read-only afterwards.
	lock   *portlock.Lock
	ln     net.Listener
	srv    *server.Server
	handle *dbpool.Handle
	group  *errgroup.Group
	cancel context.CancelFunc

	// started is closed once Start has finished, successfully or not.
	started  chan struct{}
	startErr error

	shutdownOnce sync.Once
	shutdownErr  error
}

// NewSupervisor builds a Supervisor. It performs no I/O.
//
// Panics if cfg.Validate() reports any errors: invalid configuration is a
// programmer error.
func NewSupervisor(cfg Config, deps Deps) *Supervisor {
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("lockstep: invalid supervisor config: %v", err))
	}

	log := Logger()
	exit := deps.Exit
	if exit == nil {
		exit = os.Exit
	}
	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	m := metrics.New(registry)

	s := &Supervisor{
		cfg:       cfg,
		reclaimer: deps.Reclaimer,
		pool:      deps.Pool,
		watchdog:  deps.Watchdog,
		listen:    deps.Listen,
		report:    notify.NewReporter(deps.Notifier),
		registry:  registry,
		started:   make(chan struct{}),
	}
	if s.reclaimer == nil {
		s.reclaimer = reclaim.New(reclaim.Config{
			Runner:         deps.Runner,
			Dialect:        deps.Dialect,
			Probe:          deps.Probe,
			SettleDelay:    cfg.SettleDelay,
			ConfirmTimeout: cfg.ConfirmTimeout,
			Notifier:       deps.Notifier,
			Metrics:        m,
			Logger:         log.With("component", "reclaim"),
		})
	}
	if s.pool == nil {
		signals := deps.Signals
		if signals.Exit == nil {
			signals.Exit = exit
		}
		s.pool = dbpool.New(dbpool.Config{
			Options:    deps.PoolOpts,
			Connectors: deps.Connectors,
			Signals:    signals,
			Notifier:   deps.Notifier,
			Metrics:    m,
			Logger:     log.With("component", "dbpool"),
		})
	}
	if s.watchdog == nil {
		s.watchdog = watchdog.New(watchdog.Config{
			Probe:    deps.Probe,
			Exit:     exit,
			Notifier: deps.Notifier,
			Metrics:  m,
			Logger:   log.With("component", "watchdog"),
		})
	}
	if s.listen == nil {
		s.listen = netutil.Listen
	}
	return s
}

func (s *Supervisor) loadState() supervisorState {
	return supervisorState(s.state.Load())
}

// Start runs the startup sequence and returns once the supervisor is
// serving. On error every step already taken is undone.
func (s *Supervisor) Start(ctx context.Context) error {
	if !s.state.CompareAndSwap(uint32(supervisorCreated), uint32(supervisorStarting)) {
		if s.loadState() == supervisorShuttingDown {
			return ErrShuttingDown
		}
		return ErrAlreadyStarted
	}

	err := s.start(ctx)
	s.startErr = err
	close(s.started)
	if err != nil {
		return err
	}
	if !s.state.CompareAndSwap(uint32(supervisorStarting), uint32(supervisorRunning)) {
		// Shutdown ran while starting and has torn everything down.
		return ErrShuttingDown
	}
	return nil
}

func (s *Supervisor) start(ctx context.Context) (err error) {
	log := Logger()
	port := s.cfg.Port

	cleanupCtx := func() (context.Context, context.CancelFunc) {
		return context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	}
	var undo []func()
	defer func() {
		if err == nil {
			return
		}
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
	}()

	if s.cfg.LockDir != "" {
		lockCtx, cancel := context.WithTimeout(ctx, s.cfg.LockTimeout)
		lock, lockErr := portlock.Acquire(lockCtx, s.cfg.LockDir, port, log)
		cancel()
		if lockErr != nil {
			s.report.Error(notify.ContextSupervisor, lockErr)
			return lockErr
		}
		s.lock = lock
		undo = append(undo, lock.Release)
	}

	// Reclaim errors were reported by the reclaimer; binding decides.
	res, reclaimErr := s.reclaimer.Reclaim(ctx, port)
	if reclaimErr != nil {
		log.Warn("port reclamation incomplete, binding anyway", "port", port, "outcome", res.Outcome.String(), "err", reclaimErr)
	}

	ln, err := s.listen(s.cfg.Host, port)
	if err != nil {
		if netutil.IsAddrInUse(err) {
			err = fmt.Errorf("bind port %d: still held after reclaim (outcome %s): %w", port, res.Outcome, err)
		} else {
			err = fmt.Errorf("bind port %d: %w", port, err)
		}
		s.report.Error(notify.ContextSupervisor, err)
		return err
	}
	s.ln = ln
	undo = append(undo, func() { _ = ln.Close() })

	// The pool reports its own errors.
	handle, err := s.pool.Acquire(ctx, s.cfg.DBURI, s.cfg.DBName)
	if err != nil {
		return fmt.Errorf("acquire database: %w", err)
	}
	s.handle = handle
	undo = append(undo, func() {
		cctx, cancel := cleanupCtx()
		defer cancel()
		if closeErr := s.pool.Close(cctx); closeErr != nil {
			log.Warn("close pool after failed start", "err", closeErr)
		}
	})

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	undo = append(undo, cancel)

	s.srv = server.New(server.Config{
		Gatherer: s.registry,
		Health:   s.health,
		Logger:   log.With("component", "http"),
	})
	group := &errgroup.Group{}
	srv := s.srv
	group.Go(func() error { return srv.Serve(ln) })
	s.group = group
	undo = append(undo, func() {
		cctx, cancel := cleanupCtx()
		defer cancel()
		_ = srv.Shutdown(cctx)
		_ = group.Wait()
	})

	parent := s.cfg.ParentPID
	if parent == 0 {
		parent = os.Getppid()
	}
	if err = s.watchdog.Start(runCtx, parent, s.cfg.WatchInterval); err != nil {
		err = fmt.Errorf("start watchdog: %w", err)
		s.report.Error(notify.ContextSupervisor, err)
		return err
	}

	log.Info("supervisor ready", "addr", ln.Addr().String(), "parent_pid", parent)
	s.report.Logf(notify.ContextSupervisor, "listening on %s, watching parent %d", ln.Addr(), parent)
	return nil
}

// Wait blocks until the HTTP server stops, after Shutdown or on a serve
// error, and returns that error.
func (s *Supervisor) Wait() error {
	switch s.loadState() {
	case supervisorCreated:
		return ErrNotStarted
	case supervisorStarting, supervisorRunning, supervisorShuttingDown:
	}
	<-s.started
	if s.startErr != nil {
		return s.startErr
	}
	return s.group.Wait()
}

// Shutdown stops serving, stops the watchdog, releases the database
// connection and the port lock, in that order. Safe to call at any time and
// more than once; later calls return the first call's result.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		prev := supervisorState(s.state.Swap(uint32(supervisorShuttingDown)))
		if prev == supervisorCreated {
			s.startErr = ErrShuttingDown
			close(s.started)
			return
		}
		<-s.started
		if s.startErr != nil {
			return
		}
		s.shutdownErr = s.teardown(ctx)
	})
	return s.shutdownErr
}

func (s *Supervisor) teardown(ctx context.Context) error {
	var errs []error
	if err := s.srv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop http server: %w", err))
	}
	s.cancel()
	if err := s.group.Wait(); err != nil {
		errs = append(errs, fmt.Errorf("http server: %w", err))
	}
	if err := s.pool.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("release database: %w", err))
	}
	s.lock.Release()
	Logger().Info("supervisor stopped")
	return errors.Join(errs...)
}

// Addr returns the bound address, or "" before a successful Start.
func (s *Supervisor) Addr() string {
	if st := s.loadState(); st != supervisorRunning && st != supervisorShuttingDown {
		return ""
	}
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Pool returns the connection pool.
//
//nolint:ireturn // the pool may be replaced through Deps.
func (s *Supervisor) Pool() ConnectionPool {
	return s.pool
}

// Handle returns the handle acquired during Start, or nil before it.
func (s *Supervisor) Handle() *dbpool.Handle {
	if s.loadState() != supervisorRunning {
		return nil
	}
	return s.handle
}

// Registry returns the registry behind /metrics.
func (s *Supervisor) Registry() *prometheus.Registry {
	return s.registry
}

func (s *Supervisor) health() server.Health {
	wd := s.watchdog.State()
	db := s.pool.State()
	h := server.Health{
		Status:   "ok",
		Database: db.String(),
		Watchdog: server.WatchdogHealth{
			ParentPID:  wd.TargetPID,
			IntervalMS: wd.Interval.Milliseconds(),
			Active:     wd.Active,
		},
	}
	if s.loadState() != supervisorRunning || db != dbpool.Connected {
		h.Status = "degraded"
	}
	return h
}
