package dbpool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/giantswarm/lockstep/internal/metrics"
	"github.com/giantswarm/lockstep/internal/notify"
)

// State is the lifecycle state of the pooled connection.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// flightKey is the only singleflight key: there is one connection per pool.
const flightKey = "connect"

// Config configures a Pool. Zero fields take defaults.
type Config struct {
	Options    *Options             // defaults to DefaultOptions()
	Connectors map[string]Connector // defaults to DefaultConnectors()
	Signals    SignalHooks
	Notifier   notify.Notifier
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// Pool holds at most one open connection. It is safe for concurrent use.
type Pool struct {
	opts       Options
	connectors map[string]Connector
	report     *notify.Reporter
	metrics    *metrics.Metrics
	log        *slog.Logger
	interrupt  *interruptHandler

	flight singleflight.Group

	mu     sync.Mutex
	state  State
	conn   Conn
	handle *Handle
}

// New returns a disconnected Pool.
func New(cfg Config) *Pool {
	p := &Pool{
		opts:       DefaultOptions(),
		connectors: cfg.Connectors,
		report:     notify.NewReporter(cfg.Notifier),
		metrics:    cfg.Metrics,
		log:        cfg.Logger,
	}
	if cfg.Options != nil {
		p.opts = *cfg.Options
	}
	if p.connectors == nil {
		p.connectors = DefaultConnectors()
	}
	if p.log == nil {
		p.log = slog.Default()
	}
	p.interrupt = newInterruptHandler(cfg.Signals, p.releaseOnInterrupt, p.log)
	return p
}

// State returns the current lifecycle state.
func (p *Pool) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Options returns the connection bounds the pool connects with.
func (p *Pool) Options() Options {
	return p.opts
}

// Acquire returns the pooled handle, connecting first when the pool is not
// connected. uri and dbName only matter for that connect; a cached handle is
// returned whatever they are.
func (p *Pool) Acquire(ctx context.Context, uri, dbName string) (*Handle, error) {
	if uri == "" {
		err := fmt.Errorf("acquire: %w", ErrMissingURI)
		p.report.Error(notify.ContextDBConfig, err)
		p.metrics.Acquire(metrics.AcquireError)
		return nil, err
	}

	if h := p.cached(); h != nil {
		p.cacheHit()
		return h, nil
	}

	// The flight outlives any one caller: a caller that gives up must not
	// fail the others sharing the connect. The driver's selection timeout
	// bounds it.
	ch := p.flight.DoChan(flightKey, func() (any, error) {
		return p.connect(context.WithoutCancel(ctx), uri, dbName)
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("acquire: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Handle), nil
	}
}

func (p *Pool) cached() *Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Connected {
		return p.handle
	}
	return nil
}

func (p *Pool) cacheHit() {
	p.log.Debug("using cached database connection")
	p.report.Logf(notify.ContextDBConnection, "using cached database connection")
	p.metrics.Acquire(metrics.AcquireCacheHit)
}

// connect runs inside the flight. The cache is checked again under the lock
// because a previous flight may have finished between the caller's check and
// this one starting.
func (p *Pool) connect(ctx context.Context, uri, dbName string) (*Handle, error) {
	p.mu.Lock()
	if p.state == Connected {
		h := p.handle
		p.mu.Unlock()
		p.cacheHit()
		return h, nil
	}

	connector, scheme, err := connectorFor(p.connectors, uri)
	if err != nil {
		p.mu.Unlock()
		err = fmt.Errorf("acquire: %w", err)
		p.report.Error(notify.ContextDBConfig, err)
		p.metrics.Acquire(metrics.AcquireError)
		return nil, err
	}
	p.state = Connecting
	p.mu.Unlock()

	p.log.Debug("connecting to database", "scheme", scheme, "db", dbName)
	conn, err := p.open(ctx, connector, uri, dbName)
	if err != nil {
		p.mu.Lock()
		p.state = Disconnected
		p.mu.Unlock()
		p.report.Error(notify.ContextDBConnection, err)
		p.metrics.Acquire(metrics.AcquireError)
		return nil, err
	}

	p.mu.Lock()
	p.conn = conn
	p.handle = conn.Handle()
	p.state = Connected
	h := p.handle
	p.mu.Unlock()

	p.interrupt.install()
	p.log.Info("database connected", "scheme", scheme, "db", dbName, "max_pool_size", p.opts.MaxPoolSize)
	p.report.Logf(notify.ContextDBConnection, "new database connection established with pooling")
	p.metrics.Acquire(metrics.AcquireFresh)
	return h, nil
}

// open connects and pings, closing the connection again when the ping fails.
func (p *Pool) open(ctx context.Context, c Connector, uri, dbName string) (Conn, error) {
	conn, err := c.Connect(ctx, uri, dbName, p.opts)
	if err != nil {
		return nil, fmt.Errorf("database connect: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		if closeErr := conn.Close(context.WithoutCancel(ctx)); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		return nil, fmt.Errorf("database connect: %w", err)
	}
	return conn, nil
}

// Release closes the connection and resets the pool. It returns nil without
// doing anything when no connection is open, including while a connect is
// still in flight.
func (p *Pool) Release(ctx context.Context) error {
	p.mu.Lock()
	if p.state != Connected {
		p.mu.Unlock()
		return nil
	}
	conn := p.conn
	p.conn = nil
	p.handle = nil
	p.state = Disconnected
	p.mu.Unlock()

	p.metrics.Release()
	if err := conn.Close(ctx); err != nil {
		err = fmt.Errorf("release: %w", err)
		p.report.Error(notify.ContextDBConnection, err)
		return err
	}
	p.log.Info("database connection closed")
	p.report.Logf(notify.ContextDBConnection, "database connection closed")
	return nil
}

// Close releases the connection and removes the interrupt handler. Use it
// when the pool's owner shuts down on its own terms.
func (p *Pool) Close(ctx context.Context) error {
	p.interrupt.stop()
	return p.Release(ctx)
}

func (p *Pool) releaseOnInterrupt(ctx context.Context) {
	if err := p.Release(ctx); err != nil {
		p.log.Error("release on interrupt", "err", err)
	}
}
