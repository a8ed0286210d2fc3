package lockstep

import (
	"context"

	"github.com/giantswarm/lockstep/internal/dbpool"
	"github.com/giantswarm/lockstep/internal/notify"
)

// Handle is the pooled database connection. Use its Mongo or SQL method to
// get the driver objects.
type Handle = dbpool.Handle

// PoolState is the lifecycle state of the pooled connection.
type PoolState = dbpool.State

// Pool states.
const (
	Disconnected = dbpool.Disconnected
	Connecting   = dbpool.Connecting
	Connected    = dbpool.Connected
)

// Supervisor runs a server's lifecycle around one port and one database.
//
// Lifecycle:
//
//	New → Start → (serve) → Shutdown
//
// Shutdown is safe at any point, including before Start.
type Supervisor interface {
	// Start takes the port lock, reclaims and binds the port, connects to
	// the database, starts serving and starts the parent watchdog, in that
	// order. It returns once serving. A bind or database failure is
	// returned and everything already set up is undone; reclamation
	// failures are only reported.
	Start(ctx context.Context) error

	// Wait blocks until serving stops and returns the serve error, or the
	// Start error if Start failed. Returns ErrNotStarted before Start.
	Wait() error

	// Shutdown stops serving and the watchdog, closes the database
	// connection and releases the port lock. Idempotent.
	Shutdown(ctx context.Context) error

	// Addr returns the bound address, or "" when not serving.
	Addr() string

	// Pool returns the connection pool. Acquire on it returns the cached
	// handle once Start has succeeded.
	Pool() Pool
}

// Pool is the supervisor's single database connection.
type Pool interface {
	// Acquire returns the cached handle, connecting first if needed.
	// Concurrent callers share one connect. An empty uri returns
	// ErrMissingURI without connecting.
	Acquire(ctx context.Context, uri, dbName string) (*Handle, error)

	// Release closes the connection. The next Acquire connects afresh.
	// Releasing a disconnected pool is a no-op.
	Release(ctx context.Context) error

	// State returns the current connection state.
	State() PoolState
}

// Notification is a progress or error report sent to the parent.
type Notification = notify.Notification

// Notifier receives notifications. Notify must not block.
type Notifier = notify.Notifier

// NotifierFunc adapts a function to Notifier.
type NotifierFunc = notify.Func

// Notification kinds.
const (
	KindLog   = notify.KindLog
	KindError = notify.KindError
)
