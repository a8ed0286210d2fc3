package lockstep

import (
	"time"

	"github.com/giantswarm/lockstep/internal/reclaim"
	"github.com/giantswarm/lockstep/internal/watchdog"
)

// Default configuration values for New. Exported so callers can build
// values relative to them.
const (
	// DefaultHost binds the port on loopback only.
	DefaultHost = "127.0.0.1"

	// DefaultWatchInterval is how often the parent process is probed.
	DefaultWatchInterval = watchdog.DefaultInterval

	// DefaultSettleDelay is the wait after killing the port's owners before
	// the port is checked again.
	DefaultSettleDelay = reclaim.DefaultSettleDelay

	// DefaultConfirmTimeout bounds the wait for the port to be released
	// after the settle delay.
	DefaultConfirmTimeout = reclaim.DefaultConfirmTimeout

	// DefaultLockTimeout bounds the wait for another supervisor holding the
	// same port lock.
	DefaultLockTimeout = 30 * time.Second

	// DefaultShutdownTimeout bounds shutdown and the teardown of a failed
	// Start.
	DefaultShutdownTimeout = 10 * time.Second

	// DefaultMaxPoolSize caps the connections opened by the database driver.
	DefaultMaxPoolSize = 10

	// DefaultServerSelectionTimeout bounds the wait for a usable server.
	DefaultServerSelectionTimeout = 5 * time.Second

	// DefaultSocketTimeout bounds a single database round trip.
	DefaultSocketTimeout = 45 * time.Second

	// DefaultMaxConnIdleTime closes pooled connections idle for longer.
	DefaultMaxConnIdleTime = 30 * time.Second
)
