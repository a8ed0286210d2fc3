// Package portlock serializes supervisors that want the same TCP port. Two
// lockstep processes started for one port would otherwise reclaim the port
// from each other in a loop; the loser of the lock waits instead.
package portlock

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"

	"github.com/giantswarm/lockstep/internal/fileutil"
)

// RetryInterval is the interval between attempts to take a held lock.
const RetryInterval = 50 * time.Millisecond

// Lock is a held per-port file lock.
type Lock struct {
	fl   *flock.Flock
	port int
	log  *slog.Logger
}

// Path returns the lock file path for port inside dir.
func Path(dir string, port int) string {
	return filepath.Join(dir, "port-"+strconv.Itoa(port)+".lock")
}

// Acquire takes the exclusive lock for port, creating dir if needed. It
// retries every RetryInterval until the lock is taken or ctx is done.
func Acquire(ctx context.Context, dir string, port int, log *slog.Logger) (*Lock, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := fileutil.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("port lock %d: %w", port, err)
	}

	path := Path(dir, port)
	fl := flock.New(path)

	locked, err := fl.TryLockContext(ctx, RetryInterval)
	if err != nil {
		return nil, fmt.Errorf("acquiring port lock %s: %w", path, err)
	}
	if !locked {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("acquiring port lock %s: %w", path, ctx.Err())
		}
		return nil, fmt.Errorf("acquiring port lock %s: lock not acquired", path)
	}

	log.Debug("port lock acquired", "port", port, "path", path)
	return &Lock{fl: fl, port: port, log: log}, nil
}

// Port returns the locked port.
func (l *Lock) Port() int { return l.port }

// Release unlocks and closes the lock file. The file stays on disk so a
// concurrent holder's lock is never invalidated by a remove. Safe on nil and
// safe to call more than once.
func (l *Lock) Release() {
	if l == nil || l.fl == nil {
		return
	}
	if err := l.fl.Close(); err != nil {
		l.log.Debug("failed to release port lock", "path", l.fl.Path(), "err", err)
	}
}
