// Package watchdog ends the current process when its parent disappears.
//
// A child launched over stdio by an MCP host has no other reliable signal
// that the host is gone: the host may be killed without closing the pipes.
// The watchdog probes the parent PID on a fixed interval and, on the first
// failed probe, reports the loss and exits with status 0. Any probe failure
// counts as loss, including permission errors, so a watchdog that cannot see
// its parent errs towards exiting.
package watchdog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/giantswarm/lockstep/internal/metrics"
	"github.com/giantswarm/lockstep/internal/notify"
	"github.com/giantswarm/lockstep/internal/process"
	"github.com/giantswarm/lockstep/internal/sentinel"
)

// DefaultInterval is the probe interval used when Start gets a non-positive
// one.
const DefaultInterval = 2000 * time.Millisecond

// ExitCodeParentGone is passed to the exit hook when the parent is lost.
const ExitCodeParentGone = 0

// ErrAlreadyStarted is returned by a second Start.
const ErrAlreadyStarted = sentinel.Error("watchdog already started")

// State is a snapshot of the watchdog.
type State struct {
	TargetPID int
	Interval  time.Duration
	Active    bool
}

// Config configures a Watchdog. Zero fields take defaults.
type Config struct {
	Probe    func(pid int) error // defaults to process.Probe
	Exit     func(code int)      // defaults to os.Exit
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// Watchdog watches one parent PID. It is single use.
type Watchdog struct {
	probe   func(pid int) error
	exit    func(code int)
	report  *notify.Reporter
	metrics *metrics.Metrics
	log     *slog.Logger

	mu      sync.Mutex
	state   State
	started bool
	done    chan struct{}

	exitOnce sync.Once
}

// New returns an idle Watchdog.
func New(cfg Config) *Watchdog {
	w := &Watchdog{
		probe:   cfg.Probe,
		exit:    cfg.Exit,
		report:  notify.NewReporter(cfg.Notifier),
		metrics: cfg.Metrics,
		log:     cfg.Logger,
		done:    make(chan struct{}),
	}
	if w.probe == nil {
		w.probe = process.Probe
	}
	if w.exit == nil {
		w.exit = os.Exit
	}
	if w.log == nil {
		w.log = slog.Default()
	}
	return w
}

// Start launches the probe loop for parentPID and returns immediately. The
// loop ends when the parent is lost, after calling the exit hook, or when ctx
// is canceled, without calling it.
func (w *Watchdog) Start(ctx context.Context, parentPID int, interval time.Duration) error {
	if parentPID <= 0 {
		return fmt.Errorf("watchdog: parent pid %d: %w", parentPID, process.ErrInvalidPID)
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return ErrAlreadyStarted
	}
	w.started = true
	w.state = State{TargetPID: parentPID, Interval: interval, Active: true}
	w.mu.Unlock()

	w.log.Debug("watchdog started", "parent_pid", parentPID, "interval", interval)
	go w.run(ctx, parentPID, interval)
	return nil
}

func (w *Watchdog) run(ctx context.Context, pid int, interval time.Duration) {
	defer close(w.done)
	defer w.setInactive()

	var lost error
	err := wait.PollUntilContextCancel(ctx, interval, false, func(context.Context) (bool, error) {
		if probeErr := w.probe(pid); probeErr != nil {
			lost = probeErr
			w.metrics.WatchdogProbe(false)
			return true, nil
		}
		w.metrics.WatchdogProbe(true)
		return false, nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			w.log.Debug("watchdog stopped", "parent_pid", pid)
			return
		}
		w.log.Warn("watchdog loop ended unexpectedly", "parent_pid", pid, "err", err)
		return
	}

	w.trigger(pid, lost)
}

func (w *Watchdog) trigger(pid int, cause error) {
	w.exitOnce.Do(func() {
		w.log.Info("parent process gone, exiting", "parent_pid", pid, "cause", cause)
		w.report.Error(notify.ContextTransportClose,
			fmt.Errorf("parent process %d is gone, shutting down: %w", pid, cause))
		w.exit(ExitCodeParentGone)
	})
}

func (w *Watchdog) setInactive() {
	w.mu.Lock()
	w.state.Active = false
	w.mu.Unlock()
}

// State returns a snapshot of the watchdog.
func (w *Watchdog) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Done is closed when the probe loop ends. It never closes for a watchdog
// that was not started.
func (w *Watchdog) Done() <-chan struct{} {
	return w.done
}
