package reclaim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/giantswarm/lockstep/internal/metrics"
	"github.com/giantswarm/lockstep/internal/notify"
	"github.com/giantswarm/lockstep/internal/platform"
	"github.com/giantswarm/lockstep/internal/process"
)

// Defaults applied by New for zero Config fields.
const (
	DefaultSettleDelay     = 1000 * time.Millisecond
	DefaultConfirmTimeout  = 2 * time.Second
	DefaultConfirmInterval = 100 * time.Millisecond
)

// Outcome is how a reclamation ended.
type Outcome int

const (
	// Failed means the owners could not be listed; nothing was killed.
	Failed Outcome = iota
	// AlreadyFree means nothing was bound to the port.
	AlreadyFree
	// Freed means kills were issued and the settle delay elapsed. Errors
	// returned alongside say whether every owner is really gone.
	Freed
)

func (o Outcome) String() string {
	switch o {
	case AlreadyFree:
		return "already_free"
	case Freed:
		return "freed"
	default:
		return "failed"
	}
}

// Result describes one reclamation.
type Result struct {
	Port    int
	Outcome Outcome
	// Owners are the PIDs found bound to the port, in discovery order.
	Owners []int
	// Killed are the owners whose kill command succeeded.
	Killed []int
	// Vanished are the owners whose kill failed because they had already
	// exited.
	Vanished []int
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Config configures a Reclaimer. Zero fields take defaults.
type Config struct {
	Runner  process.Runner   // defaults to process.ExecRunner
	Dialect platform.Dialect // defaults to platform.Current()
	// Probe tells whether a PID whose kill failed is still alive. Defaults to
	// process.Probe.
	Probe func(pid int) error
	Sleep SleepFunc // defaults to a timer honoring ctx

	SettleDelay     time.Duration
	ConfirmTimeout  time.Duration
	ConfirmInterval time.Duration

	Notifier notify.Notifier
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// Reclaimer frees TCP ports. It holds no per-port state and is safe for
// concurrent use when its collaborators are.
type Reclaimer struct {
	runner  process.Runner
	dialect platform.Dialect
	probe   func(pid int) error
	sleep   SleepFunc

	settleDelay     time.Duration
	confirmTimeout  time.Duration
	confirmInterval time.Duration

	report  *notify.Reporter
	metrics *metrics.Metrics
	log     *slog.Logger
}

// New returns a Reclaimer for cfg.
func New(cfg Config) *Reclaimer {
	r := &Reclaimer{
		runner:          cfg.Runner,
		dialect:         cfg.Dialect,
		probe:           cfg.Probe,
		sleep:           cfg.Sleep,
		settleDelay:     cfg.SettleDelay,
		confirmTimeout:  cfg.ConfirmTimeout,
		confirmInterval: cfg.ConfirmInterval,
		report:          notify.NewReporter(cfg.Notifier),
		metrics:         cfg.Metrics,
		log:             cfg.Logger,
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	if r.runner == nil {
		r.runner = process.ExecRunner{Logger: r.log}
	}
	if r.dialect == nil {
		r.dialect = platform.Current()
	}
	if r.probe == nil {
		r.probe = process.Probe
	}
	if r.sleep == nil {
		r.sleep = sleepContext
	}
	if r.settleDelay <= 0 {
		r.settleDelay = DefaultSettleDelay
	}
	if r.confirmTimeout <= 0 {
		r.confirmTimeout = DefaultConfirmTimeout
	}
	if r.confirmInterval <= 0 {
		r.confirmInterval = DefaultConfirmInterval
	}
	return r
}

// Owners lists the PIDs bound to port. A "nothing found" exit of the list
// command yields no PIDs and no error; any other failure is an *Error.
func (r *Reclaimer) Owners(ctx context.Context, port int) ([]int, error) {
	cmd := r.dialect.ListCommand(port)
	res, err := r.runner.Run(ctx, cmd)
	if err != nil {
		if r.dialect.NoOwners(res, err) {
			if res.Stderr != "" {
				r.log.Debug("list command warnings", "port", port, "stderr", strings.TrimSpace(res.Stderr))
			}
			return nil, nil
		}
		return nil, &Error{Port: port, Command: cmd, Err: err}
	}
	return r.dialect.ParsePIDs(port, res.Stdout), nil
}

// Reclaim kills every process bound to port and waits for the port to be
// released. See the package documentation for the error model.
func (r *Reclaimer) Reclaim(ctx context.Context, port int) (Result, error) {
	result := Result{Port: port}
	r.report.Logf(notify.ContextPortKilling, "checking port %d for existing processes", port)

	owners, err := r.Owners(ctx, port)
	if err != nil {
		r.report.Error(notify.ContextPortKilling, err)
		r.metrics.Reclaim(Failed.String())
		return result, err
	}
	result.Owners = owners

	if len(owners) == 0 {
		result.Outcome = AlreadyFree
		r.log.Debug("port already free", "port", port, "dialect", r.dialect.Name())
		r.report.Logf(notify.ContextPortKilling, "port %d is free", port)
		r.metrics.Reclaim(AlreadyFree.String())
		return result, nil
	}

	r.report.Logf(notify.ContextPortKilling, "port %d held by PIDs %v", port, owners)

	var errs []error
	for _, pid := range owners {
		killed, err := r.kill(ctx, port, pid)
		if err != nil {
			r.report.Error(notify.ContextPortKilling, err)
			errs = append(errs, err)
			continue
		}
		if killed {
			result.Killed = append(result.Killed, pid)
		} else {
			result.Vanished = append(result.Vanished, pid)
		}
	}

	if err := r.sleep(ctx, r.settleDelay); err != nil {
		err = fmt.Errorf("reclaim port %d: settle: %w", port, err)
		r.report.Error(notify.ContextPortKilling, err)
		errs = append(errs, err)
	} else if err := r.confirm(ctx, port); err != nil {
		r.report.Error(notify.ContextPortKilling, err)
		errs = append(errs, err)
	}

	result.Outcome = Freed
	r.metrics.Reclaim(Freed.String())
	joined := errors.Join(errs...)
	if joined == nil {
		r.report.Logf(notify.ContextPortKilling, "port %d freed", port)
	}
	return result, joined
}

// kill force-kills pid. It reports killed=false with a nil error when the
// kill failed because pid had already exited.
func (r *Reclaimer) kill(ctx context.Context, port, pid int) (bool, error) {
	cmd := r.dialect.KillCommand(pid)
	r.log.Debug("killing port owner", "port", port, "pid", pid, "command", cmd.String())

	_, err := r.runner.Run(ctx, cmd)
	if err == nil {
		r.metrics.Kill(true)
		r.report.Logf(notify.ContextPortKilling, "killed process %d on port %d", pid, port)
		return true, nil
	}

	if probeErr := r.probe(pid); errors.Is(probeErr, process.ErrProcessNotFound) {
		r.metrics.Kill(true)
		r.log.Debug("port owner already gone", "port", port, "pid", pid, "exit_code", process.ExitCode(err))
		return false, nil
	}

	r.metrics.Kill(false)
	return false, &Error{Port: port, PID: pid, Command: cmd, Err: err}
}

// confirm polls the owners of port until there are none.
func (r *Reclaimer) confirm(ctx context.Context, port int) error {
	var last []int
	err := process.WaitFor(ctx, process.WaitConfig{
		Interval: r.confirmInterval,
		Timeout:  r.confirmTimeout,
		Name:     fmt.Sprintf("port %d release", port),
		Logger:   r.log,
	}, func(ctx context.Context, _ int) (bool, error) {
		owners, err := r.Owners(ctx, port)
		if err != nil {
			return false, err
		}
		last = owners
		return len(owners) == 0, nil
	})
	if err == nil {
		return nil
	}

	var cmdErr *Error
	if errors.As(err, &cmdErr) {
		return err
	}
	return fmt.Errorf("reclaim port %d: PIDs %v: %w", port, last, ErrPortStillBound)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
