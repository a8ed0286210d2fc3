package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/giantswarm/lockstep/internal/sentinel"
	"k8s.io/apimachinery/pkg/util/wait"
)

// Sentinel errors returned by WaitFor for invalid configuration. Callers can
// match these with errors.Is through wrapped error chains.
const (
	// ErrIntervalNotPositive indicates a non-positive poll interval.
	ErrIntervalNotPositive = sentinel.Error("interval must be positive")

	// ErrTimeoutNotPositive indicates a non-positive timeout.
	ErrTimeoutNotPositive = sentinel.Error("timeout must be positive")
)

// Condition is polled by WaitFor. The context is canceled when the overall
// timeout elapses or the caller cancels. attempt is 1-based. Returning true
// ends the wait successfully; a non-nil error aborts it.
type Condition func(ctx context.Context, attempt int) (done bool, err error)

// WaitConfig configures WaitFor.
type WaitConfig struct {
	Interval time.Duration // Poll interval
	Timeout  time.Duration // Overall timeout
	Name     string        // What is being waited for, for logs and errors
	Logger   *slog.Logger  // Optional; defaults to slog.Default()
}

// WaitFor polls cond immediately and then every cfg.Interval until it reports
// done, returns an error, or cfg.Timeout elapses.
func WaitFor(ctx context.Context, cfg WaitConfig, cond Condition) error {
	if cfg.Name == "" {
		return errors.New("wait: name must not be empty")
	}
	if cfg.Interval <= 0 {
		return fmt.Errorf("wait for %s: %w", cfg.Name, ErrIntervalNotPositive)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("wait for %s: %w", cfg.Name, ErrTimeoutNotPositive)
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	// PollUntilContextTimeout calls the condition sequentially, so attempt
	// needs no synchronization.
	attempt := 0
	if err := wait.PollUntilContextTimeout(ctx, cfg.Interval, cfg.Timeout, true,
		func(pollCtx context.Context) (bool, error) {
			attempt++
			done, err := cond(pollCtx, attempt)
			if err != nil {
				return false, err
			}
			if done {
				log.Debug("wait succeeded", "name", cfg.Name, "attempt", attempt)
			}
			return done, nil
		}); err != nil {
		return fmt.Errorf("wait for %s after %d attempts: %w", cfg.Name, attempt, err)
	}
	return nil
}
