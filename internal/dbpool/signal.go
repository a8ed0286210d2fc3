package dbpool

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"time"
)

// ExitCodeInterrupted is the status the interrupt handler exits with.
const ExitCodeInterrupted = 130

// interruptReleaseTimeout bounds the release done by the interrupt handler.
const interruptReleaseTimeout = 5 * time.Second

// SignalHooks replace the process-level calls made by the interrupt handler.
// Zero fields use os/signal and os.Exit.
type SignalHooks struct {
	Notify func(c chan<- os.Signal, sig ...os.Signal)
	Stop   func(c chan<- os.Signal)
	Exit   func(code int)
}

// interruptHandler releases the pool and exits on os.Interrupt. It is
// installed at most once per pool.
type interruptHandler struct {
	hooks   SignalHooks
	release func(ctx context.Context)
	log     *slog.Logger

	once    sync.Once
	mu      sync.Mutex
	ch      chan os.Signal
	quit    chan struct{}
	stopped bool
}

func newInterruptHandler(hooks SignalHooks, release func(context.Context), log *slog.Logger) *interruptHandler {
	if hooks.Notify == nil {
		hooks.Notify = signal.Notify
	}
	if hooks.Stop == nil {
		hooks.Stop = signal.Stop
	}
	if hooks.Exit == nil {
		hooks.Exit = os.Exit
	}
	return &interruptHandler{hooks: hooks, release: release, log: log, quit: make(chan struct{})}
}

func (h *interruptHandler) install() {
	h.once.Do(func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.stopped {
			return
		}
		h.ch = make(chan os.Signal, 1)
		h.hooks.Notify(h.ch, os.Interrupt)
		go h.wait(h.ch)
	})
}

func (h *interruptHandler) wait(ch <-chan os.Signal) {
	select {
	case <-ch:
	case <-h.quit:
		return
	}
	h.log.Info("interrupt received, releasing database connection")
	ctx, cancel := context.WithTimeout(context.Background(), interruptReleaseTimeout)
	h.release(ctx)
	cancel()
	h.hooks.Exit(ExitCodeInterrupted)
}

func (h *interruptHandler) stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	h.stopped = true
	if h.ch != nil {
		h.hooks.Stop(h.ch)
	}
	close(h.quit)
}
