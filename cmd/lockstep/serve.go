package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/giantswarm/lockstep"
	"github.com/giantswarm/lockstep/internal/notify"
)

// exitFlushDelay gives the stdio writer time to flush the last notification
// before the process exits.
const exitFlushDelay = 50 * time.Millisecond

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over stdio while holding the port and the database",
		Long: `Serve MCP over stdio. Before serving, the port is reclaimed from any
process holding it and bound, and the database connection is opened. Startup
fails with status 1 when the port cannot be bound or no database URI is set.

Progress and errors are sent to the MCP client as "log" and "error"
notifications and mirrored to stderr.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := newViper(cmd)
			if err != nil {
				return err
			}
			s, err := loadSettings(v, true)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), s)
			lockstep.SetLogger(logger.With("component", "lockstep"))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
			defer stop()
			return runServe(ctx, s, logger, cmd.InOrStdin(), cmd.OutOrStdout(), exitAfterFlush)
		},
	}
	addServeFlags(cmd.Flags())
	return cmd
}

func exitAfterFlush(code int) {
	time.Sleep(exitFlushDelay)
	os.Exit(code)
}

// runServe serves MCP on stdin/stdout under a supervisor until ctx is done,
// the MCP client disconnects or the HTTP server fails. exit ends the
// process when the parent is gone or on interrupt.
func runServe(ctx context.Context, s settings, logger *slog.Logger, stdin io.Reader, stdout io.Writer, exit func(int)) error {
	mcpServer := server.NewMCPServer("lockstep", version, server.WithLogging())
	stdio := server.NewStdioServer(mcpServer)
	stdio.SetErrorLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError))

	toClient := notify.NewMCP(mcpServer)
	toClient.FlushOnInitialized(mcpServer)
	notifier := notify.Multi{toClient, notify.NewLog(logger)}
	sup := lockstep.New(s.Port, append(s.options(),
		lockstep.WithNotifier(notifier),
		lockstep.WithExitFunc(exit),
	)...)

	transportCtx, stopTransport := context.WithCancel(ctx)
	defer stopTransport()
	transportDone := make(chan error, 1)
	go func() { transportDone <- stdio.Listen(transportCtx, stdin, stdout) }()

	if err := sup.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	served := make(chan error, 1)
	go func() { served <- sup.Wait() }()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("termination requested, shutting down")
	case err := <-transportDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			runErr = fmt.Errorf("mcp transport: %w", err)
		}
		logger.Info("mcp client disconnected, shutting down")
	case err := <-served:
		runErr = err
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.ShutdownTimeout)
	defer cancel()
	return errors.Join(runErr, sup.Shutdown(shutdownCtx))
}
