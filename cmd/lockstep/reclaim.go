package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/giantswarm/lockstep/internal/netutil"
	"github.com/giantswarm/lockstep/internal/notify"
	"github.com/giantswarm/lockstep/internal/reclaim"
)

func newReclaimCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reclaim",
		Short: "Terminate every process holding a port, then exit",
		Long: `Terminate every process bound to the port and wait for the port to be
released. Exits with status 1 if the port is still bound afterwards.

The processes are killed without warning. Only use this on ports you own.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := newViper(cmd)
			if err != nil {
				return err
			}
			s, err := loadSettings(v, false)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), s)

			r := reclaim.New(reclaim.Config{
				SettleDelay:    s.SettleDelay,
				ConfirmTimeout: s.ConfirmTimeout,
				Notifier:       notify.NewLog(logger),
				Logger:         logger.With("component", "reclaim"),
			})
			res, err := r.Reclaim(cmd.Context(), s.Port)
			if err == nil {
				err = checkReleased(s.Port, logger)
			}
			printResult(cmd.OutOrStdout(), res)
			return err
		},
	}
	addPortFlags(cmd.Flags())
	return cmd
}

// checkReleased binds the port once on loopback. lsof only sees the sockets
// of processes the caller may inspect, so a bind is the final word.
func checkReleased(port int, log *slog.Logger) error {
	if netutil.IsFree(port, log) {
		return nil
	}
	return fmt.Errorf("port %d cannot be bound: %w", port, reclaim.ErrPortStillBound)
}

// printResult writes a one-line summary of res.
func printResult(w io.Writer, res reclaim.Result) {
	switch {
	case len(res.Killed) > 0 || len(res.Vanished) > 0:
		fmt.Fprintf(w, "port %d: %s (killed %v, already gone %v)\n", res.Port, res.Outcome, res.Killed, res.Vanished)
	default:
		fmt.Fprintf(w, "port %d: %s\n", res.Port, res.Outcome)
	}
}
