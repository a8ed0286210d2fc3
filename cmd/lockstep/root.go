package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/giantswarm/lockstep"
	"github.com/giantswarm/lockstep/internal/netutil"
)

// envPrefix prefixes every environment variable read by the CLI, so the
// db-uri flag is LOCKSTEP_DB_URI.
const envPrefix = "LOCKSTEP"

// Flag names, also used as viper keys.
const (
	flagPort            = "port"
	flagHost            = "host"
	flagDBURI           = "db-uri"
	flagDBName          = "db-name"
	flagParentPID       = "parent-pid"
	flagWatchInterval   = "watch-interval"
	flagSettleDelay     = "settle-delay"
	flagConfirmTimeout  = "confirm-timeout"
	flagLockDir         = "lock-dir"
	flagNoPortLock      = "no-port-lock"
	flagShutdownTimeout = "shutdown-timeout"
	flagLogLevel        = "log-level"
	flagLogFormat       = "log-format"
)

// settings is the resolved CLI configuration.
type settings struct {
	Port            int
	Host            string
	DBURI           string
	DBName          string
	ParentPID       int
	WatchInterval   time.Duration
	SettleDelay     time.Duration
	ConfirmTimeout  time.Duration
	LockDir         string
	NoPortLock      bool
	ShutdownTimeout time.Duration
	LogLevel        slog.Level
	LogFormat       string
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lockstep",
		Short: "Run a server in lockstep with the process that started it",
		Long: `lockstep frees a TCP port by terminating whatever holds it, binds the
port, opens a pooled database connection and serves MCP over stdio. It exits
with status 0 when its parent process goes away and with status 130 after an
interrupt.

Every flag can also be set through the environment as LOCKSTEP_<FLAG>, with
dashes replaced by underscores. MONGODB_URI is read when LOCKSTEP_DB_URI is
not set.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String(flagLogLevel, "info", "Logging verbosity (debug, info, warn, error)")
	cmd.PersistentFlags().String(flagLogFormat, "text", "Log format written to stderr (text, json)")

	cmd.AddCommand(newServeCommand(), newReclaimCommand())
	return cmd
}

// addPortFlags registers the flags shared by every command that reclaims a
// port.
func addPortFlags(fs *pflag.FlagSet) {
	fs.Int(flagPort, 0, "TCP port to reclaim and bind (required)")
	fs.Duration(flagSettleDelay, lockstep.DefaultSettleDelay, "Wait after killing the port's owners")
	fs.Duration(flagConfirmTimeout, lockstep.DefaultConfirmTimeout, "Bound on the wait for the port to be released")
}

// addServeFlags registers the flags of the serve command.
func addServeFlags(fs *pflag.FlagSet) {
	addPortFlags(fs)
	fs.String(flagHost, lockstep.DefaultHost, "Address the port is bound on")
	fs.String(flagDBURI, "", "Database URI (mongodb://, mongodb+srv://, sqlite://, file:)")
	fs.String(flagDBName, "", "Database name")
	fs.Int(flagParentPID, 0, "Process to watch (default: the parent process)")
	fs.Duration(flagWatchInterval, lockstep.DefaultWatchInterval, "Parent process probe interval")
	fs.String(flagLockDir, "", "Directory for per-port lock files (default: user cache dir)")
	fs.Bool(flagNoPortLock, false, "Do not take the per-port lock")
	fs.Duration(flagShutdownTimeout, lockstep.DefaultShutdownTimeout, "Bound on shutdown")
}

// newViper binds the command's flags and the environment into a new viper
// instance. Flags set on the command line win over the environment, which
// wins over flag defaults.
func newViper(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}
	if err := v.BindEnv(flagDBURI, envPrefix+"_DB_URI", "MONGODB_URI"); err != nil {
		return nil, fmt.Errorf("bind %s env: %w", flagDBURI, err)
	}
	return v, nil
}

// loadSettings reads and validates the configuration, reporting every
// invalid value at once. serve adds the checks of the serve-only flags.
func loadSettings(v *viper.Viper, serve bool) (settings, error) {
	s := settings{
		Port:            v.GetInt(flagPort),
		Host:            v.GetString(flagHost),
		DBURI:           v.GetString(flagDBURI),
		DBName:          v.GetString(flagDBName),
		ParentPID:       v.GetInt(flagParentPID),
		WatchInterval:   v.GetDuration(flagWatchInterval),
		SettleDelay:     v.GetDuration(flagSettleDelay),
		ConfirmTimeout:  v.GetDuration(flagConfirmTimeout),
		LockDir:         v.GetString(flagLockDir),
		NoPortLock:      v.GetBool(flagNoPortLock),
		ShutdownTimeout: v.GetDuration(flagShutdownTimeout),
		LogFormat:       v.GetString(flagLogFormat),
	}

	var errs []error
	if err := netutil.ValidatePort(s.Port); err != nil {
		errs = append(errs, fmt.Errorf("--%s: %w", flagPort, err))
	}
	for name, d := range map[string]time.Duration{
		flagSettleDelay:    s.SettleDelay,
		flagConfirmTimeout: s.ConfirmTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("--%s must be greater than 0, got %s", name, d))
		}
	}
	if serve {
		errs = append(errs, s.validateServe()...)
	}
	level, err := parseLevel(v.GetString(flagLogLevel))
	if err != nil {
		errs = append(errs, err)
	}
	s.LogLevel = level
	if s.LogFormat == "" {
		s.LogFormat = "text"
	}
	if s.LogFormat != "text" && s.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("--%s must be text or json, got %q", flagLogFormat, s.LogFormat))
	}

	return s, errors.Join(errs...)
}

func (s settings) validateServe() []error {
	var errs []error
	if s.ParentPID < 0 {
		errs = append(errs, fmt.Errorf("--%s must not be negative, got %d", flagParentPID, s.ParentPID))
	}
	for name, d := range map[string]time.Duration{
		flagWatchInterval:   s.WatchInterval,
		flagShutdownTimeout: s.ShutdownTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("--%s must be greater than 0, got %s", name, d))
		}
	}
	if s.DBURI != "" && s.DBName == "" {
		errs = append(errs, fmt.Errorf("--%s is required with --%s", flagDBName, flagDBURI))
	}
	return errs
}

// parseLevel maps a log level name onto a slog.Level. The empty string is
// info.
func parseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("--%s must be debug, info, warn or error, got %q", flagLogLevel, name)
	}
}

// newLogger returns a logger writing to w, which must not be stdout: stdout
// carries the MCP session.
func newLogger(w io.Writer, s settings) *slog.Logger {
	opts := &slog.HandlerOptions{Level: s.LogLevel}
	if s.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// options turns the settings into supervisor options.
func (s settings) options() []lockstep.Option {
	opts := []lockstep.Option{
		lockstep.WithHost(s.Host),
		lockstep.WithDatabaseURI(s.DBURI),
		lockstep.WithWatchInterval(s.WatchInterval),
		lockstep.WithSettleDelay(s.SettleDelay),
		lockstep.WithConfirmTimeout(s.ConfirmTimeout),
		lockstep.WithShutdownTimeout(s.ShutdownTimeout),
	}
	if s.DBName != "" {
		opts = append(opts, lockstep.WithDatabaseName(s.DBName))
	}
	if s.ParentPID > 0 {
		opts = append(opts, lockstep.WithParentPID(s.ParentPID))
	}
	switch {
	case s.NoPortLock:
		opts = append(opts, lockstep.WithoutPortLock())
	case s.LockDir != "":
		opts = append(opts, lockstep.WithLockDir(s.LockDir))
	}
	return opts
}
