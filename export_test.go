package lockstep

import "time"

// ConfigSnapshot holds a copy of supervisorConfig fields for test
// assertions.
type ConfigSnapshot struct {
	Port                   int
	Host                   string
	DBURI                  string
	DBName                 string
	ParentPID              int
	WatchInterval          time.Duration
	SettleDelay            time.Duration
	ConfirmTimeout         time.Duration
	LockDir                string
	LockTimeout            time.Duration
	ShutdownTimeout        time.Duration
	MaxPoolSize            uint64
	ServerSelectionTimeout time.Duration
	HasNotifier            bool
	HasRegistry            bool
	HasExit                bool
}

// ApplyOptionsForTesting builds a default supervisorConfig for port, applies
// the given options and returns a snapshot of the result.
func ApplyOptionsForTesting(port int, opts ...Option) ConfigSnapshot {
	cfg := defaultSupervisorConfig(port)
	for _, opt := range opts {
		opt(&cfg)
	}

	return ConfigSnapshot{
		Port:                   cfg.Port,
		Host:                   cfg.Host,
		DBURI:                  cfg.DBURI,
		DBName:                 cfg.DBName,
		ParentPID:              cfg.ParentPID,
		WatchInterval:          cfg.WatchInterval,
		SettleDelay:            cfg.SettleDelay,
		ConfirmTimeout:         cfg.ConfirmTimeout,
		LockDir:                cfg.LockDir,
		LockTimeout:            cfg.LockTimeout,
		ShutdownTimeout:        cfg.ShutdownTimeout,
		MaxPoolSize:            cfg.poolOpts.MaxPoolSize,
		ServerSelectionTimeout: cfg.poolOpts.ServerSelectionTimeout,
		HasNotifier:            cfg.notifier != nil,
		HasRegistry:            cfg.registry != nil,
		HasExit:                cfg.exit != nil,
	}
}
