package lockstep

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/giantswarm/lockstep/internal/core"
	"github.com/giantswarm/lockstep/internal/dbpool"
	"github.com/giantswarm/lockstep/internal/notify"
)

// supervisorConfig holds the configuration built by New's options. It embeds
// core.Config so the public API needs no field-by-field copy.
type supervisorConfig struct {
	core.Config

	notifier notify.Notifier
	registry *prometheus.Registry
	poolOpts dbpool.Options
	exit     func(code int)
}

// toCoreConfig returns the embedded core.Config.
func (c supervisorConfig) toCoreConfig() core.Config {
	return c.Config
}

// toDeps returns the collaborators set by options.
func (c supervisorConfig) toDeps() core.Deps {
	opts := c.poolOpts
	return core.Deps{
		Notifier: c.notifier,
		Registry: c.registry,
		PoolOpts: &opts,
		Exit:     c.exit,
	}
}
