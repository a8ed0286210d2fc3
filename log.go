package lockstep

import (
	"log/slog"

	"github.com/giantswarm/lockstep/internal/core"
)

// SetLogger replaces the logger used by lockstep. The logger is used as
// given; lockstep adds only per-component attributes.
//
// If l is nil, the logger resets to slog.Default() with component=lockstep.
// Call SetLogger(nil) after slog.SetDefault to pick up the new default.
//
// SetLogger is safe to call concurrently, but set it before Start so every
// component logs to the same place.
func SetLogger(l *slog.Logger) {
	core.SetLogger(l)
}
