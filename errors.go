package lockstep

import (
	"github.com/giantswarm/lockstep/internal/core"
	"github.com/giantswarm/lockstep/internal/dbpool"
	"github.com/giantswarm/lockstep/internal/process"
	"github.com/giantswarm/lockstep/internal/reclaim"
)

// Sentinel errors for inspection with errors.Is.
const (
	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = core.ErrAlreadyStarted

	// ErrNotStarted is returned by Wait before Start.
	ErrNotStarted = core.ErrNotStarted

	// ErrShuttingDown is returned by Start after Shutdown.
	ErrShuttingDown = core.ErrShuttingDown

	// ErrMissingURI is returned when no database URI is configured. Start
	// fails with it; no connection is attempted.
	ErrMissingURI = dbpool.ErrMissingURI

	// ErrUnsupportedScheme is returned for a database URI whose scheme has
	// no driver.
	ErrUnsupportedScheme = dbpool.ErrUnsupportedScheme

	// ErrPortStillBound is reported when the port still has owners after
	// reclamation. Start tolerates it and tries to bind anyway.
	ErrPortStillBound = reclaim.ErrPortStillBound

	// ErrProcessNotFound is wrapped by probe failures for a PID that does
	// not exist.
	ErrProcessNotFound = process.ErrProcessNotFound
)

// ReclaimError is a failed command during port reclamation.
type ReclaimError = reclaim.Error
