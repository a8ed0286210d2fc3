package lockstep_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/giantswarm/lockstep"
)

// TestPublicErrorConstants verifies that every exported error constant:
//   - implements the error interface (Error() returns a non-empty string)
//   - matches itself via errors.Is
//   - matches itself when wrapped via fmt.Errorf %w
//   - does not match a different error constant
func TestPublicErrorConstants(t *testing.T) {
	t.Parallel()

	allErrors := map[string]error{
		"ErrAlreadyStarted":    lockstep.ErrAlreadyStarted,
		"ErrMissingURI":        lockstep.ErrMissingURI,
		"ErrNotStarted":        lockstep.ErrNotStarted,
		"ErrPortStillBound":    lockstep.ErrPortStillBound,
		"ErrProcessNotFound":   lockstep.ErrProcessNotFound,
		"ErrShuttingDown":      lockstep.ErrShuttingDown,
		"ErrUnsupportedScheme": lockstep.ErrUnsupportedScheme,
	}

	for name, sentinel := range allErrors {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if sentinel == nil {
				t.Fatalf("%s is nil", name)
			}
			if msg := sentinel.Error(); msg == "" {
				t.Errorf("%s.Error() returned empty string", name)
			}

			if !errors.Is(sentinel, sentinel) {
				t.Errorf("errors.Is(%s, %s) = false, want true (self-match)", name, name)
			}

			wrapped := fmt.Errorf("wrapping: %w", sentinel)
			if !errors.Is(wrapped, sentinel) {
				t.Errorf("errors.Is(wrapped %s) = false, want true", name)
			}

			differentErr := errors.New("some other error")
			if errors.Is(sentinel, differentErr) {
				t.Errorf("errors.Is(%s, errors.New(...)) = true, want false", name)
			}
		})
	}
}

// TestPublicErrorConstantsAreDistinct verifies that no two exported error
// constants are equal to each other.
func TestPublicErrorConstantsAreDistinct(t *testing.T) {
	t.Parallel()

	named := []struct {
		name string
		err  error
	}{
		{"ErrAlreadyStarted", lockstep.ErrAlreadyStarted},
		{"ErrMissingURI", lockstep.ErrMissingURI},
		{"ErrNotStarted", lockstep.ErrNotStarted},
		{"ErrPortStillBound", lockstep.ErrPortStillBound},
		{"ErrProcessNotFound", lockstep.ErrProcessNotFound},
		{"ErrShuttingDown", lockstep.ErrShuttingDown},
		{"ErrUnsupportedScheme", lockstep.ErrUnsupportedScheme},
	}

	for i := range named {
		for j := i + 1; j < len(named); j++ {
			if errors.Is(named[i].err, named[j].err) {
				t.Errorf("%s and %s are equal, want distinct", named[i].name, named[j].name)
			}
		}
	}
}

func TestReclaimErrorUnwraps(t *testing.T) {
	t.Parallel()

	var err error = &lockstep.ReclaimError{Port: 9999, PID: 111, Err: lockstep.ErrProcessNotFound}
	if !errors.Is(err, lockstep.ErrProcessNotFound) {
		t.Errorf("errors.Is(%v, ErrProcessNotFound) = false, want true", err)
	}

	var rerr *lockstep.ReclaimError
	if !errors.As(fmt.Errorf("start: %w", err), &rerr) || rerr.PID != 111 {
		t.Errorf("errors.As did not recover the ReclaimError, got %v", rerr)
	}
}
