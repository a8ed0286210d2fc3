package sentinel

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  Error
		want string
	}{
		"missing uri":  {err: Error("database uri is not set"), want: "database uri is not set"},
		"empty":        {err: Error(""), want: ""},
		"port message": {err: Error("port still bound"), want: "port still bound"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if got := tc.err.Error(); got != tc.want {
				t.Errorf("Error() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestError_ErrorsIs(t *testing.T) {
	t.Parallel()

	const notFound = Error("process not found")

	tests := map[string]struct {
		err    error
		target error
		want   bool
	}{
		"direct":             {err: notFound, target: notFound, want: true},
		"wrapped":            {err: fmt.Errorf("probe pid 42: %w", notFound), target: notFound, want: true},
		"joined":             {err: errors.Join(errors.New("other"), notFound), target: notFound, want: true},
		"different sentinel": {err: notFound, target: Error("port still bound"), want: false},
		"same text std error": {
			err:    notFound,
			target: errors.New("process not found"),
			want:   false,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if got := errors.Is(tc.err, tc.target); got != tc.want {
				t.Errorf("errors.Is() = %v, want %v", got, tc.want)
			}
		})
	}
}
