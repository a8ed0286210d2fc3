package testutil

import (
	"strings"
	"sync"

	"github.com/giantswarm/lockstep/internal/notify"
)

var _ notify.Notifier = (*Recorder)(nil)

// Recorder is a Notifier that keeps every notification it receives.
// It is safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	items []notify.Notification
}

// Notify implements notify.Notifier.
func (r *Recorder) Notify(n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// All returns a copy of the recorded notifications in arrival order.
func (r *Recorder) All() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Notification, len(r.items))
	copy(out, r.items)
	return out
}

// OfKind returns the recorded notifications of the given kind.
func (r *Recorder) OfKind(kind notify.Kind) []notify.Notification {
	var out []notify.Notification
	for _, n := range r.All() {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// Has reports whether a notification of kind with the context was recorded
// whose detail contains substr.
func (r *Recorder) Has(kind notify.Kind, context, substr string) bool {
	for _, n := range r.OfKind(kind) {
		if n.Context == context && strings.Contains(n.Detail, substr) {
			return true
		}
	}
	return false
}
