package notify

import (
	"fmt"
	"time"
)

// Kind distinguishes informational reports from error reports.
type Kind string

const (
	KindLog   Kind = "log"
	KindError Kind = "error"
)

// Context values used by the supervisor. They name the operation a
// notification is about and are stable for consumers to match on.
const (
	ContextPortKilling    = "port-killing"
	ContextTransportClose = "transport-close"
	ContextDBConfig       = "db-config"
	ContextDBConnection   = "db-connection"
	ContextSupervisor     = "supervisor"
)

// Notification is one report to the parent process.
type Notification struct {
	Kind      Kind
	Context   string
	Detail    string
	Timestamp time.Time
	// Err is the reported error for KindError notifications. It is not
	// serialized; Detail already holds its message.
	Err error
}

// Notifier delivers notifications. Implementations must not block and must
// be safe for concurrent use.
type Notifier interface {
	Notify(n Notification)
}

// Func adapts a function to the Notifier interface.
type Func func(n Notification)

// Notify implements Notifier.
func (f Func) Notify(n Notification) { f(n) }

// Discard drops every notification.
var Discard Notifier = Func(func(Notification) {})

// Reporter stamps and sends notifications. The zero value discards.
type Reporter struct {
	n   Notifier
	now func() time.Time
}

// NewReporter returns a Reporter sending to n. A nil n discards.
func NewReporter(n Notifier) *Reporter {
	if n == nil {
		n = Discard
	}
	return &Reporter{n: n, now: time.Now}
}

// Logf sends a KindLog notification.
func (r *Reporter) Logf(context, format string, args ...any) {
	r.send(Notification{Kind: KindLog, Context: context, Detail: fmt.Sprintf(format, args...)})
}

// Error sends a KindError notification for err. A nil err is ignored.
func (r *Reporter) Error(context string, err error) {
	if err == nil {
		return
	}
	r.send(Notification{Kind: KindError, Context: context, Detail: err.Error(), Err: err})
}

func (r *Reporter) send(n Notification) {
	if r == nil || r.n == nil {
		return
	}
	now := time.Now
	if r.now != nil {
		now = r.now
	}
	n.Timestamp = now().UTC()
	r.n.Notify(n)
}
