package notify

import (
	"log/slog"
	"time"
)

var _ Notifier = (*Log)(nil)

// Log writes notifications through slog: KindLog at info level, KindError at
// error level.
type Log struct {
	logger *slog.Logger
}

// NewLog returns a Log notifier. A nil logger uses slog.Default().
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

// Notify implements Notifier.
func (l *Log) Notify(n Notification) {
	attrs := []any{"context", n.Context, "timestamp", n.Timestamp.Format(time.RFC3339Nano)}
	if n.Kind == KindError {
		l.logger.Error(n.Detail, attrs...)
		return
	}
	l.logger.Info(n.Detail, attrs...)
}
