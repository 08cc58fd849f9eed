package divecomputer

import "log"

// Logger receives diagnostic messages from a driver and the layers beneath
// it. Wrap the standard library's logger with NewStdLogger(log.Default())
// to get one; a nil Logger is valid anywhere one is accepted and silently
// discards messages.
type Logger interface {
	Logf(format string, args ...any)
}

// stdLogger adapts *log.Logger to Logger.
type stdLogger struct {
	l *log.Logger
}

// NewStdLogger wraps l as a Logger. Passing the standard library's default
// logger (log.Default()) is the usual choice for a caller that just wants
// diagnostics on stderr.
func NewStdLogger(l *log.Logger) Logger {
	return stdLogger{l: l}
}

func (s stdLogger) Logf(format string, args ...any) {
	s.l.Printf(format, args...)
}
