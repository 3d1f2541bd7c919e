// Package log provides the small structured-logging seam used by every
// long-lived component in ghpilotd. Components take a Logger at
// construction rather than calling a global logger directly.
package log

import (
	"log"
	"os"
)

// Logger is the minimal logging surface components depend on.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// StdLogger is a Logger backed by the standard library's log.Logger.
// Debug lines are suppressed unless Verbose is true.
type StdLogger struct {
	inner   *log.Logger
	Verbose bool
}

// NewStdLogger returns a StdLogger writing to stderr with a "ghpilotd: " prefix.
func NewStdLogger(verbose bool) *StdLogger {
	return &StdLogger{
		inner:   log.New(os.Stderr, "ghpilotd: ", log.LstdFlags|log.Lmicroseconds),
		Verbose: verbose,
	}
}

func (l *StdLogger) Debugf(format string, args ...any) {
	if !l.Verbose {
		return
	}
	l.inner.Printf("DEBUG "+format, args...)
}

func (l *StdLogger) Infof(format string, args ...any) {
	l.inner.Printf("INFO "+format, args...)
}

func (l *StdLogger) Warnf(format string, args ...any) {
	l.inner.Printf("WARN "+format, args...)
}

func (l *StdLogger) Errorf(format string, args ...any) {
	l.inner.Printf("ERROR "+format, args...)
}

// Nop is a Logger that discards everything. Useful in tests.
type Nop struct{}

func (Nop) Debugf(string, ...any) {}
func (Nop) Infof(string, ...any)  {}
func (Nop) Warnf(string, ...any)  {}
func (Nop) Errorf(string, ...any) {}
