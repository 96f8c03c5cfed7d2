// Package logger provides process-wide logging for essync.
// Messages go through a logrus logger writing to stderr. Debug and Section
// output only appears when verbose mode is enabled via the --verbose flag.
package logger

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Fields are structured key/value pairs attached to a log line.
type Fields = logrus.Fields

var (
	mu      sync.RWMutex
	verbose bool
	log     = newLogger(os.Stderr)
)

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:    true,
		DisableTimestamp: true,
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	if v {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// SetJSON switches to JSON formatted output.
func SetJSON(enabled bool) {
	if enabled {
		log.SetFormatter(&logrus.JSONFormatter{DisableTimestamp: true})
		return
	}
	log.SetFormatter(&logrus.TextFormatter{DisableColors: true, DisableTimestamp: true})
}

// Debug logs a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	log.Debugf(format, args...)
}

// Section logs a section header if verbose mode is enabled.
func Section(name string) {
	log.WithField("section", name).Debug("=== " + name + " ===")
}

// Info logs an informational message.
func Info(format string, args ...any) {
	log.Infof(format, args...)
}

// Warn logs a warning message.
func Warn(format string, args ...any) {
	log.Warnf(format, args...)
}

// Error logs an error message.
func Error(format string, args ...any) {
	log.Errorf(format, args...)
}

// WithFields returns an entry carrying structured fields, e.g.
// logger.WithFields(logger.Fields{"collection": c}).Info("rebuilt").
func WithFields(fields Fields) *logrus.Entry {
	return log.WithFields(fields)
}
