// Package logging wraps charmbracelet/log behind a small app logger.
// Normal command output goes to stdout via the cmd layer; this logger
// carries diagnostics, which stay quiet unless CAPSTAN_DEBUG is set.
package logging

import (
	"bytes"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

type AppLogger struct {
	logger *log.Logger
	debug  bool
}

var (
	defaultLogger *AppLogger
	once          sync.Once
)

// Default returns the shared logger instance.
func Default() *AppLogger {
	once.Do(func() {
		defaultLogger = NewAppLogger()
	})
	return defaultLogger
}

// Package-level convenience functions for quick logging.
func Info(msg string, keyvals ...interface{})  { Default().Info(msg, keyvals...) }
func Warn(msg string, keyvals ...interface{})  { Default().Warn(msg, keyvals...) }
func Error(msg string, keyvals ...interface{}) { Default().Error(msg, keyvals...) }
func Debug(msg string, keyvals ...interface{}) { Default().Debug(msg, keyvals...) }

// SetVerbose drops the shared logger to debug level, the same state
// CAPSTAN_DEBUG produces. Used by the --verbose flag.
func SetVerbose(v bool) {
	if !v {
		return
	}
	d := Default()
	d.debug = true
	d.logger.SetLevel(log.DebugLevel)
	d.logger.SetReportTimestamp(true)
}

func NewAppLogger() *AppLogger {
	debug := os.Getenv("CAPSTAN_DEBUG") != ""

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: debug,
		TimeFormat:      time.Kitchen,
		Prefix:          "capstan",
	})
	if debug {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.WarnLevel)
	}

	return &AppLogger{
		logger: logger,
		debug:  debug,
	}
}

func (al *AppLogger) Info(msg string, keyvals ...interface{}) {
	al.logger.Info(msg, keyvals...)
}

func (al *AppLogger) Warn(msg string, keyvals ...interface{}) {
	al.logger.Warn(msg, keyvals...)
}

func (al *AppLogger) Error(msg string, keyvals ...interface{}) {
	al.logger.Error(msg, keyvals...)
}

func (al *AppLogger) Debug(msg string, keyvals ...interface{}) {
	if al.debug {
		al.logger.Debug(msg, keyvals...)
	}
}

// NewTestLogger creates a logger that writes to a buffer for testing.
func NewTestLogger() (*AppLogger, *bytes.Buffer) {
	var buf bytes.Buffer

	logger := log.NewWithOptions(&buf, log.Options{
		ReportTimestamp: false,
		Prefix:          "test",
	})
	logger.SetLevel(log.DebugLevel)

	return &AppLogger{
		logger: logger,
		debug:  true,
	}, &buf
}
