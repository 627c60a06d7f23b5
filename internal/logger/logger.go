// Package logger provides the technical loggers used by the CLI and the
// HTTP server. Lifecycle events go to the audit trail, not here.
package logger

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
)

// EnvHumanLogs switches output to human-readable console lines when "true".
const EnvHumanLogs = "QCERT_HUMAN_LOGS"

// CallerHook adds the caller's file and line to every event.
type CallerHook struct{}

// Run adds additional context
func (h CallerHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	if _, file, line, ok := runtime.Caller(3); ok {
		e.Str("file", fmt.Sprintf("%s:%d", path.Base(file), line))
	}
}

// New creates a logger for component writing to stderr.
func New(component string) zerolog.Logger {
	var out io.Writer = os.Stderr
	if os.Getenv(EnvHumanLogs) == "true" {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	return NewWithWriter(component, out)
}

// NewWithWriter creates a logger for component writing to w.
func NewWithWriter(component string, w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().
		Timestamp().
		Str("component", component).
		Logger().
		Hook(CallerHook{})
}

// SetLogLevel sets the global logging level
func SetLogLevel(verbosity string) error {
	switch strings.ToLower(verbosity) {
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "disabled":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	default:
		allowedLevels := []string{"trace", "debug", "info", "warn", "error", "disabled"}
		return fmt.Errorf("invalid log level %q, expected one of %v", verbosity, allowedLevels)
	}
	return nil
}
