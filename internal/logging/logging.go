// Package logging configures the process-wide structured logger.
//
// Components log through github.com/phuslu/log's package-level functions
// (log.Info(), log.Warn(), ...), which write to log.DefaultLogger. Setup
// replaces that logger once at startup. Stdout is reserved for command
// output and the MCP protocol, so logs always go to stderr or a file.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/phuslu/log"
)

// Setup installs the default logger. An empty file logs to stderr.
func Setup(level, file string) {
	var w log.Writer
	if file != "" {
		w = &log.FileWriter{
			Filename:     file,
			EnsureFolder: true,
		}
	} else {
		w = &log.ConsoleWriter{
			Writer:         os.Stderr,
			ColorOutput:    log.IsTerminal(os.Stderr.Fd()),
			EndWithMessage: true,
		}
	}
	log.DefaultLogger = log.Logger{
		Level:      ParseLevel(level),
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Writer:     w,
	}
}

// SetOutput routes JSON log lines to w. Used by tests to capture events.
func SetOutput(w io.Writer, level string) {
	log.DefaultLogger = log.Logger{
		Level:  ParseLevel(level),
		Writer: &log.IOWriter{Writer: w},
	}
}

// ParseLevel maps a config level name to a log level, defaulting to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return log.TraceLevel
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
