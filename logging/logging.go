package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const AppDirName = "modman-agent"

// Options controls where the agent logs and how much.
type Options struct {
	// Verbosity 0 is warnings only, 1 info, 2 debug with callers, 3 and up trace.
	Verbosity int
	// File is the log file. Empty means LogFilePath, "-" disables file logging.
	File string
	// Console receives human readable output. Nil means stderr.
	Console io.Writer
}

func levelFor(verbosity int) zerolog.Level {
	switch {
	case verbosity <= 0:
		return zerolog.WarnLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	case verbosity == 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// SetupLogger installs the global logger described by opts and returns a func that
// closes the log file. A log file that cannot be opened is reported and skipped.
func SetupLogger(opts Options) func() {
	zerolog.SetGlobalLevel(levelFor(opts.Verbosity))

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	writers := []io.Writer{zerolog.ConsoleWriter{Out: console, TimeFormat: time.Kitchen}}

	path := opts.File
	if path == "" {
		path = LogFilePath()
	}
	var fh *os.File
	var openErr error
	if path != "-" {
		if fh, openErr = openLogFile(path); openErr == nil {
			writers = append(writers, fh)
		}
	}

	ctx := zerolog.New(io.MultiWriter(writers...)).With().Timestamp()
	if opts.Verbosity >= 2 {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger()

	if openErr != nil {
		log.Warn().Err(openErr).Str("path", path).Msg("Logging to console only")
	}
	return func() {
		if fh != nil {
			_ = fh.Close()
		}
	}
}

// GetLogger returns the global logger tagged with a component name.
func GetLogger(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

func LogFilePath() string {
	return filepath.Join(xdg.StateHome, AppDirName, "agent.log")
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// LogOperationStart logs the start of an operation and returns a func that logs its duration.
func LogOperationStart(logger zerolog.Logger, operation string) func() {
	start := time.Now()
	logger.Debug().Str("operation", operation).Msg("Operation started")

	return func() {
		logger.Debug().
			Str("operation", operation).
			Dur("duration", time.Since(start)).
			Msg("Operation completed")
	}
}
