// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"

	// LevelDisabled silences all output.
	LevelDisabled LogLevel = "disabled"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer

	// Service is attached to every entry when set.
	Service string
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger. The library packages derive
// their component loggers from it, so call Setup before creating a client.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	ctx := zerolog.New(output).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	logger := ctx.Logger()

	// Set as global logger
	log.Logger = logger

	return logger
}

// ParseLevel converts a LogLevel to a zerolog.Level. Unknown or empty values
// fall back to info.
func ParseLevel(level LogLevel) zerolog.Level {
	name := strings.ToLower(strings.TrimSpace(string(level)))
	if name == "warning" {
		name = "warn"
	}

	parsed, err := zerolog.ParseLevel(name)
	if err != nil || parsed == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return parsed
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// The library (pkg/client, pkg/ratelimit, pkg/pagination) only logs at Debug
// and leaves reporting of failures to the caller, which receives every error.
//
// Debug: Detailed information for debugging
//   - Request flow (endpoint, redacted credential, status, duration)
//   - Credential waits (all keys spent, time until the next window)
//   - Quota headers synced from responses
//   - Page walks (pages fetched, items, duration)
//
// Info: Normal operation events (cmd only)
//   - Startup configuration (key count, base URL, shared windows)
//   - Metrics server start/stop
//
// Warn: Warning conditions that don't prevent operation (cmd only)
//   - Metrics server failures
//
// Error: Error conditions requiring attention (cmd only)
//   - Failed commands
//   - Configuration errors
//
// Context Fields:
//   - component: Emitting component (skyblock-client, credential-pool, skyblock-cli)
//   - endpoint: API endpoint path
//   - credential: Redacted API key (first four characters)
//   - status: HTTP status code
//   - class: Error classification (transport, decode, api, rate_limit)
//   - duration: Request or walk duration
//   - wait: Time until the next credential window reset
