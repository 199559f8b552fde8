// Package observability provides structured logging for the survaize client.
package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a zerolog logger that can be tagged with the job, session or
// operation it logs for. The zero value must not be used; call NewLogger or
// Nop.
type Logger struct {
	zerolog.Logger
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level       string
	Format      string // json or console
	Output      io.Writer
	ServiceName string
}

func NewLogger(cfg LogConfig) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	ctx := zerolog.New(out).Level(parseLevel(cfg.Level)).With().Timestamp()
	if cfg.ServiceName != "" {
		ctx = ctx.Str("service", cfg.ServiceName)
	}
	return &Logger{Logger: ctx.Logger()}
}

// DefaultLogger logs to stderr in console format at info level.
func DefaultLogger() *Logger {
	return NewLogger(LogConfig{Level: "info", Format: "console", ServiceName: "survaize"})
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// OrNop returns l, or a discarding logger when l is nil.
func OrNop(l *Logger) *Logger {
	if l == nil {
		return Nop()
	}
	return l
}

func (l *Logger) tagged(key, value string) *Logger {
	return &Logger{Logger: l.With().Str(key, value).Logger()}
}

// WithOperation tags entries with the client operation (submit, track, save).
func (l *Logger) WithOperation(op string) *Logger { return l.tagged("operation", op) }

func (l *Logger) WithSession(id string) *Logger { return l.tagged("session_id", id) }

// WithJob tags entries with an extraction job id.
func (l *Logger) WithJob(id string) *Logger { return l.tagged("job_id", id) }

// parseLevel accepts zerolog's level names plus "warning" and "off". Unknown
// names fall back to info.
func parseLevel(level string) zerolog.Level {
	switch name := strings.ToLower(strings.TrimSpace(level)); name {
	case "warning":
		return zerolog.WarnLevel
	case "off":
		return zerolog.Disabled
	default:
		lvl, err := zerolog.ParseLevel(name)
		if err != nil || name == "" {
			return zerolog.InfoLevel
		}
		return lvl
	}
}
