// SPDX-License-Identifier: MPL-2.0

// Package logging provides the release logger. Every release message is
// prefixed with the subject it concerns (a train iteration, a train or a
// module iteration) so interleaved output stays attributable.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/log"
)

const (
	FormatText   Format = "text"
	FormatJSON   Format = "json"
	FormatLogfmt Format = "logfmt"
)

var (
	// ErrInvalidFormat is the sentinel error wrapped by InvalidFormatError.
	ErrInvalidFormat = errors.New("invalid log format")
	// ErrInvalidLevel is returned for unknown log levels.
	ErrInvalidLevel = errors.New("invalid log level")
)

type (
	// Format selects the log line encoding.
	Format string

	// InvalidFormatError is returned when a Format value is unknown.
	InvalidFormatError struct {
		Value Format
	}

	// Options configures New.
	Options struct {
		// Level is one of debug, info, warn, error. Empty means info.
		Level string
		// Format is the line encoding. Empty means text.
		Format Format
		// ReportTimestamp adds a timestamp to every line.
		ReportTimestamp bool
	}

	// Logger is the release logger.
	Logger struct {
		base *log.Logger
	}
)

// Error implements the error interface.
func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid log format %q (valid: %s, %s, %s)", e.Value, FormatText, FormatJSON, FormatLogfmt)
}

// Unwrap returns ErrInvalidFormat for errors.Is() compatibility.
func (e *InvalidFormatError) Unwrap() error { return ErrInvalidFormat }

// Validate returns nil when f is a known format.
func (f Format) Validate() error {
	switch f {
	case FormatText, FormatJSON, FormatLogfmt:
		return nil
	default:
		return &InvalidFormatError{Value: f}
	}
}

func (f Format) formatter() log.Formatter {
	switch f {
	case FormatJSON:
		return log.JSONFormatter
	case FormatLogfmt:
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// New creates a Logger writing to w.
func New(w io.Writer, opts Options) (*Logger, error) {
	if opts.Format == "" {
		opts.Format = FormatText
	}
	if err := opts.Format.Validate(); err != nil {
		return nil, err
	}
	level := log.InfoLevel
	if opts.Level != "" {
		parsed, err := log.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidLevel, opts.Level, err)
		}
		level = parsed
	}

	return &Logger{base: log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       opts.Format.formatter(),
		ReportTimestamp: opts.ReportTimestamp,
	})}, nil
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return &Logger{base: log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})}
}

// Log writes an info message about subject.
func (l *Logger) Log(subject fmt.Stringer, template string, args ...any) {
	l.forSubject(subject).Infof(template, args...)
}

// Warn writes a warning about subject.
func (l *Logger) Warn(subject fmt.Stringer, template string, args ...any) {
	l.forSubject(subject).Warnf(template, args...)
}

// Debug writes a structured debug message.
func (l *Logger) Debug(msg string, keyvals ...any) {
	l.base.Debug(msg, keyvals...)
}

// With returns a Logger that adds keyvals to every line.
func (l *Logger) With(keyvals ...any) *Logger {
	return &Logger{base: l.base.With(keyvals...)}
}

// Slog returns a log/slog view of the logger for library diagnostics.
func (l *Logger) Slog() *slog.Logger {
	return slog.New(l.base)
}

func (l *Logger) forSubject(subject fmt.Stringer) *log.Logger {
	if subject == nil {
		return l.base
	}
	return l.base.WithPrefix(subject.String())
}
