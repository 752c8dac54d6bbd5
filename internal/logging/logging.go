// Package logging carries a structured logger through context.Context.
//
// Operations log a span as three messages sharing a symbol: "Sym:Op/s" when
// they start and "Sym:Op/eok" or "Sym:Op/efail" when they end. See Span.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger is the logging interface used across layers.
type Logger interface {
	Debug(ctx context.Context, msg string, kv ...any)
	Debugf(ctx context.Context, format string, args ...any)
	Info(ctx context.Context, msg string, kv ...any)
	Infof(ctx context.Context, format string, args ...any)
	Warn(ctx context.Context, msg string, kv ...any)
	Warnf(ctx context.Context, format string, args ...any)
	Error(ctx context.Context, msg string, kv ...any)
	Errorf(ctx context.Context, format string, args ...any)
	With(kv ...any) Logger
}

// Format selects the record encoding.
type Format string

const (
	// FormatHuman is key=value text with a short wall clock, for terminals.
	FormatHuman Format = "human"
	FormatText  Format = "text"
	FormatJSON  Format = "json"
)

// ParseFormat accepts human, text, or json (case-insensitive). An empty
// string means human.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatHuman, nil
	case FormatHuman, FormatText, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported log format: %s", s)
	}
}

// ParseLevel converts DEBUG|INFO|WARN|ERROR (case-insensitive) to a slog level.
// An empty string means INFO.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "INFO":
		return slog.LevelInfo, nil
	case "DEBUG":
		return slog.LevelDebug, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unsupported log level: %s", s)
	}
}

// New returns a logger that writes records of at least level to w.
func New(format Format, level slog.Leveler, w io.Writer) Logger {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	switch format {
	case FormatJSON:
		h = slog.NewJSONHandler(w, opts)
	case FormatText:
		h = slog.NewTextHandler(w, opts)
	default:
		opts.ReplaceAttr = shortClock
		h = slog.NewTextHandler(w, opts)
	}
	return &slogLogger{l: slog.New(h)}
}

// Discard returns a logger that drops everything.
func Discard() Logger {
	return &slogLogger{l: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// shortClock renders the top-level time attribute as local HH:MM:SS.
func shortClock(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
		return slog.String(slog.TimeKey, a.Value.Time().Local().Format(time.TimeOnly))
	}
	return a
}

type contextKey struct{}

var fallback = New(FormatHuman, slog.LevelInfo, os.Stderr)

// WithLogger stores l in ctx.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the logger stored in ctx, or a stderr logger at INFO.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(contextKey{}).(Logger); ok && l != nil {
		return l
	}
	return fallback
}

type slogLogger struct{ l *slog.Logger }

func (s *slogLogger) logf(ctx context.Context, level slog.Level, format string, args []any) {
	if s.l.Enabled(ctx, level) {
		s.l.Log(ctx, level, fmt.Sprintf(format, args...))
	}
}

func (s *slogLogger) Debug(ctx context.Context, msg string, kv ...any) {
	s.l.Log(ctx, slog.LevelDebug, msg, kv...)
}
func (s *slogLogger) Debugf(ctx context.Context, format string, args ...any) {
	s.logf(ctx, slog.LevelDebug, format, args)
}
func (s *slogLogger) Info(ctx context.Context, msg string, kv ...any) {
	s.l.Log(ctx, slog.LevelInfo, msg, kv...)
}
func (s *slogLogger) Infof(ctx context.Context, format string, args ...any) {
	s.logf(ctx, slog.LevelInfo, format, args)
}
func (s *slogLogger) Warn(ctx context.Context, msg string, kv ...any) {
	s.l.Log(ctx, slog.LevelWarn, msg, kv...)
}
func (s *slogLogger) Warnf(ctx context.Context, format string, args ...any) {
	s.logf(ctx, slog.LevelWarn, format, args)
}
func (s *slogLogger) Error(ctx context.Context, msg string, kv ...any) {
	s.l.Log(ctx, slog.LevelError, msg, kv...)
}
func (s *slogLogger) Errorf(ctx context.Context, format string, args ...any) {
	s.logf(ctx, slog.LevelError, format, args)
}

func (s *slogLogger) With(kv ...any) Logger { return &slogLogger{l: s.l.With(kv...)} }
