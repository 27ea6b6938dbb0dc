// Package logger is a thin wrapper around log/slog shared by the server and the client packages.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(slog.Default())
}

// ParseLevel maps a config string to a slog level. Unknown input falls back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init installs a text logger writing to stdout.
func Init(level slog.Level) {
	InitWithFormat(level, FormatText)
}

// InitWithFormat installs a logger writing to stdout in the given format ("text" or "json").
func InitWithFormat(level slog.Level, format string) {
	InitWriter(os.Stdout, level, format)
}

// InitWriter installs a logger writing to w. It also becomes the slog default.
func InitWriter(w io.Writer, level slog.Level, format string) {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), FormatJSON) {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	l := slog.New(handler)
	current.Store(l)
	slog.SetDefault(l)
}

// L returns the active logger.
func L() *slog.Logger {
	return current.Load()
}

// With returns a child logger carrying the given attributes.
func With(args ...any) *slog.Logger {
	return L().With(args...)
}

func Debug(msg string, args ...any) { L().Debug(msg, args...) }
func Info(msg string, args ...any)  { L().Info(msg, args...) }
func Warn(msg string, args ...any)  { L().Warn(msg, args...) }
func Error(msg string, args ...any) { L().Error(msg, args...) }
