package configuration

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/natefinch/lumberjack"
)

// LogOptions configures the run logger.
type LogOptions struct {
	Level slog.Level
	// JSON writes JSON records instead of text.
	JSON bool
	// File, when set, receives every record through a rotating log file.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Quiet drops console output. Records still reach File.
	Quiet bool
	// Output is the console, os.Stderr when nil.
	Output io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewLogger builds the run logger. The returned closer releases the log
// file and must be closed at the end of the run.
func NewLogger(opts LogOptions) (*slog.Logger, io.Closer) {
	var writers []io.Writer
	if !opts.Quiet {
		out := opts.Output
		if out == nil {
			out = os.Stderr
		}
		writers = append(writers, out)
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    valueOr(opts.MaxSizeMB, 10),
			MaxBackups: valueOr(opts.MaxBackups, 3),
			MaxAge:     valueOr(opts.MaxAgeDays, 28),
		}
		writers = append(writers, file)
		closer = file
	}

	if len(writers) == 0 {
		return slog.New(slog.DiscardHandler), closer
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.Level}
	w := io.MultiWriter(writers...)
	if opts.JSON {
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), closer
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts)), closer
}

// ParseLevel reads "debug", "info", "warn" or "error". Anything else is
// info.
func ParseLevel(text string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(text))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func valueOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
