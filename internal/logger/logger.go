// Package logger builds the structured logger from the log section of the
// configuration: slog text or JSON records, written to an optional rotating
// file and an optional console writer.
package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mcdonaldj/gunzip/internal/config"
)

// Logger wraps *slog.Logger and owns the writers it must close.
type Logger struct {
	*slog.Logger
	writers []io.WriteCloser
}

// New creates a logger. console may be nil; with no file and no console the
// logger discards everything.
func New(cfg config.LogConfig, console io.Writer) (*Logger, error) {
	var writers []io.Writer
	var closeable []io.WriteCloser

	if cfg.File != "" {
		fileWriter, err := createFileWriter(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create file writer: %w", err)
		}
		writers = append(writers, fileWriter)
		closeable = append(closeable, fileWriter)
	}
	if console != nil {
		writers = append(writers, console)
	}

	if len(writers) == 0 {
		return &Logger{Logger: slog.New(slog.DiscardHandler)}, nil
	}

	out := io.MultiWriter(writers...)
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	default:
		handler = slog.NewTextHandler(out, opts)
	}

	return &Logger{
		Logger:  slog.New(handler),
		writers: closeable,
	}, nil
}

// createFileWriter returns a lumberjack writer, creating the log directory.
func createFileWriter(cfg config.LogConfig) (io.WriteCloser, error) {
	path, err := config.ExpandPath(cfg.File)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxAge:     cfg.MaxAgeDays,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	}, nil
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// Shutdown closes the file writers.
func (l *Logger) Shutdown() error {
	var errs []error
	for _, w := range l.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	l.writers = nil
	return errors.Join(errs...)
}
