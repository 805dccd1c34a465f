// ABOUTME: Structured logger implementation backed by sirupsen/logrus
// ABOUTME: Supports JSON or text output and size-based file rotation through lumberjack

package logrus

import (
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the logger
type Options struct {
	Level  string // debug, info, warn, error
	Format string // json or text
	// File enables rotation into the given path in addition to stdout
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Logger implements the Logger interface using logrus
type Logger struct {
	entry  *log.Entry
	closer io.Closer
}

// New creates a logger from options
func New(opts Options) (*Logger, error) {
	var out io.Writer = os.Stdout
	var closer io.Closer

	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 100), // megabytes
			MaxBackups: orDefault(opts.MaxBackups, 3),
			MaxAge:     orDefault(opts.MaxAgeDays, 28), // days
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotator)
		closer = rotator
	}

	l, err := NewWithOutput(out, opts.Level, opts.Format)
	if err != nil {
		return nil, err
	}
	l.closer = closer
	return l, nil
}

// NewWithOutput creates a logger writing to w
func NewWithOutput(w io.Writer, level, format string) (*Logger, error) {
	base := log.New()
	base.SetOutput(w)

	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	base.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "", "json":
		base.SetFormatter(&log.JSONFormatter{})
	case "text":
		base.SetFormatter(&log.TextFormatter{FullTimestamp: true, DisableColors: true})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	return &Logger{entry: log.NewEntry(base)}, nil
}

func parseLevel(level string) (log.Level, error) {
	if level == "" {
		return log.InfoLevel, nil
	}
	return log.ParseLevel(level)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// With returns a logger that adds fields to every entry
func (l *Logger) With(fields map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithFields(fields), closer: l.closer}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	l.entry.WithFields(fields).Debug(msg)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.entry.WithFields(fields).Info(msg)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	l.entry.WithFields(fields).Warn(msg)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields map[string]interface{}) {
	l.entry.WithFields(fields).Error(msg)
}

// Close flushes and closes the rotating file, if any
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
