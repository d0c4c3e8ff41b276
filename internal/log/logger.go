// Package log provides the process-wide structured logger.
package log

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Verbosity levels
const (
	LevelQuiet = iota // Default: only errors and warnings
	LevelInfo         // -v: ticks, snapshot counts, cache hits
	LevelDebug        // -vv: API calls, command handling
	LevelTrace        // -vvv: full details, progress math
)

// Custom slog levels mapped to our verbosity
const (
	slogLevelTrace = slog.Level(-8) // Below debug
)

var (
	mu          sync.RWMutex
	verbosity   int
	logger      *slog.Logger
	console     slog.Handler
	diagnostics slog.Handler
	diagFile    *lumberjack.Logger
)

// levelFor maps our verbosity to a slog level.
func levelFor(level int) slog.Level {
	switch {
	case level >= LevelTrace:
		return slogLevelTrace
	case level >= LevelDebug:
		return slog.LevelDebug
	case level >= LevelInfo:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

// Initialize sets up the global logger with the specified verbosity level.
// Colors are enabled only when w is a terminal and NO_COLOR is unset.
func Initialize(level int, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	verbosity = level
	console = tint.NewHandler(w, &tint.Options{
		Level:      levelFor(level),
		TimeFormat: time.TimeOnly,
		NoColor:    !colorEnabled(w),
	})
	rebuild()
}

// EnableDiagnostics mirrors all records at debug level or above into a
// rotating log file at path, independent of the console verbosity.
func EnableDiagnostics(path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create diagnostics dir: %w", err)
		}
	}

	mu.Lock()
	defer mu.Unlock()

	if diagFile != nil {
		_ = diagFile.Close()
	}
	diagFile = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     14, // days
	}
	diagnostics = tint.NewHandler(diagFile, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	})
	rebuild()
	return nil
}

// Close flushes and closes the diagnostics file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if diagFile == nil {
		return nil
	}
	err := diagFile.Close()
	diagFile = nil
	diagnostics = nil
	rebuild()
	return err
}

// rebuild recreates the logger from the active handlers. Callers hold mu.
func rebuild() {
	if diagnostics == nil {
		logger = slog.New(console)
		return
	}
	logger = slog.New(&multiHandler{handlers: []slog.Handler{console, diagnostics}})
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Info logs at info level (-v)
func Info(msg string, args ...any) {
	current().Info(msg, args...)
}

// Debug logs at debug level (-vv)
func Debug(msg string, args ...any) {
	current().Debug(msg, args...)
}

// Trace logs at trace level (-vvv)
func Trace(msg string, args ...any) {
	current().Log(context.Background(), slogLevelTrace, msg, args...)
}

// Warn logs at warn level (always visible)
func Warn(msg string, args ...any) {
	current().Warn(msg, args...)
}

// Error logs at error level (always visible)
func Error(msg string, args ...any) {
	current().Error(msg, args...)
}

// IsInfo returns true if info-level logging is enabled on the console
func IsInfo() bool {
	return Verbosity() >= LevelInfo
}

// IsDebug returns true if debug-level logging is enabled on the console
func IsDebug() bool {
	return Verbosity() >= LevelDebug
}

// IsTrace returns true if trace-level logging is enabled on the console
func IsTrace() bool {
	return Verbosity() >= LevelTrace
}

// Verbosity returns the current verbosity level
func Verbosity() int {
	mu.RLock()
	defer mu.RUnlock()
	return verbosity
}

func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// multiHandler fans records out to every handler that accepts the level.
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle passes record to every enabled handler, so a failing console
// write still reaches the diagnostics file.
func (m *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, h := range m.handlers {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

func init() {
	// Default initialization with quiet mode to stderr
	Initialize(LevelQuiet, os.Stderr)
}
