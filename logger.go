package framegraph

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for framegraph and its sub-packages.
// By default, framegraph produces no log output. Pass nil to restore
// the silent default.
//
// SetLogger is safe for concurrent use: it stores the new logger
// atomically. Allocators keep the logger they were handed when the
// frame graph was constructed; see New for propagation.
//
// Log levels used by framegraph:
//   - [slog.LevelDebug]: per-frame diagnostics (pass culling, resolve
//     results, resource materialization)
//   - [slog.LevelInfo]: lifecycle events
//   - [slog.LevelWarn]: non-fatal issues (leaked handles at teardown)
//
// Example:
//
//	framegraph.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger used by framegraph. Sub-packages
// (backend/wgpu) share the configuration through the loggerSetter
// interface instead of importing this package, avoiding import cycles.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by allocators that accept a logger.
// New propagates the current logger to the allocator through it.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}
