package wgpu

import (
	"context"
	"log/slog"
)

// SetLogger sets the logger used by the allocator. framegraph.New
// calls it during construction to propagate its package logger, and
// applications may call it directly. A nil logger disables logging.
//
// SetLogger is safe for concurrent use.
func (a *Allocator) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(nopHandler{})
	}
	a.logger.Store(logger)
}

func (a *Allocator) slogger() *slog.Logger { return a.logger.Load() }

// nopHandler is a slog.Handler that silently discards all log records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }
