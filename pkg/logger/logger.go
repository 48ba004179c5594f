// Package logger defines the logging surface used by the rest of the
// module and adapters for log/slog and zerolog.
package logger

import (
	"log/slog"
)

// Logger accepts a message followed by alternating key/value pairs,
// matching the log/slog calling convention.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogHandler adapts a slog.Handler to the Logger interface.
type SlogHandler struct {
	logger *slog.Logger
}

// New wraps a slog.Handler in a Logger.
func New(h slog.Handler) *SlogHandler {
	return &SlogHandler{logger: slog.New(h)}
}

// With returns a Logger carrying args on every record, the usual way
// to tag output with the database it belongs to.
func (h *SlogHandler) With(args ...any) *SlogHandler {
	return &SlogHandler{logger: h.logger.With(args...)}
}

func (h *SlogHandler) Error(msg string, args ...any) {
	h.logger.Error(msg, args...)
}

func (h *SlogHandler) Warn(msg string, args ...any) {
	h.logger.Warn(msg, args...)
}

func (h *SlogHandler) Info(msg string, args ...any) {
	h.logger.Info(msg, args...)
}

func (h *SlogHandler) Debug(msg string, args ...any) {
	h.logger.Debug(msg, args...)
}
