package tui

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

// StatusLogHandler is a slog.Handler that surfaces warn/error records
// in the TUI status bar instead of writing to stderr, which would
// corrupt the alt-screen display. Records below the configured level
// are dropped. Typically layered next to a file handler that keeps
// the full record stream.
//
// Handlers derived via WithAttrs/WithGroup share the program pointer,
// so one SetProgram call covers all of them.
type StatusLogHandler struct {
	level   slog.Level
	program *atomic.Pointer[tea.Program]
	attrs   []slog.Attr
}

// NewStatusLogHandler creates a handler delivering records at or
// above level to the program set via SetProgram.
func NewStatusLogHandler(level slog.Level) *StatusLogHandler {
	return &StatusLogHandler{
		level:   level,
		program: &atomic.Pointer[tea.Program]{},
	}
}

// SetProgram connects the handler to the running program.
func (h *StatusLogHandler) SetProgram(program *tea.Program) {
	h.program.Store(program)
}

// Enabled reports whether records at level are delivered.
func (h *StatusLogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle formats the record as a one-line status message.
func (h *StatusLogHandler) Handle(_ context.Context, record slog.Record) error {
	program := h.program.Load()
	if program == nil {
		return nil
	}

	summary := record.Message
	record.Attrs(func(attr slog.Attr) bool {
		if attr.Key == "error" {
			summary = fmt.Sprintf("%s: %v", record.Message, attr.Value)
			return false
		}
		return true
	})

	program.Send(toastMsg{kind: toastError, message: summary})
	return nil
}

// WithAttrs returns a derived handler carrying the extra attributes.
func (h *StatusLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

// WithGroup returns the handler unchanged; group structure is not
// meaningful for one-line status messages.
func (h *StatusLogHandler) WithGroup(string) slog.Handler {
	return h
}
