package logging

import (
	"context"
	"log/slog"
)

// teeHandler forwards each record to every member that accepts its level.
// The run uses it to feed the console and the failure log from one logger.
type teeHandler struct {
	members []slog.Handler
}

func newTeeHandler(handlers ...slog.Handler) slog.Handler {
	var members []slog.Handler
	for _, h := range handlers {
		if h != nil {
			members = append(members, h)
		}
	}
	switch len(members) {
	case 0:
		return NoopHandler{}
	case 1:
		return members[0]
	default:
		return &teeHandler{members: members}
	}
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, m := range h.members {
		if m.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	last := len(h.members) - 1
	for i, m := range h.members {
		if !m.Enabled(ctx, record.Level) {
			continue
		}
		// Members may retain the record, so all but the last get a clone.
		rec := record
		if i < last {
			rec = record.Clone()
		}
		if err := m.Handle(ctx, rec); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.derive(func(m slog.Handler) slog.Handler { return m.WithAttrs(attrs) })
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return h.derive(func(m slog.Handler) slog.Handler { return m.WithGroup(name) })
}

func (h *teeHandler) derive(fn func(slog.Handler) slog.Handler) slog.Handler {
	next := make([]slog.Handler, len(h.members))
	for i, m := range h.members {
		next[i] = fn(m)
	}
	return &teeHandler{members: next}
}

// TeeLogger returns a logger writing to base's handler and to extra.
// Nil handlers are ignored.
func TeeLogger(base *slog.Logger, extra ...slog.Handler) *slog.Logger {
	handlers := extra
	if base != nil {
		handlers = append([]slog.Handler{base.Handler()}, extra...)
	}
	return slog.New(newTeeHandler(handlers...))
}
