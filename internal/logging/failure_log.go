package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// FailureLog is the append-only text log that receives one line per subject
// whose conversion failed. Lines carry only level and message.
type FailureLog struct {
	file    *os.File
	handler slog.Handler
}

// OpenFailureLog opens (creating if needed) the failure log at path in append mode.
func OpenFailureLog(path string) (*FailureLog, error) {
	file, err := openAppend(path)
	if err != nil {
		return nil, err
	}
	return &FailureLog{file: file, handler: NewFailureHandler(file)}, nil
}

// Handler returns the slog handler writing into the failure log.
func (f *FailureLog) Handler() slog.Handler {
	if f == nil {
		return nil
	}
	return f.handler
}

// Close releases the underlying file.
func (f *FailureLog) Close() error {
	if f == nil || f.file == nil {
		return nil
	}
	return f.file.Close()
}

// NewFailureHandler returns a handler that only accepts records tagged with
// event_type=subject_failed and renders them as "LEVEL - message". Combine it
// with the console handler through TeeLogger.
func NewFailureHandler(w io.Writer) slog.Handler {
	return &failureHandler{mu: &sync.Mutex{}, writer: w}
}

type failureHandler struct {
	mu      *sync.Mutex
	writer  io.Writer
	matched bool
}

func (h *failureHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (h *failureHandler) Handle(_ context.Context, record slog.Record) error {
	matched := h.matched
	if !matched {
		record.Attrs(func(attr slog.Attr) bool {
			if isFailureEvent(attr) {
				matched = true
				return false
			}
			return true
		})
	}
	if !matched {
		return nil
	}

	var b strings.Builder
	b.WriteString(levelLabel(record.Level))
	b.WriteString(" - ")
	b.WriteString(strings.ReplaceAll(strings.TrimSpace(record.Message), "\n", " "))
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.writer, b.String())
	return err
}

func (h *failureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	matched := h.matched
	for _, attr := range attrs {
		if isFailureEvent(attr) {
			matched = true
		}
	}
	return &failureHandler{mu: h.mu, writer: h.writer, matched: matched}
}

func (h *failureHandler) WithGroup(string) slog.Handler {
	return &failureHandler{mu: h.mu, writer: h.writer, matched: h.matched}
}

func isFailureEvent(attr slog.Attr) bool {
	return attr.Key == FieldEventType && attr.Value.Resolve().String() == EventSubjectFailed
}
