package services

import "context"

type contextKey string

const (
	runIDKey   contextKey = "run_id"
	subjectKey contextKey = "subject"
)

// WithRunID annotates context with the run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithSubject annotates context with the original subject identifier being processed.
func WithSubject(ctx context.Context, subject string) context.Context {
	if subject == "" {
		return ctx
	}
	return context.WithValue(ctx, subjectKey, subject)
}

// SubjectFromContext returns the subject identifier if present.
func SubjectFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(subjectKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
