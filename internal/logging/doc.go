// Package logging assembles structured slog loggers and formatting helpers used
// across megbids.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with run IDs and subject identifiers. The failure log handler writes
// the plain "LEVEL - message" lines operators grep for after a batch, and the
// tee handler lets one logger feed both the console and that file.
//
// Prefer these constructors over hand-rolled slog setup to ensure new
// components emit data with the same shape and routing guarantees as the rest
// of the system.
package logging
