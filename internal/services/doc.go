// Package services defines shared utilities consumed by the pipeline and the
// external format bridge.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs and subject identifiers for logging.
//   - Structured error markers plus the Wrap helper, and Recoverable, which
//     decides whether a per-subject failure skips the subject or aborts the run.
//
// Use these helpers when wiring new pipeline steps so error handling and
// observability stay uniform.
package services
