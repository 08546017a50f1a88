// Package main hosts the megbids CLI.
//
// The Cobra command tree loads configuration once, applies flag overrides and
// hands the work to internal/runner for conversion runs. The read-only
// commands (scan, mapping, history, status) reuse the same internal packages
// so what they report matches what a run would do.
package main
