// Package pipeline converts resolved subjects one at a time into the BIDS
// output tree and assigns their sequential identifiers.
//
// Subjects are processed in sorted order. A counter starts at 1 and advances
// only when a subject's recording has been written, so the numbers in the
// resulting mapping are contiguous over successes. Per-subject failures that
// services.Recoverable accepts are logged (console and failure log), recorded
// and skipped; anything else stops the run and ConvertAll returns the partial
// mapping built so far alongside the error.
package pipeline
