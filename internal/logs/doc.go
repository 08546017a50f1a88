// Package logs reads the failure log written during runs.
//
// Reading is bounded in memory: Last keeps a ring of the final lines and
// Follow polls from a byte offset, restarting from the top when the file is
// truncated or replaced. ParseFailure splits a line back into the subject and
// the error it caused.
package logs
