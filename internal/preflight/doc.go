// Package preflight provides readiness checks for the filesystem paths and
// external executables a conversion run depends on.
//
// These checks run in two contexts:
//   - The runner calls RunAll once subjects have been resolved and refuses to
//     start converting when a required check fails.
//   - The CLI "megbids status" command prints every result.
package preflight
