// Package discovery locates session recordings on disk and binds them to
// subjects.
//
// FindSessionDirectories walks a search root and returns every directory whose
// name fully matches the configured session pattern, in traversal order.
// ResolveSubjects turns those directories into a sorted, deduplicated subject
// list plus a subject -> recording path map. Subject identifiers are the raw
// name of each session's parent directory; substring matching compares names
// in NFC so a composed and a decomposed spelling still match.
package discovery
