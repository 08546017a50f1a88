// Package recording is the boundary to the MEG file format.
//
// The format itself (reading CTF sessions, rewriting measurement headers and
// writing BIDS-compliant FIF files) is owned by an external bridge
// executable. ToolConverter drives that executable the way the rest of the
// code drives command line tools: arguments in, JSON out, non-zero exits
// mapped to service error markers. Header anonymization happens here, in Go,
// on the decoded Info so it can be tested without the bridge.
package recording
