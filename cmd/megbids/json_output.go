package main

import (
	"encoding/json"
	"io"
)

// writeJSON prints v indented. Paths and subject names are written as-is,
// without HTML escaping of characters such as '&'.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
