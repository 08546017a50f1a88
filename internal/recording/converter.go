package recording

import (
	"context"

	"megbids/internal/bids"
)

// Recording is an opened session: where it came from and its header.
type Recording struct {
	Source     string
	Info       Info
	Anonymized bool
}

// Converter loads, anonymizes and writes recordings. Errors marked with
// services.ErrConversion concern only the recording at hand; any other error
// should stop the run.
type Converter interface {
	Load(ctx context.Context, path string) (*Recording, error)
	Anonymize(rec *Recording) error
	Write(ctx context.Context, rec *Recording, dest bids.Path) error
}
