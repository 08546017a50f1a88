package testsupport

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"megbids/internal/bids"
	"megbids/internal/recording"
)

// FakeConverter implements recording.Converter without the bridge. Written
// recordings contain their source path. Failures are keyed by the subject
// folder name (the parent of the session directory).
type FakeConverter struct {
	FailLoad  map[string]error
	FailWrite map[string]error
	// PartialWrite makes failing writes leave a directory behind first.
	PartialWrite bool

	mu     sync.Mutex
	Loads  []string
	Writes []bids.Path
}

// NewFakeConverter returns a FakeConverter with no configured failures.
func NewFakeConverter() *FakeConverter {
	return &FakeConverter{FailLoad: map[string]error{}, FailWrite: map[string]error{}}
}

func (f *FakeConverter) Load(ctx context.Context, path string) (*recording.Recording, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.Loads = append(f.Loads, path)
	f.mu.Unlock()
	if err := f.FailLoad[subjectOf(path)]; err != nil {
		return nil, err
	}
	return &recording.Recording{Source: path, Info: recording.Info{Experimenter: "someone"}}, nil
}

func (f *FakeConverter) Anonymize(rec *recording.Recording) error {
	if err := recording.AnonymizeInfo(&rec.Info); err != nil {
		return err
	}
	rec.Anonymized = true
	return nil
}

func (f *FakeConverter) Write(ctx context.Context, rec *recording.Recording, dest bids.Path) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !rec.Anonymized {
		return errors.New("not anonymized")
	}
	if err := f.FailWrite[subjectOf(rec.Source)]; err != nil {
		if f.PartialWrite {
			_ = os.MkdirAll(dest.DatatypeDirectory(), 0o755)
		}
		return err
	}
	if err := os.MkdirAll(dest.DatatypeDirectory(), 0o755); err != nil {
		return err
	}
	dest.Extension = ".fif"
	f.mu.Lock()
	f.Writes = append(f.Writes, dest)
	f.mu.Unlock()
	return os.WriteFile(dest.FilePath(), []byte(rec.Source), 0o644)
}

// LoadCount returns how many recordings were loaded.
func (f *FakeConverter) LoadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Loads)
}

func subjectOf(sessionPath string) string {
	return filepath.Base(filepath.Dir(sessionPath))
}
