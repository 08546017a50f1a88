// Package mapping holds the original-subject to sequential-number table and
// its CSV form.
package mapping

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Header is the first row of every exported mapping file.
var Header = []string{"Subject", "Number"}

// Entry pairs an original subject identifier with its assigned number.
type Entry struct {
	Subject string
	Number  int
}

// SequenceMap is an insertion-ordered subject -> number table.
type SequenceMap struct {
	order  []string
	values map[string]int
}

// New returns an empty SequenceMap.
func New() *SequenceMap {
	return &SequenceMap{values: make(map[string]int)}
}

// Set assigns number to subject. Reassigning keeps the original position.
func (m *SequenceMap) Set(subject string, number int) {
	if m.values == nil {
		m.values = make(map[string]int)
	}
	if _, ok := m.values[subject]; !ok {
		m.order = append(m.order, subject)
	}
	m.values[subject] = number
}

// Get returns the number assigned to subject.
func (m *SequenceMap) Get(subject string) (int, bool) {
	if m == nil {
		return 0, false
	}
	n, ok := m.values[subject]
	return n, ok
}

// Len returns the number of entries.
func (m *SequenceMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// Entries returns a copy of the table in insertion order.
func (m *SequenceMap) Entries() []Entry {
	if m == nil {
		return nil
	}
	out := make([]Entry, 0, len(m.order))
	for _, subject := range m.order {
		out = append(out, Entry{Subject: subject, Number: m.values[subject]})
	}
	return out
}

// Export writes m to path as UTF-8 CSV with the Subject,Number header,
// replacing any existing file. A nil or empty map yields a header-only file.
// The file is written to a temporary sibling and renamed into place.
func Export(m *SequenceMap, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("export mapping: empty path")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("export mapping: create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("export mapping: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if err := Write(tmp, m); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("export mapping: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("export mapping: close: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("export mapping: chmod: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("export mapping: rename: %w", err)
	}
	return nil
}

// Write encodes m as CSV to w.
func Write(w io.Writer, m *SequenceMap) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, entry := range m.Entries() {
		if err := cw.Write([]string{entry.Subject, strconv.Itoa(entry.Number)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read parses a mapping file produced by Export.
func Read(path string) (*SequenceMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("read mapping %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes CSV mapping rows from r. The header row is required.
func Parse(r io.Reader) (*SequenceMap, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("missing header")
	}
	if err != nil {
		return nil, err
	}
	if strings.TrimPrefix(header[0], "\ufeff") != Header[0] || header[1] != Header[1] {
		return nil, fmt.Errorf("unexpected header %q", header)
	}

	m := New()
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		number, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, fmt.Errorf("subject %q: invalid number %q", row[0], row[1])
		}
		if _, dup := m.Get(row[0]); dup {
			return nil, fmt.Errorf("subject %q listed twice", row[0])
		}
		m.Set(row[0], number)
	}
	return m, nil
}
