package discovery

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MatchMode selects how session directories are bound to subjects.
type MatchMode string

const (
	// MatchStructural binds each session directory to its own parent subject.
	MatchStructural MatchMode = "structural"
	// MatchSubstring binds a subject to the last session whose name contains
	// the subject identifier.
	MatchSubstring MatchMode = "substring"
)

// ParseMatchMode converts a configuration value into a MatchMode.
func ParseMatchMode(value string) (MatchMode, error) {
	switch mode := MatchMode(strings.ToLower(strings.TrimSpace(value))); mode {
	case "", MatchStructural:
		return MatchStructural, nil
	case MatchSubstring:
		return MatchSubstring, nil
	default:
		return "", fmt.Errorf("unknown subject match mode %q", value)
	}
}

// Resolution is the outcome of binding session directories to subjects.
type Resolution struct {
	// Subjects is sorted and free of duplicates.
	Subjects []string
	// Paths maps a subject to the session directory chosen for it. Subjects
	// without a bound session are absent.
	Paths map[string]string
	// Duplicates lists, per subject, the matched sessions that lost to the
	// bound one.
	Duplicates map[string][]string
}

// Unresolved returns the subjects that have no bound session, in sorted order.
func (r Resolution) Unresolved() []string {
	var out []string
	for _, subject := range r.Subjects {
		if _, ok := r.Paths[subject]; !ok {
			out = append(out, subject)
		}
	}
	return out
}

// ResolveSubjects derives the subject list from the parent directory names of
// dirs and selects one session directory per subject.
func ResolveSubjects(dirs []SessionDirectory, mode MatchMode) (Resolution, error) {
	res := Resolution{
		Paths:      make(map[string]string, len(dirs)),
		Duplicates: make(map[string][]string),
	}

	seen := make(map[string]struct{}, len(dirs))
	for _, dir := range dirs {
		subject := dir.Subject
		if subject == "" {
			return Resolution{}, fmt.Errorf("session %s: empty subject identifier", dir.Path)
		}
		if _, ok := seen[subject]; ok {
			continue
		}
		seen[subject] = struct{}{}
		res.Subjects = append(res.Subjects, subject)
	}
	slices.Sort(res.Subjects)

	switch mode {
	case "", MatchStructural:
		for _, dir := range dirs {
			res.bind(dir.Subject, dir.Path)
		}
	case MatchSubstring:
		for _, subject := range res.Subjects {
			key := foldName(subject)
			for _, dir := range dirs {
				if strings.Contains(foldName(dir.Name), key) {
					res.bind(subject, dir.Path)
				}
			}
		}
	default:
		return Resolution{}, fmt.Errorf("unknown subject match mode %q", mode)
	}
	return res, nil
}

// bind records path for subject. A later binding replaces an earlier one and
// demotes it to Duplicates.
func (r *Resolution) bind(subject, path string) {
	if previous, ok := r.Paths[subject]; ok && previous != path {
		r.Duplicates[subject] = append(r.Duplicates[subject], previous)
	}
	r.Paths[subject] = path
}

// foldName brings a name into NFC for comparison only. Identifiers and paths
// keep their on-disk bytes so files next to the session can still be opened.
func foldName(name string) string {
	return norm.NFC.String(name)
}
