package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"


	"megbids/internal/logging"
)

var (
	// ErrSearchRootNotFound reports a search root that does not exist.
	ErrSearchRootNotFound = errors.New("search root not found")
	// ErrSearchRootNotDirectory reports a search root that is not a directory.
	ErrSearchRootNotDirectory = errors.New("search root is not a directory")
)

// SessionDirectory is a directory recognized as one subject's session recording.
type SessionDirectory struct {
	// Path is the full path of the session directory.
	Path string
	// Name is the session directory base name.
	Name string
	// Parent is the directory containing the session.
	Parent string
	// Subject is the base name of Parent, byte for byte as stored on disk.
	Subject string
}

// FindSessionDirectories walks root at any depth and collects every directory
// below it whose name fully matches pattern. Results are in traversal order.
// Matched directories are descended into as well. Subdirectories that cannot be
// read are skipped with a warning; only a missing or non-directory root is an
// error.
func FindSessionDirectories(root string, pattern *regexp.Regexp, logger *slog.Logger) ([]SessionDirectory, error) {
	if pattern == nil {
		return nil, errors.New("find session directories: nil pattern")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	root = filepath.Clean(root)

	info, err := os.Stat(root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", ErrSearchRootNotFound, root)
	case err != nil:
		return nil, fmt.Errorf("stat search root: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("%w: %s", ErrSearchRootNotDirectory, root)
	}

	var found []SessionDirectory
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logging.WarnWithContext(logger, "skipping unreadable directory", "scan_skip",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check directory permissions under the search root"),
				logging.String(logging.FieldImpact, "sessions below this directory are not discovered"),
			)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root || !isDirEntry(path, d) {
			return nil
		}
		if !pattern.MatchString(d.Name()) {
			return nil
		}
		parent := filepath.Dir(path)
		found = append(found, SessionDirectory{
			Path:    path,
			Name:    d.Name(),
			Parent:  parent,
			Subject: filepath.Base(parent),
		})
		logger.Debug("session directory matched", logging.String("path", path))
		return nil
	})
	if walkErr != nil {
		return found, fmt.Errorf("walk search root: %w", walkErr)
	}
	return found, nil
}

// isDirEntry treats symlinks to directories as directories for matching. They
// are not descended into.
func isDirEntry(path string, d fs.DirEntry) bool {
	if d.IsDir() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
