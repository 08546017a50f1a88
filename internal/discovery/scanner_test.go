package discovery_test

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"megbids/internal/config"
	"megbids/internal/discovery"
	"megbids/internal/testsupport"
)

func mustPattern(t *testing.T, expr string) *regexp.Regexp {
	t.Helper()
	re, err := config.CompileNamePattern(expr)
	if err != nil {
		t.Fatalf("compile pattern: %v", err)
	}
	return re
}

func TestFindSessionDirectoriesMatchesAtAnyDepth(t *testing.T) {
	root := t.TempDir()
	testsupport.AddSession(t, root, "s01")
	testsupport.AddSession(t, filepath.Join(root, "site", "2023"), "s02")
	// Near misses that must not be collected.
	for _, name := range []string{
		"s03_example-REST_20230101_02.ds",
		"s03_example-REST_20230101_01.ds.bak",
		"s03_example-TASK_20230101_01.ds",
	} {
		if err := os.MkdirAll(filepath.Join(root, "s03", name), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	// A file with a matching name is not a session directory.
	testsupport.WriteText(t, filepath.Join(root, "s04", "s04_example-REST_x_01.ds"), "not a dir")

	dirs, err := discovery.FindSessionDirectories(root, mustPattern(t, `.*_example-REST_.*_01\.ds`), nil)
	if err != nil {
		t.Fatalf("FindSessionDirectories: %v", err)
	}
	if len(dirs) != 2 {
		t.Fatalf("expected 2 sessions, got %d: %+v", len(dirs), dirs)
	}
	got := map[string]discovery.SessionDirectory{}
	for _, dir := range dirs {
		got[dir.Subject] = dir
	}
	s02, ok := got["s02"]
	if !ok {
		t.Fatalf("nested session not found: %+v", dirs)
	}
	if s02.Parent != filepath.Join(root, "site", "2023", "s02") {
		t.Fatalf("unexpected parent %q", s02.Parent)
	}
	if s02.Name != "s02_example-REST_20230101_01.ds" {
		t.Fatalf("unexpected name %q", s02.Name)
	}
}

func TestFindSessionDirectoriesDescendsIntoMatches(t *testing.T) {
	root := t.TempDir()
	outer := filepath.Join(root, "a", "x.ds")
	inner := filepath.Join(outer, "b", "y.ds")
	if err := os.MkdirAll(inner, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	dirs, err := discovery.FindSessionDirectories(root, mustPattern(t, `.*\.ds`), nil)
	if err != nil {
		t.Fatalf("FindSessionDirectories: %v", err)
	}
	if len(dirs) != 2 {
		t.Fatalf("expected outer and inner sessions, got %+v", dirs)
	}
	if dirs[0].Path != outer || dirs[1].Path != inner {
		t.Fatalf("unexpected traversal order: %q then %q", dirs[0].Path, dirs[1].Path)
	}
	if dirs[1].Subject != "b" {
		t.Fatalf("expected inner subject b, got %q", dirs[1].Subject)
	}
}

func TestFindSessionDirectoriesIgnoresRootName(t *testing.T) {
	root := filepath.Join(t.TempDir(), "top.ds")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	dirs, err := discovery.FindSessionDirectories(root, mustPattern(t, `.*\.ds`), nil)
	if err != nil {
		t.Fatalf("FindSessionDirectories: %v", err)
	}
	if len(dirs) != 0 {
		t.Fatalf("root itself must not be collected: %+v", dirs)
	}
}

func TestFindSessionDirectoriesMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "absent")
	_, err := discovery.FindSessionDirectories(root, mustPattern(t, `.*`), nil)
	if !errors.Is(err, discovery.ErrSearchRootNotFound) {
		t.Fatalf("expected ErrSearchRootNotFound, got %v", err)
	}

	file := filepath.Join(t.TempDir(), "file")
	testsupport.WriteText(t, file, "x")
	_, err = discovery.FindSessionDirectories(file, mustPattern(t, `.*`), nil)
	if !errors.Is(err, discovery.ErrSearchRootNotDirectory) {
		t.Fatalf("expected ErrSearchRootNotDirectory, got %v", err)
	}
}

func TestFindSessionDirectoriesEmptyTree(t *testing.T) {
	dirs, err := discovery.FindSessionDirectories(t.TempDir(), mustPattern(t, `.*\.ds`), nil)
	if err != nil {
		t.Fatalf("FindSessionDirectories: %v", err)
	}
	if len(dirs) != 0 {
		t.Fatalf("expected no sessions, got %+v", dirs)
	}
}

func TestFindSessionDirectoriesSkipsUnreadable(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	root := t.TempDir()
	testsupport.AddSession(t, root, "s01")
	locked := filepath.Join(root, "locked")
	if err := os.MkdirAll(filepath.Join(locked, "s09", "s09.ds"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	dirs, err := discovery.FindSessionDirectories(root, mustPattern(t, `.*\.ds`), nil)
	if err != nil {
		t.Fatalf("unreadable subdirectory should not abort the scan: %v", err)
	}
	if len(dirs) != 1 || dirs[0].Subject != "s01" {
		t.Fatalf("expected only the readable session, got %+v", dirs)
	}
}

func TestFindSessionDirectoriesKeepsSubjectBytes(t *testing.T) {
	root := t.TempDir()
	decomposed := "Jose\u0301"
	if err := os.MkdirAll(filepath.Join(root, decomposed, "x.ds"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	dirs, err := discovery.FindSessionDirectories(root, mustPattern(t, `.*\.ds`), nil)
	if err != nil {
		t.Fatalf("FindSessionDirectories: %v", err)
	}
	if len(dirs) != 1 || dirs[0].Subject != decomposed {
		t.Fatalf("expected subject %q as stored on disk, got %+v", decomposed, dirs)
	}
}
