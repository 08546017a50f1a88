package preflight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"megbids/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	result := CheckDirectoryAccess("test", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckReadableDirectory_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckReadableDirectory("test", f); result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckWritableTarget(t *testing.T) {
	base := t.TempDir()
	if r := CheckWritableTarget("out", filepath.Join(base, "a", "b", "BIDS")); !r.Passed {
		t.Fatalf("expected missing target under writable dir to pass: %s", r.Detail)
	}

	file := filepath.Join(base, "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if r := CheckWritableTarget("out", filepath.Join(file, "child")); r.Passed {
		t.Fatal("expected failure when an ancestor is a file")
	}
	if r := CheckWritableTarget("out", ""); r.Passed {
		t.Fatal("expected failure for empty path")
	}
}

func TestRunAllReportsMissingConverter(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithConverterCommand("megbids-test-missing-bridge"))
	if err := os.MkdirAll(cfg.Paths.SearchRoot, 0o755); err != nil {
		t.Fatal(err)
	}

	results := RunAll(cfg, Options{})
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	err := Err(results)
	if err == nil || !strings.Contains(err.Error(), "Converter") {
		t.Fatalf("expected converter failure, got %v", err)
	}

	if err := Err(RunAll(cfg, Options{SkipConverter: true})); err != nil {
		t.Fatalf("expected pass without converter check: %v", err)
	}
}
