package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "s01.mri")
	dst := filepath.Join(dir, "sub-1_T1w_defaced.mri")

	content := []byte("anatomical image")
	if err := os.WriteFile(src, content, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, []byte("previous run, longer content"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CopyFile(src, dst); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}
}

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "s01-trans.fif")
	dst := filepath.Join(dir, "sub-1-trans.fif")

	content := make([]byte, 100_000)
	for i := range content {
		content[i] = byte(i % 251)
	}
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(content) {
		t.Fatalf("size mismatch: got %d, want %d", len(got), len(content))
	}
}

func TestCopyFileVerifiedMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := CopyFileVerified(filepath.Join(dir, "absent"), filepath.Join(dir, "dst"))
	if !IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestCopyIntoCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "s01.mri")
	if err := os.WriteFile(src, []byte("img"), 0o644); err != nil {
		t.Fatal(err)
	}
	dst, err := CopyInto(src, filepath.Join(dir, "BIDS", "sub-1", "anat"), "sub-1_T1w_defaced.mri")
	if err != nil {
		t.Fatalf("CopyInto: %v", err)
	}
	if want := filepath.Join(dir, "BIDS", "sub-1", "anat", "sub-1_T1w_defaced.mri"); dst != want {
		t.Fatalf("dst = %q, want %q", dst, want)
	}
	if err := RequireFile(dst); err != nil {
		t.Fatalf("copied file missing: %v", err)
	}
}

func TestRequireFile(t *testing.T) {
	dir := t.TempDir()
	if err := RequireFile(filepath.Join(dir, "absent")); !IsNotExist(err) {
		t.Fatalf("expected not-exist, got %v", err)
	}
	if err := RequireFile(dir); !errors.Is(err, ErrNotRegular) {
		t.Fatalf("expected ErrNotRegular for a directory, got %v", err)
	}
}
