package fileutil_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"megbids/internal/fileutil"
	"megbids/internal/testsupport"
)

func TestCopyIntoLargeImage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "anat", "s01.mri")
	testsupport.WriteFile(t, src, 3*1024*1024+17)

	dest := filepath.Join(dir, "BIDS", "sub-1", "anat")
	dst, err := fileutil.CopyInto(src, dest, "sub-1_T1w_defaced.mri")
	if err != nil {
		t.Fatalf("CopyInto: %v", err)
	}
	if dst != filepath.Join(dest, "sub-1_T1w_defaced.mri") {
		t.Fatalf("unexpected destination %s", dst)
	}

	want, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("copied %d bytes, want %d identical bytes", len(got), len(want))
	}
}
