// Package fileutil copies and checks the auxiliary files that accompany a
// recording.
package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrNotRegular reports a path that exists but is not a regular file.
var ErrNotRegular = errors.New("not a regular file")

// RequireFile returns nil when path names an existing regular file. A missing
// path yields an error matching fs.ErrNotExist.
func RequireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s: %w", path, ErrNotRegular)
	}
	return nil
}

// CopyFile streams src to dst with 0o644 permissions, replacing dst.
func CopyFile(src, dst string) error {
	_, err := copyHashed(src, dst)
	return err
}

// CopyFileVerified copies src to dst, then re-reads dst and compares size and
// SHA-256 with the source stream. dst is removed on mismatch.
func CopyFileVerified(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	srcSum, err := copyHashed(src, dst)
	if err != nil {
		return err
	}

	dstInfo, err := os.Stat(dst)
	if err != nil {
		return fmt.Errorf("stat destination: %w", err)
	}
	if dstInfo.Size() != srcInfo.Size() {
		_ = os.Remove(dst)
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcInfo.Size(), dstInfo.Size())
	}
	dstSum, err := hashFile(dst)
	if err != nil {
		return err
	}
	if !bytes.Equal(srcSum, dstSum) {
		_ = os.Remove(dst)
		return errors.New("copy hash mismatch: file corrupted during copy")
	}
	return nil
}

// CopyInto copies src into dir under name, creating dir first.
func CopyInto(src, dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	dst := filepath.Join(dir, name)
	if err := CopyFileVerified(src, dst); err != nil {
		return "", fmt.Errorf("copy %s -> %s: %w", src, dst, err)
	}
	return dst, nil
}

func copyHashed(src, dst string) ([]byte, error) {
	in, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = out.Close()
	}()

	hasher := sha256.New()
	if _, err := io.Copy(out, io.TeeReader(in, hasher)); err != nil {
		return nil, err
	}
	if err := out.Close(); err != nil {
		return nil, err
	}
	return hasher.Sum(nil), nil
}

func hashFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return nil, fmt.Errorf("hash %s: %w", path, err)
	}
	return hasher.Sum(nil), nil
}

// IsNotExist reports whether err means a path is absent.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
