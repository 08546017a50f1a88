package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// Session describes one subject folder created by AddSession.
type Session struct {
	Subject   string
	Dir       string
	Recording string
	Image     string
	Transform string
}

// SessionOption tweaks the files AddSession creates.
type SessionOption func(*sessionLayout)

type sessionLayout struct {
	name          string
	withImage     bool
	withTransform bool
}

// WithSessionName overrides the recording directory name.
func WithSessionName(name string) SessionOption {
	return func(s *sessionLayout) { s.name = name }
}

// WithoutImage skips the anatomical image.
func WithoutImage() SessionOption {
	return func(s *sessionLayout) { s.withImage = false }
}

// WithoutTransform skips the coordinate transform.
func WithoutTransform() SessionOption {
	return func(s *sessionLayout) { s.withTransform = false }
}

// AddSession creates <root>/<subject>/<subject>_example-REST_20230101_01.ds
// with a header file inside, plus anat/<subject>.mri and
// anat/<subject>-trans.fif next to it.
func AddSession(t testing.TB, root, subject string, opts ...SessionOption) Session {
	t.Helper()

	layout := sessionLayout{
		name:          subject + "_example-REST_20230101_01.ds",
		withImage:     true,
		withTransform: true,
	}
	for _, opt := range opts {
		opt(&layout)
	}

	dir := filepath.Join(root, subject)
	session := Session{
		Subject:   subject,
		Dir:       dir,
		Recording: filepath.Join(dir, layout.name),
		Image:     filepath.Join(dir, "anat", subject+".mri"),
		Transform: filepath.Join(dir, "anat", subject+"-trans.fif"),
	}
	if err := os.MkdirAll(session.Recording, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", session.Recording, err)
	}
	WriteText(t, filepath.Join(session.Recording, "header.res4"), subject+" header\n")
	if layout.withImage {
		WriteText(t, session.Image, "image:"+subject)
	}
	if layout.withTransform {
		WriteText(t, session.Transform, "trans:"+subject)
	}
	return session
}
