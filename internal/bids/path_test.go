package bids

import (
	"path/filepath"
	"testing"
)

func TestPathLayout(t *testing.T) {
	p := NewPath("/data/BIDS", 3, "rest")

	cases := []struct {
		name string
		got  string
		want string
	}{
		{"directory", p.Directory(), filepath.FromSlash("/data/BIDS/sub-3")},
		{"datatype dir", p.DatatypeDirectory(), filepath.FromSlash("/data/BIDS/sub-3/meg")},
		{"basename", p.Basename(), "sub-3_task-rest_meg"},
		{"anat dir", p.AnatDirectory(), filepath.FromSlash("/data/BIDS/sub-3/anat")},
		{"image", p.AnatImageName(".mri"), "sub-3_T1w_defaced.mri"},
		{"transform", p.TransformName("-trans.fif"), "sub-3-trans.fif"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("%s = %q, want %q", tc.name, tc.got, tc.want)
		}
	}

	p.Extension = ".fif"
	if got, want := p.FilePath(), filepath.FromSlash("/data/BIDS/sub-3/meg/sub-3_task-rest_meg.fif"); got != want {
		t.Fatalf("FilePath = %q, want %q", got, want)
	}
}

func TestPathValidate(t *testing.T) {
	if err := NewPath("/out", 1, "rest").Validate(); err != nil {
		t.Fatalf("expected valid path: %v", err)
	}
	bad := []Path{
		{Subject: "1", Task: "rest"},
		{Root: "/out", Task: "rest"},
		{Root: "/out", Subject: "1_2", Task: "rest"},
		{Root: "/out", Subject: "1", Task: "rest-eyes"},
	}
	for _, p := range bad {
		if err := p.Validate(); err == nil {
			t.Errorf("expected %+v to be rejected", p)
		}
	}
}
