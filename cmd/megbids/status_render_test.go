package main

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Converter", statusError, "binary not found", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Converter:", "[ERROR] binary not found")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Output root", statusOK, "", true)
	if !strings.HasPrefix(got, ansiGreen) || !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected green line, got %q", got)
	}
	if !strings.Contains(got, "[OK]") {
		t.Fatalf("missing label in %q", got)
	}
}

func TestRenderSectionHeader(t *testing.T) {
	lines := renderSectionHeader(" Runs ", false)
	if len(lines) != 2 || lines[0] != "== Runs ==" || lines[1] != "----------" {
		t.Fatalf("unexpected header %q", lines)
	}
}

func TestShouldColorizeBuffer(t *testing.T) {
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("buffers are never terminals")
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"Subject", "Number"}, [][]string{{"s01"}, {"s02", "2", "extra"}}, []columnAlignment{alignLeft, alignRight})
	if !strings.Contains(out, "s01") || !strings.Contains(out, "s02") {
		t.Fatalf("missing rows:\n%s", out)
	}
	if strings.Contains(out, "extra") {
		t.Fatalf("cells beyond the header should be dropped:\n%s", out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("expected empty output without headers")
	}
}
