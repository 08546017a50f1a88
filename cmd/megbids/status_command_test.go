package main

import (
	"strings"
	"testing"
)

func TestStatusReportsMissingBridge(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "status")
	if err == nil {
		t.Fatal("expected status to fail while the bridge is missing")
	}
	requireContains(t, out, "Search root:")
	requireContains(t, out, "[ERROR] binary \""+missingBridge+"\" not found")
	requireContains(t, out, "Run lock:")
	requireContains(t, out, "[INFO] free")
	requireContains(t, out, "[INFO] none recorded")
	if strings.Contains(out, ansiReset) {
		t.Fatalf("output to a buffer should not be colorized: %q", out)
	}
}

func TestStatusShowsLastRun(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, env.configPath, "run"); err != nil {
		t.Fatalf("run: %v", err)
	}

	out, _, _ := runCLI(t, env.configPath, "status")
	requireContains(t, out, "Last run:")
	requireContains(t, out, "[OK]")
	requireContains(t, out, "completed, 0 converted, 0 failed, 0 skipped")
}
