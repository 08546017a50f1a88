package main

import (
	"strings"
	"testing"

	"megbids/internal/testsupport"
)

func TestFailuresListsLoggedSubjects(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "failures")
	if err != nil {
		t.Fatalf("failures: %v", err)
	}
	requireContains(t, out, "No failures recorded")

	testsupport.WriteText(t, env.cfg.FailureLogPath(),
		"INFO - s01 caused conversion failed: recording: load: truncated res4\nINFO - s04 caused not found: pipeline: anatomy\n")

	out, _, err = runCLI(t, env.configPath, "failures")
	if err != nil {
		t.Fatalf("failures: %v", err)
	}
	requireContains(t, out, "truncated res4")
	requireContains(t, out, "s04")

	out, _, err = runCLI(t, env.configPath, "failures", "-n", "1", "--raw")
	if err != nil {
		t.Fatalf("failures --raw: %v", err)
	}
	if strings.TrimSpace(out) != "INFO - s04 caused not found: pipeline: anatomy" {
		t.Fatalf("unexpected raw output %q", out)
	}
}
