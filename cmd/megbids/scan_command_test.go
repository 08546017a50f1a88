package main

import (
	"encoding/json"
	"testing"

	"megbids/internal/testsupport"
)

func TestScanListsResolvedSubjects(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.AddSession(t, env.cfg.Paths.SearchRoot, "s02")
	testsupport.AddSession(t, env.cfg.Paths.SearchRoot, "s01")

	out, _, err := runCLI(t, env.configPath, "scan")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	requireContains(t, out, "s01")
	requireContains(t, out, "s02_example-REST_20230101_01.ds")
	requireContains(t, out, "2 session directories, 2 subjects, 0 without a session")

	out, _, err = runCLI(t, env.configPath, "scan", "--json")
	if err != nil {
		t.Fatalf("scan --json: %v", err)
	}
	var subjects []scanSubject
	if err := json.Unmarshal([]byte(out), &subjects); err != nil {
		t.Fatalf("decode scan output: %v\n%s", err, out)
	}
	if len(subjects) != 2 || subjects[0].Subject != "s01" || subjects[1].Subject != "s02" {
		t.Fatalf("unexpected subjects %+v", subjects)
	}
}

func TestScanReportsNoMatches(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.AddSession(t, env.cfg.Paths.SearchRoot, "s01")

	out, _, err := runCLI(t, env.configPath, "scan", "--pattern", `.*_other_.*\.ds`)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	requireContains(t, out, "No session directories matched")
}
