package main

import (
	"context"
	"errors"
	"testing"

	"megbids/internal/ledger"
	"megbids/internal/testsupport"
)

func TestHistoryShowsRunDetail(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded")

	if _, _, err := runCLI(t, env.configPath, "run"); err != nil {
		t.Fatalf("run: %v", err)
	}

	store := testsupport.MustOpenLedger(t, env.cfg)
	runs, err := store.ListRuns(context.Background(), 0)
	if err != nil || len(runs) != 1 {
		t.Fatalf("ListRuns = %v, %v", runs, err)
	}

	out, _, err = runCLI(t, env.configPath, "history", runs[0].ID[:8])
	if err != nil {
		t.Fatalf("history <id>: %v", err)
	}
	requireContains(t, out, runs[0].ID)
	requireContains(t, out, "Status:      completed")
	requireContains(t, out, "No subjects recorded")
}

func TestHistoryUnknownRun(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, env.configPath, "history", "nope")
	if !errors.Is(err, ledger.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}
