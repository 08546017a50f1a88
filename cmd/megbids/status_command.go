package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"megbids/internal/ledger"
	"megbids/internal/preflight"
	"megbids/internal/runlock"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check paths, the converter and the last run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			var lines []string
			lines = append(lines, renderSectionHeader("Readiness", colorize)...)
			results := preflight.RunAll(cfg, preflight.Options{})
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Runs", colorize)...)
			held, err := runlock.Held(cfg.LockPath())
			switch {
			case err != nil:
				lines = append(lines, renderStatusLine("Run lock", statusWarn, err.Error(), colorize))
			case held:
				lines = append(lines, renderStatusLine("Run lock", statusWarn, "a run is in progress", colorize))
			default:
				lines = append(lines, renderStatusLine("Run lock", statusInfo, "free", colorize))
			}
			lines = append(lines, lastRunLine(cmd, cfg.LedgerPath(), colorize))

			for _, line := range lines {
				fmt.Fprintln(out, line)
			}
			return preflight.Err(results)
		},
	}
}

func lastRunLine(cmd *cobra.Command, ledgerPath string, colorize bool) string {
	const label = "Last run"
	if _, err := os.Stat(ledgerPath); errors.Is(err, os.ErrNotExist) {
		return renderStatusLine(label, statusInfo, "none recorded", colorize)
	}
	store, err := ledger.OpenPath(ledgerPath)
	if err != nil {
		return renderStatusLine(label, statusWarn, err.Error(), colorize)
	}
	defer store.Close()

	runs, err := store.ListRuns(cmd.Context(), 1)
	if err != nil {
		return renderStatusLine(label, statusWarn, err.Error(), colorize)
	}
	if len(runs) == 0 {
		return renderStatusLine(label, statusInfo, "none recorded", colorize)
	}
	run := runs[0]
	kind := statusOK
	switch run.Status {
	case ledger.RunFailed:
		kind = statusError
	case ledger.RunInterrupted, ledger.RunRunning:
		kind = statusWarn
	}
	msg := fmt.Sprintf("%s %s, %d converted, %d failed, %d skipped (%s)",
		shortID(run.ID), run.Status, run.Converted, run.Failed, run.Skipped,
		run.StartedAt.Local().Format(historyTimeLayout))
	return renderStatusLine(label, kind, msg, colorize)
}
