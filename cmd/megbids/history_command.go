package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"megbids/internal/ledger"
)

const historyTimeLayout = "2006-01-02 15:04:05"

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show past runs, or the subjects of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ledger.Open(cfg)
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				run, err := store.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				subjects, err := store.RunSubjects(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				printRunDetail(out, run, subjects)
				return nil
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					run.StartedAt.Local().Format(historyTimeLayout),
					string(run.Status),
					strconv.Itoa(run.SubjectsTotal),
					strconv.Itoa(run.Converted),
					strconv.Itoa(run.Failed),
					strconv.Itoa(run.Skipped),
					run.Duration().Round(time.Second).String(),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Started", "Status", "Subjects", "Converted", "Failed", "Skipped", "Duration"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list (0 for all)")
	return cmd
}

func printRunDetail(out io.Writer, run *ledger.Run, subjects []ledger.SubjectRecord) {
	fmt.Fprintf(out, "Run:         %s\n", run.ID)
	fmt.Fprintf(out, "Status:      %s\n", run.Status)
	fmt.Fprintf(out, "Started:     %s\n", run.StartedAt.Local().Format(historyTimeLayout))
	if run.FinishedAt != nil {
		fmt.Fprintf(out, "Finished:    %s\n", run.FinishedAt.Local().Format(historyTimeLayout))
	}
	fmt.Fprintf(out, "Search root: %s\n", run.SearchRoot)
	fmt.Fprintf(out, "Output root: %s\n", run.OutputRoot)
	fmt.Fprintf(out, "Mapping:     %s\n", run.MappingPath)
	if run.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:       %s\n", run.ErrorMessage)
	}
	if len(subjects) == 0 {
		fmt.Fprintln(out, "No subjects recorded")
		return
	}
	rows := make([][]string, 0, len(subjects))
	for _, s := range subjects {
		number := "-"
		if s.Number > 0 {
			number = strconv.Itoa(s.Number)
		}
		rows = append(rows, []string{s.Subject, number, string(s.Status), s.ErrorMessage})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Subject", "Number", "Status", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
	))
}
