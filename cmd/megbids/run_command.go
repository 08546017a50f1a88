package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"megbids/internal/config"
	"megbids/internal/pipeline"
	"megbids/internal/runner"
)

func addOverrideFlags(cmd *cobra.Command, o *config.Overrides) {
	cmd.Flags().StringVar(&o.SearchRoot, "search-root", "", "Directory holding one folder per subject")
	cmd.Flags().StringVar(&o.NamePattern, "pattern", "", "Regular expression a session directory name must match")
	cmd.Flags().StringVar(&o.SubjectMatch, "subject-match", "", "Subject binding mode (structural or substring)")
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var overrides config.Overrides
	var verbose bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Convert every discovered subject and export the mapping",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.ApplyOverrides(overrides); err != nil {
				return err
			}
			logger, err := ctx.consoleLogger(cmd.OutOrStdout(), verbose)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			result, runErr := runner.Run(cmd.Context(), cfg, runner.Options{Logger: logger})
			if result.RunID != "" {
				printRunSummary(cmd.OutOrStdout(), result)
			}
			return runErr
		},
	}

	addOverrideFlags(cmd, &overrides)
	cmd.Flags().StringVar(&overrides.OutputRoot, "output-root", "", "BIDS dataset root")
	cmd.Flags().StringVar(&overrides.MappingPath, "mapping", "", "Destination of the subject mapping CSV")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every matched session directory")
	return cmd
}

func printRunSummary(out io.Writer, result runner.Result) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Run %s %s in %s\n", shortID(result.RunID), result.Status, result.Duration.Round(time.Millisecond))

	rows := make([][]string, 0, result.Summary.Total)
	if result.Mapping != nil {
		for _, entry := range result.Mapping.Entries() {
			rows = append(rows, []string{entry.Subject, strconv.Itoa(entry.Number), string(pipeline.StatusConverted), ""})
		}
	}
	for _, group := range [][]pipeline.SubjectFailure{result.Summary.Failed, result.Summary.Skipped} {
		for _, f := range group {
			detail := ""
			if f.Err != nil {
				detail = f.Err.Error()
			}
			rows = append(rows, []string{f.Subject, "-", string(f.Status), detail})
		}
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable(
			[]string{"Subject", "Number", "Status", "Detail"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
		))
	}
	fmt.Fprintf(out, "Converted %d of %d subjects (%d failed, %d skipped)\n",
		result.Summary.Converted, len(result.Resolution.Subjects),
		len(result.Summary.Failed), len(result.Summary.Skipped))
	fmt.Fprintf(out, "Mapping: %s\n", result.MappingPath)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
