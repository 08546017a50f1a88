package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"megbids/internal/logs"
)

func newFailuresCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var raw bool

	cmd := &cobra.Command{
		Use:   "failures",
		Short: "Show subjects recorded in the failure log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.FailureLogPath()
			out := cmd.OutOrStdout()

			tail, offset, err := logs.Last(path, lines)
			if err != nil {
				return err
			}
			if !follow {
				if len(tail) == 0 {
					fmt.Fprintf(out, "No failures recorded in %s\n", path)
					return nil
				}
				if raw {
					for _, line := range tail {
						fmt.Fprintln(out, line)
					}
					return nil
				}
				fmt.Fprintln(out, renderFailures(tail))
				return nil
			}

			for _, line := range tail {
				printFailureLine(out, line, raw)
			}
			followCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return logs.Follow(followCtx, path, offset, logs.DefaultPoll, func(line string) {
				printFailureLine(out, line, raw)
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new failures as runs record them")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print log lines unparsed")
	return cmd
}

func renderFailures(lines []string) string {
	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		if f, ok := logs.ParseFailure(line); ok {
			rows = append(rows, []string{f.Subject, f.Error})
			continue
		}
		rows = append(rows, []string{"", line})
	}
	return renderTable([]string{"Subject", "Error"}, rows, nil)
}

func printFailureLine(out io.Writer, line string, raw bool) {
	if f, ok := logs.ParseFailure(line); ok && !raw {
		fmt.Fprintf(out, "%s: %s\n", f.Subject, f.Error)
		return
	}
	fmt.Fprintln(out, line)
}
