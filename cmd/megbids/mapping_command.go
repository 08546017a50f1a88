package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"megbids/internal/config"
	"megbids/internal/mapping"
)

func newMappingCommand(ctx *commandContext) *cobra.Command {
	mappingCmd := &cobra.Command{
		Use:   "mapping",
		Short: "Inspect the subject mapping file",
	}
	mappingCmd.AddCommand(newMappingShowCommand(ctx))
	return mappingCmd
}

func newMappingShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show [path]",
		Short: "Print the subject to number mapping",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				expanded, err := config.ExpandPath(args[0])
				if err != nil {
					return fmt.Errorf("resolve mapping path: %w", err)
				}
				path = expanded
			} else {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				path = cfg.Paths.MappingPath
			}

			m, err := mapping.Read(path)
			if err != nil {
				return err
			}
			entries := m.Entries()
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), entries)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "%s has no subjects\n", path)
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{e.Subject, strconv.Itoa(e.Number), fmt.Sprintf("sub-%d", e.Number)})
			}
			fmt.Fprintln(out, renderTable(
				append(append([]string{}, mapping.Header...), "BIDS"),
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
