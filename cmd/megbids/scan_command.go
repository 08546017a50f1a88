package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"megbids/internal/config"
	"megbids/internal/discovery"
	"megbids/internal/logging"
)

type scanSubject struct {
	Subject    string   `json:"subject"`
	Session    string   `json:"session,omitempty"`
	Duplicates []string `json:"duplicates,omitempty"`
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var overrides config.Overrides
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List the session directories and subjects a run would convert",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.ApplyOverrides(overrides); err != nil {
				return err
			}
			pattern, err := cfg.NamePattern()
			if err != nil {
				return err
			}
			mode, err := discovery.ParseMatchMode(cfg.Discovery.SubjectMatch)
			if err != nil {
				return err
			}
			logger, err := ctx.consoleLogger(cmd.ErrOrStderr(), false)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			sessions, err := discovery.FindSessionDirectories(cfg.Paths.SearchRoot, pattern, logging.NewComponentLogger(logger, "discovery"))
			if err != nil {
				return err
			}
			resolution, err := discovery.ResolveSubjects(sessions, mode)
			if err != nil {
				return err
			}

			subjects := make([]scanSubject, 0, len(resolution.Subjects))
			for _, subject := range resolution.Subjects {
				subjects = append(subjects, scanSubject{
					Subject:    subject,
					Session:    resolution.Paths[subject],
					Duplicates: resolution.Duplicates[subject],
				})
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), subjects)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Search root: %s\n", cfg.Paths.SearchRoot)
			fmt.Fprintf(out, "Pattern: %s (%s)\n", cfg.Discovery.NamePattern, mode)
			if len(subjects) == 0 {
				fmt.Fprintln(out, "No session directories matched")
				return nil
			}
			rows := make([][]string, 0, len(subjects))
			for i, s := range subjects {
				session := "(none)"
				if s.Session != "" {
					session = relativeTo(cfg.Paths.SearchRoot, s.Session)
				}
				ignored := ""
				if n := len(s.Duplicates); n > 0 {
					ignored = strconv.Itoa(n)
				}
				rows = append(rows, []string{strconv.Itoa(i + 1), s.Subject, session, ignored})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Subject", "Session", "Ignored"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight},
			))
			fmt.Fprintf(out, "%d session directories, %d subjects, %d without a session\n",
				len(sessions), len(subjects), len(resolution.Unresolved()))
			return nil
		},
	}

	addOverrideFlags(cmd, &overrides)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func relativeTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}
