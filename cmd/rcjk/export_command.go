package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"rcjk/internal/export"
	"rcjk/internal/store"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var (
		projectRef string
		full       bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export projects to their git repositories",
		Long: "Writes the .rcjk trees of every export-enabled project, commits per font, and pushes.\n" +
			"Without --full only rows changed since the previous export are rewritten.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.Store) error {
				req := export.Request{Full: full}
				if projectRef != "" {
					project, err := resolveProject(cmd.Context(), st, projectRef)
					if err != nil {
						return err
					}
					req.ProjectID = project.ID
				}
				report, err := export.New(cfg, st, export.WithLogger(logger)).Run(cmd.Context(), req)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out, []string{"Project", "Font", "Written", "Removed", "Committed", "Result"}, exportRows(report), []columnAlignment{alignLeft, alignLeft, alignRight, alignRight}))
				if failed := report.FailedProjects(); failed > 0 {
					return fmt.Errorf("export failed for %d of %d projects (run %s)", failed, len(report.Projects), report.RunID)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&projectRef, "project", "p", "", "Export only this project (id or slug)")
	cmd.Flags().BoolVar(&full, "full", false, "Rewrite every glif instead of only changed ones")
	return cmd
}

func exportRows(report *export.Report) [][]string {
	var rows [][]string
	for _, p := range report.Projects {
		if p.Skipped != "" || p.Err != nil || len(p.Fonts) == 0 {
			rows = append(rows, []string{p.Slug, "", "", "", yesNo(p.Committed), outcome(p.Skipped, p.Err)})
		}
		for _, f := range p.Fonts {
			rows = append(rows, []string{
				p.Slug, f.Name,
				strconv.Itoa(f.Written), strconv.Itoa(f.Removed),
				yesNo(f.Committed), outcome(f.Skipped, f.Err),
			})
		}
	}
	return rows
}

func outcome(skipped string, err error) string {
	switch {
	case err != nil:
		return "failed: " + err.Error()
	case skipped != "":
		return "skipped: " + skipped
	default:
		return "ok"
	}
}
