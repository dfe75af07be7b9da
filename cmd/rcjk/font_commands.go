package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"rcjk/internal/store"
)

func newFontCommand(ctx *commandContext) *cobra.Command {
	fontCmd := &cobra.Command{
		Use:   "font",
		Short: "Manage fonts",
	}
	fontCmd.AddCommand(newFontAddCommand(ctx))
	fontCmd.AddCommand(newFontListCommand(ctx))
	fontCmd.AddCommand(newFontSetCommand(ctx))
	fontCmd.AddCommand(newFontImportsCommand(ctx))
	fontCmd.AddCommand(newFontShowCommand(ctx))
	return fontCmd
}

func newFontAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add PROJECT NAME",
		Short: "Create a font in a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				user, err := ctx.currentUser(cmd.Context(), st)
				if err != nil {
					return err
				}
				project, err := resolveProject(cmd.Context(), st, args[0])
				if err != nil {
					return err
				}
				font, err := st.CreateFont(cmd.Context(), project.ID, args[1], user)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created font %s (id %d) in %s\n", font.Name, font.ID, project.Slug)
				return nil
			})
		},
	}
}

func newFontListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list PROJECT",
		Short: "List the fonts of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				project, err := resolveProject(cmd.Context(), st, args[0])
				if err != nil {
					return err
				}
				fonts, err := st.ListFonts(cmd.Context(), project.ID)
				if err != nil {
					return err
				}
				if asJSON {
					type fontView struct {
						ID            int64  `json:"id"`
						Name          string `json:"name"`
						Slug          string `json:"slug"`
						Available     bool   `json:"available"`
						ExportEnabled bool   `json:"exportEnabled"`
						ExportRunning bool   `json:"exportRunning"`
					}
					views := make([]fontView, 0, len(fonts))
					for _, f := range fonts {
						views = append(views, fontView{f.ID, f.Name, f.Slug, f.Available, f.ExportEnabled, f.ExportRunning})
					}
					return writeJSON(cmd, views)
				}
				rows := make([][]string, 0, len(fonts))
				for _, f := range fonts {
					rows = append(rows, []string{
						strconv.FormatInt(f.ID, 10), f.Name, f.Slug,
						yesNo(f.Available), yesNo(f.ExportEnabled), displayTime(f.ExportCompletedAt),
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out, []string{"ID", "Name", "Slug", "Available", "Export", "Last export"}, rows, []columnAlignment{alignRight}))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newFontSetCommand(ctx *commandContext) *cobra.Command {
	var (
		fontLib, features, designspace, composition string
		available, export                           bool
	)
	cmd := &cobra.Command{
		Use:   "set FONT_ID",
		Short: "Replace font documents or change font flags",
		Long:  "Document flags take a file path, or - to read standard input.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fontID, err := parseID(args[0], "font")
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			return ctx.withStore(func(st *store.Store) error {
				user, err := ctx.currentUser(cmd.Context(), st)
				if err != nil {
					return err
				}
				var sources store.FontSources
				for _, doc := range []struct {
					flag   string
					path   string
					target **string
				}{
					{"fontlib", fontLib, &sources.FontLib},
					{"features", features, &sources.Features},
					{"designspace", designspace, &sources.Designspace},
				} {
					if !flags.Changed(doc.flag) {
						continue
					}
					content, err := readSource(doc.path)
					if err != nil {
						return err
					}
					*doc.target = &content
				}
				changed := false
				if sources.FontLib != nil || sources.Features != nil || sources.Designspace != nil {
					if _, err := st.UpdateFontSources(cmd.Context(), fontID, sources, user); err != nil {
						return err
					}
					changed = true
				}
				if flags.Changed("composition") {
					content, err := readSource(composition)
					if err != nil {
						return err
					}
					if _, err := st.SaveComposition(cmd.Context(), fontID, content, user); err != nil {
						return err
					}
					changed = true
				}
				if flags.Changed("available") {
					if err := st.SetFontAvailable(cmd.Context(), fontID, available); err != nil {
						return err
					}
					changed = true
				}
				if flags.Changed("export") {
					if err := st.SetFontExportEnabled(cmd.Context(), fontID, export); err != nil {
						return err
					}
					changed = true
				}
				if !changed {
					return fmt.Errorf("nothing to change")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated font %d\n", fontID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&fontLib, "fontlib", "", "fontLib.json document")
	cmd.Flags().StringVar(&features, "features", "", "features.fea document")
	cmd.Flags().StringVar(&designspace, "designspace", "", "designspace.json document")
	cmd.Flags().StringVar(&composition, "composition", "", "glyphsComposition.json document")
	cmd.Flags().BoolVar(&available, "available", true, "Mark the font available to exports")
	cmd.Flags().BoolVar(&export, "export", true, "Include the font in exports")
	return cmd
}

func newFontImportsCommand(ctx *commandContext) *cobra.Command {
	var importID int64
	cmd := &cobra.Command{
		Use:   "imports FONT_ID",
		Short: "List archive imports of a font, or print one import's log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fontID, err := parseID(args[0], "font")
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.Store) error {
				out := cmd.OutOrStdout()
				if importID > 0 {
					job, err := st.GetFontImport(cmd.Context(), importID)
					if err != nil {
						return err
					}
					if job.FontID != fontID {
						return fmt.Errorf("import %d does not belong to font %d", importID, fontID)
					}
					fmt.Fprintf(out, "Import %d (%s) of %s\n", job.ID, job.Status, job.ArchivePath)
					fmt.Fprint(out, job.Logs)
					return nil
				}
				jobs, err := st.ListFontImports(cmd.Context(), fontID)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(jobs))
				for _, job := range jobs {
					rows = append(rows, []string{
						strconv.FormatInt(job.ID, 10), string(job.Status), job.ArchivePath,
						displayTime(&job.CreatedAt), displayTime(&job.UpdatedAt),
					})
				}
				fmt.Fprintln(out, renderTable(out, []string{"ID", "Status", "Archive", "Created", "Updated"}, rows, []columnAlignment{alignRight}))
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&importID, "id", 0, "Print the log of this import")
	return cmd
}

func newFontShowCommand(ctx *commandContext) *cobra.Command {
	var document string
	cmd := &cobra.Command{
		Use:   "show FONT_ID",
		Short: "Show a font, or print one of its documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fontID, err := parseID(args[0], "font")
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.Store) error {
				font, err := st.GetFont(cmd.Context(), fontID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				switch document {
				case "":
					fmt.Fprintf(out, "%s (id %d, slug %s)\n", font.Name, font.ID, font.Slug)
					fmt.Fprintf(out, "  available:    %s\n", yesNo(font.Available))
					fmt.Fprintf(out, "  export:       %s\n", yesNo(font.ExportEnabled))
					fmt.Fprintf(out, "  exporting:    %s\n", yesNo(font.ExportRunning))
					fmt.Fprintf(out, "  last export:  %s\n", displayTime(font.ExportCompletedAt))
					fmt.Fprintf(out, "  updated:      %s\n", displayTime(&font.UpdatedAt))
				case "fontlib":
					fmt.Fprint(out, font.FontLib)
				case "features":
					fmt.Fprint(out, font.Features)
				case "designspace":
					fmt.Fprint(out, font.Designspace)
				case "composition":
					composition, err := st.GetComposition(cmd.Context(), fontID)
					if err != nil {
						return err
					}
					fmt.Fprint(out, composition.Data)
				default:
					return fmt.Errorf("unknown document %q (fontlib, features, designspace, composition)", document)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&document, "document", "", "Print fontlib, features, designspace, or composition")
	return cmd
}
