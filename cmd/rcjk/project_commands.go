package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"rcjk/internal/store"
)

func newProjectCommand(ctx *commandContext) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects and their designers",
	}
	projectCmd.AddCommand(newProjectAddCommand(ctx))
	projectCmd.AddCommand(newProjectListCommand(ctx))
	projectCmd.AddCommand(newProjectSetCommand(ctx))
	projectCmd.AddCommand(newProjectDesignerCommand(ctx))
	return projectCmd
}

func newProjectAddCommand(ctx *commandContext) *cobra.Command {
	var repoURL, branch string
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a project published to a git repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				user, err := ctx.currentUser(cmd.Context(), st)
				if err != nil {
					return err
				}
				project, err := st.CreateProject(cmd.Context(), args[0], repoURL, branch, user)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (id %d, branch %s)\n", project.Slug, project.ID, project.RepoBranch)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&repoURL, "repo", "", "Git remote URL")
	cmd.Flags().StringVar(&branch, "branch", "", "Git branch (default master)")
	return cmd
}

func newProjectListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				projects, err := st.ListProjects(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					type projectView struct {
						ID            int64  `json:"id"`
						Name          string `json:"name"`
						Slug          string `json:"slug"`
						RepoURL       string `json:"repoUrl"`
						RepoBranch    string `json:"repoBranch"`
						ExportEnabled bool   `json:"exportEnabled"`
						ExportRunning bool   `json:"exportRunning"`
					}
					views := make([]projectView, 0, len(projects))
					for _, p := range projects {
						views = append(views, projectView{p.ID, p.Name, p.Slug, p.RepoURL, p.RepoBranch, p.ExportEnabled, p.ExportRunning})
					}
					return writeJSON(cmd, views)
				}
				rows := make([][]string, 0, len(projects))
				for _, p := range projects {
					rows = append(rows, []string{
						strconv.FormatInt(p.ID, 10), p.Slug, p.RepoURL, p.RepoBranch,
						yesNo(p.ExportEnabled), displayTime(p.ExportCompletedAt),
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out, []string{"ID", "Slug", "Repository", "Branch", "Export", "Last export"}, rows, []columnAlignment{alignRight}))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newProjectSetCommand(ctx *commandContext) *cobra.Command {
	var export bool
	cmd := &cobra.Command{
		Use:   "set PROJECT",
		Short: "Change project settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("export") {
				return fmt.Errorf("nothing to change: pass --export")
			}
			return ctx.withStore(func(st *store.Store) error {
				project, err := resolveProject(cmd.Context(), st, args[0])
				if err != nil {
					return err
				}
				if err := st.SetProjectExportEnabled(cmd.Context(), project.ID, export); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Project %s export enabled: %s\n", project.Slug, yesNo(export))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&export, "export", true, "Include the project in exports")
	return cmd
}

func newProjectDesignerCommand(ctx *commandContext) *cobra.Command {
	designerCmd := &cobra.Command{
		Use:   "designer",
		Short: "Manage the designers of a project",
	}
	designerCmd.AddCommand(&cobra.Command{
		Use:   "add PROJECT USERNAME",
		Short: "Attach a designer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				project, user, err := projectAndUser(cmd, st, args)
				if err != nil {
					return err
				}
				if err := st.AddDesigner(cmd.Context(), project.ID, user.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s designs %s\n", user.Username, project.Slug)
				return nil
			})
		},
	})
	designerCmd.AddCommand(&cobra.Command{
		Use:   "remove PROJECT USERNAME",
		Short: "Detach a designer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				project, user, err := projectAndUser(cmd, st, args)
				if err != nil {
					return err
				}
				if err := st.RemoveDesigner(cmd.Context(), project.ID, user.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s no longer designs %s\n", user.Username, project.Slug)
				return nil
			})
		},
	})
	designerCmd.AddCommand(&cobra.Command{
		Use:   "list PROJECT",
		Short: "List designers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				project, err := resolveProject(cmd.Context(), st, args[0])
				if err != nil {
					return err
				}
				users, err := st.ListDesigners(cmd.Context(), project.ID)
				if err != nil {
					return err
				}
				for _, u := range users {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", u.Username, u.FullName())
				}
				return nil
			})
		},
	})
	return designerCmd
}

func projectAndUser(cmd *cobra.Command, st *store.Store, args []string) (*store.Project, *store.User, error) {
	project, err := resolveProject(cmd.Context(), st, args[0])
	if err != nil {
		return nil, nil, err
	}
	user, err := st.GetUserByUsername(cmd.Context(), args[1])
	if err != nil {
		return nil, nil, err
	}
	return project, user, nil
}
