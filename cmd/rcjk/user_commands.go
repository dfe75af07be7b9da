package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"rcjk/internal/store"
)

func newUserCommand(ctx *commandContext) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage editor accounts",
	}
	userCmd.AddCommand(newUserAddCommand(ctx))
	userCmd.AddCommand(newUserListCommand(ctx))
	userCmd.AddCommand(newUserActiveCommand(ctx, "activate", true))
	userCmd.AddCommand(newUserActiveCommand(ctx, "deactivate", false))
	return userCmd
}

func newUserAddCommand(ctx *commandContext) *cobra.Command {
	var first, last, email string
	cmd := &cobra.Command{
		Use:   "add USERNAME",
		Short: "Create an editor account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				user, err := st.CreateUser(cmd.Context(), args[0], first, last, email)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (id %d)\n", user.Username, user.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&first, "first", "", "First name")
	cmd.Flags().StringVar(&last, "last", "", "Last name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	return cmd
}

func newUserListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List editor accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				users, err := st.ListUsers(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					type userView struct {
						ID       int64  `json:"id"`
						Username string `json:"username"`
						FullName string `json:"fullName"`
						Email    string `json:"email,omitempty"`
						Active   bool   `json:"active"`
					}
					views := make([]userView, 0, len(users))
					for _, u := range users {
						views = append(views, userView{ID: u.ID, Username: u.Username, FullName: u.FullName(), Email: u.Email, Active: u.IsActive})
					}
					return writeJSON(cmd, views)
				}
				rows := make([][]string, 0, len(users))
				for _, u := range users {
					rows = append(rows, []string{strconv.FormatInt(u.ID, 10), u.Username, u.FullName(), u.Email, yesNo(u.IsActive)})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out, []string{"ID", "Username", "Name", "Email", "Active"}, rows, []columnAlignment{alignRight}))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newUserActiveCommand(ctx *commandContext, use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " USERNAME",
		Short: fmt.Sprintf("Mark an account as %sd", use),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				user, err := st.GetUserByUsername(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := st.SetUserActive(cmd.Context(), user.ID, active); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "User %s %sd\n", user.Username, use)
				return nil
			})
		},
	}
}
