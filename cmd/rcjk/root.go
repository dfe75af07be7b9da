package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var userFlag string

	ctx := newCommandContext(&configFlag, &userFlag)

	rootCmd := &cobra.Command{
		Use:           "rcjk",
		Short:         "rcjk font-source server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "Acting username (defaults to $RCJK_USER)")

	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newUserCommand(ctx))
	rootCmd.AddCommand(newProjectCommand(ctx))
	rootCmd.AddCommand(newFontCommand(ctx))
	rootCmd.AddCommand(newGlifCommand(ctx))
	rootCmd.AddCommand(newLayerCommand(ctx))
	rootCmd.AddCommand(newLockCommand(ctx))
	rootCmd.AddCommand(newUnlockCommand(ctx))
	rootCmd.AddCommand(newLocksCommand(ctx))
	rootCmd.AddCommand(newExportCommand(ctx))
	rootCmd.AddCommand(newImportCommand(ctx))
	rootCmd.AddCommand(newDaemonCommand(ctx))
	rootCmd.AddCommand(newLogsCommand(ctx))

	return rootCmd
}
