package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rcjk/internal/api"
	"rcjk/internal/importer"
	"rcjk/internal/store"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var fontID int64
	cmd := &cobra.Command{
		Use:   "import ARCHIVE",
		Short: "Import a zipped .rcjk tree into a font",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if fontID <= 0 {
				return fmt.Errorf("--font is required")
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.Store) error {
				user, err := ctx.currentUser(cmd.Context(), st)
				if err != nil {
					return err
				}
				summary, err := importer.New(st, api.NewGlifService(st), logger).Import(cmd.Context(), fontID, args[0], user)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(),
					"Import %d %s: %d created, %d updated, %d layers, %d failed, %d ignored\n",
					summary.ImportID, summary.Status, summary.Created, summary.Updated, summary.Layers, summary.Failed, summary.Ignored)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&fontID, "font", 0, "Target font id")
	return cmd
}
