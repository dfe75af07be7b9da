package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"rcjk/internal/logging"
	"rcjk/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines   int
		follow  bool
		daemon  bool
		filters []string
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent log lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			name := logging.LogFileName
			if daemon {
				name = "daemon.log"
			}
			path := filepath.Join(cfg.Paths.LogDir, name)
			filter := logs.Filter(filters)

			tail, offset, err := logs.Last(path, lines, filter)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}
			followCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return logs.Follow(followCtx, path, offset, logs.DefaultPoll, filter, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing appended lines")
	cmd.Flags().BoolVar(&daemon, "daemon", false, "Read the running daemon's log instead of the CLI log")
	cmd.Flags().StringArrayVar(&filters, "grep", nil, "Only lines containing this text (repeatable)")
	return cmd
}
