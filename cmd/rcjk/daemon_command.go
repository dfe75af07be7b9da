package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"rcjk/internal/config"
	"rcjk/internal/daemon"
	"rcjk/internal/export"
	"rcjk/internal/logging"
	"rcjk/internal/store"
	"rcjk/internal/sweep"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the export and lock-sweep scheduler",
	}
	daemonCmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run the scheduler in the foreground until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemonProcess(cmd.Context(), ctx)
		},
	})
	daemonCmd.AddCommand(&cobra.Command{
		Use:   "job NAME",
		Short: "Run one scheduled job immediately (export, full-export, lock-sweep)",
		Args:  cobra.ExactArgs(1),
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
				d, err := newDaemon(cfg, st, logger)
				if err != nil {
					return err
				}
				ran, err := d.RunJob(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !ran {
					fmt.Fprintf(cmd.OutOrStdout(), "Job %s is already running\n", args[0])
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %s finished\n", args[0])
				return nil
			})
		},
	})
	return daemonCmd
}

func newDaemon(cfg *config.Config, st *store.Store, logger *slog.Logger) (*daemon.Daemon, error) {
	exporter := export.New(cfg, st, export.WithLogger(logger))
	sweeper := sweep.New(st, cfg.StaleLockWindow(), logger)
	return daemon.New(cfg, st, exporter, sweeper, logger)
}

func runDaemonProcess(cmdCtx context.Context, ctx *commandContext) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("rcjk-%s.log", runID))
	logger, err := logging.New(logging.Options{
		Level:            cfg.Logging.Level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update daemon.log link: %v\n", err)
	}

	st, err := store.Open(cfg, store.WithLogger(logger))
	if err != nil {
		logger.Error("open store", logging.Error(err))
		return err
	}
	defer st.Close()

	d, err := newDaemon(cfg, st, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	defer d.Stop()

	<-signalCtx.Done()
	logger.Info("rcjk daemon shutting down")
	return nil
}

// ensureCurrentLogPointer points daemon.log at the log of the running process.
func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "daemon.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}
