package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"rcjk/internal/config"
	"rcjk/internal/logging"
	"rcjk/internal/store"
)

type commandContext struct {
	configFlag *string
	userFlag   *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, userFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		userFlag:   userFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// logger writes to stderr and the shared log file so command output on
// stdout stays parseable.
func (c *commandContext) logger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logPath := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
	logger, err := logging.New(logging.Options{
		Level:            cfg.Logging.Level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stderr", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// withStore opens the database for the duration of fn.
func (c *commandContext) withStore(fn func(*store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.logger()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg, store.WithLogger(logger))
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

// currentUser resolves the acting user from --user or RCJK_USER.
func (c *commandContext) currentUser(ctx context.Context, st *store.Store) (*store.User, error) {
	username := ""
	if c.userFlag != nil {
		username = strings.TrimSpace(*c.userFlag)
	}
	if username == "" {
		username = strings.TrimSpace(os.Getenv("RCJK_USER"))
	}
	if username == "" {
		return nil, errors.New("no acting user: pass --user or set RCJK_USER")
	}
	return st.GetUserByUsername(ctx, username)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
