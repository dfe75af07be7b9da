package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeExport()
	c.normalizeLocks()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ReposDir) == "" {
		c.Paths.ReposDir = defaultReposDir
	}
	if c.Paths.ReposDir, err = expandPath(c.Paths.ReposDir); err != nil {
		return fmt.Errorf("paths.repos_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeExport() {
	if c.Export.PageSize == 0 {
		c.Export.PageSize = defaultExportPageSize
	}
	c.Export.Schedule = strings.TrimSpace(c.Export.Schedule)
	c.Export.FullSchedule = strings.TrimSpace(c.Export.FullSchedule)
	c.Export.GitBinary = strings.TrimSpace(c.Export.GitBinary)
	if c.Export.GitBinary == "" {
		c.Export.GitBinary = defaultGitBinary
	}
	c.Export.AuthorName = strings.TrimSpace(c.Export.AuthorName)
	if c.Export.AuthorName == "" {
		c.Export.AuthorName = envOr("GIT_AUTHOR_NAME", defaultAuthorName)
	}
	c.Export.AuthorEmail = strings.TrimSpace(c.Export.AuthorEmail)
	if c.Export.AuthorEmail == "" {
		c.Export.AuthorEmail = envOr("GIT_AUTHOR_EMAIL", defaultAuthorEmail)
	}
}

func (c *Config) normalizeLocks() {
	c.Locks.SweepSchedule = strings.TrimSpace(c.Locks.SweepSchedule)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// ExportWorkers resolves the writer pool size: the configured value, or one
// less than the CPU count, never below one.
func (c *Config) ExportWorkers() int {
	if c.Export.Workers > 0 {
		return c.Export.Workers
	}
	return max(runtime.NumCPU()-1, 1)
}

// StaleLockWindow is how long a lock may sit without edits before the sweep
// releases it.
func (c *Config) StaleLockWindow() time.Duration {
	return time.Duration(c.Locks.StaleAfterHours) * time.Hour
}

func envOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}
