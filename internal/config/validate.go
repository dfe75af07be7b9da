package config

import (
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
)

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateLocks(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.ReposDir == "" {
		return errors.New("paths.repos_dir must be set")
	}
	return nil
}

func (c *Config) validateExport() error {
	if c.Export.PageSize < 1 {
		return errors.New("export.page_size must be positive")
	}
	if c.Export.Workers < 0 {
		return errors.New("export.workers must be zero or positive")
	}
	if c.Export.OvercountTolerance < 0 {
		return errors.New("export.overcount_tolerance must be zero or positive")
	}
	if err := validateSchedule("export.schedule", c.Export.Schedule); err != nil {
		return err
	}
	return validateSchedule("export.full_schedule", c.Export.FullSchedule)
}

func (c *Config) validateLocks() error {
	if c.Locks.StaleAfterHours < 1 {
		return errors.New("locks.stale_after_hours must be positive")
	}
	return validateSchedule("locks.sweep_schedule", c.Locks.SweepSchedule)
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be zero or positive")
	}
	return nil
}

// ParseSchedule parses a five-field cron expression or descriptor such as
// "@hourly".
func ParseSchedule(spec string) (cron.Schedule, error) {
	return scheduleParser.Parse(spec)
}

// validateSchedule accepts an empty value, which disables the job.
func validateSchedule(field, spec string) error {
	if spec == "" {
		return nil
	}
	if _, err := ParseSchedule(spec); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}
