package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// DatabaseFileName is the SQLite file created inside Paths.DataDir.
const DatabaseFileName = "rcjk.db"

// Paths contains directory configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	ReposDir string `toml:"repos_dir"`
	LogDir   string `toml:"log_dir"`
}

// Export controls the font export pipeline and its git publishing step.
type Export struct {
	PageSize           int    `toml:"page_size"`
	Workers            int    `toml:"workers"`
	Schedule           string `toml:"schedule"`
	FullSchedule       string `toml:"full_schedule"`
	Push               bool   `toml:"push"`
	GitBinary          string `toml:"git_binary"`
	AuthorName         string `toml:"author_name"`
	AuthorEmail        string `toml:"author_email"`
	OvercountTolerance int    `toml:"overcount_tolerance"`
}

// Locks controls stale editing-lock cleanup.
type Locks struct {
	StaleAfterHours int    `toml:"stale_after_hours"`
	SweepSchedule   string `toml:"sweep_schedule"`
}

// Glyphs contains glif handling switches.
type Glyphs struct {
	// WarnMissingComponents logs component references that resolve to no
	// stored glif while relations are rebuilt.
	WarnMissingComponents bool `toml:"warn_missing_components"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for rcjk.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Export  Export  `toml:"export"`
	Locks   Locks   `toml:"locks"`
	Glyphs  Glyphs  `toml:"glyphs"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strings.TrimSpace(strict.String()))
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	localPath, err := filepath.Abs("rcjk.toml")
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{defaultPath, localPath} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
	}
	return defaultPath, false, nil
}

// DatabasePath returns the SQLite file location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, DatabaseFileName)
}

// EnsureDirectories creates the data, repository, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.ReposDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DaemonLockPath is the single-instance lock file used by the daemon.
func (c *Config) DaemonLockPath() string {
	return filepath.Join(c.Paths.DataDir, "rcjk.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		switch {
		case pathValue == "~":
			pathValue = home
		case len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\'):
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
