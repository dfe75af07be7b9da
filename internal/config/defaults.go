package config

const (
	defaultConfigPath         = "~/.config/rcjk/config.toml"
	defaultDataDir            = "~/.local/share/rcjk"
	defaultReposDir           = "~/.local/share/rcjk/repos"
	defaultLogDir             = "~/.local/share/rcjk/logs"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 30
	defaultExportPageSize     = 500
	defaultExportSchedule     = "*/30 * * * *"
	defaultFullExportSchedule = "0 3 * * *"
	defaultGitBinary          = "git"
	defaultAuthorName         = "rcjk"
	defaultAuthorEmail        = "rcjk@localhost"
	defaultOvercountTolerance = 50
	defaultStaleLockHours     = 48
	defaultSweepSchedule      = "0 * * * *"
)

// Default returns a Config populated with defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			ReposDir: defaultReposDir,
			LogDir:   defaultLogDir,
		},
		Export: Export{
			PageSize:           defaultExportPageSize,
			Schedule:           defaultExportSchedule,
			FullSchedule:       defaultFullExportSchedule,
			Push:               true,
			GitBinary:          defaultGitBinary,
			OvercountTolerance: defaultOvercountTolerance,
		},
		Locks: Locks{
			StaleAfterHours: defaultStaleLockHours,
			SweepSchedule:   defaultSweepSchedule,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
