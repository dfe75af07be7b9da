package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"rcjk/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.ReposDir = filepath.Join(base, "repos")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Export.Workers = 2
	cfgVal.Export.PageSize = 3
	cfgVal.Export.Push = false
	cfgVal.Export.AuthorName = "rcjk test"
	cfgVal.Export.AuthorEmail = "rcjk-test@localhost"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithPageSize overrides the export page size.
func WithPageSize(size int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Export.PageSize = size
	}
}

// WithPush toggles pushing after export commits.
func WithPush(push bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Export.Push = push
	}
}

// WithMissingComponentWarnings enables warnings for unresolved component names.
func WithMissingComponentWarnings() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Glyphs.WarnMissingComponents = true
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
