package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"rcjk/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestRunAllReportsMissingGitAndDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = base
	cfg.Paths.ReposDir = filepath.Join(base, "repos")
	cfg.Paths.LogDir = base
	cfg.Export.GitBinary = "rcjk-missing-git"

	failed := Failed(RunAll(&cfg))
	if len(failed) != 2 {
		t.Fatalf("expected repos dir and git to fail, got %+v", failed)
	}
	if failed[0].Name != "Repositories directory" || failed[1].Name != "git" {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}

func TestRunAllNilConfig(t *testing.T) {
	if results := RunAll(nil); results != nil {
		t.Fatalf("expected no results, got %+v", results)
	}
}
