package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rcjk/internal/testsupport"
)

type cliEnv struct {
	configPath string
	baseDir    string
}

func setupCLI(t *testing.T) *cliEnv {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf("[paths]\ndata_dir = %q\nrepos_dir = %q\nlog_dir = %q\n\n[export]\npush = false\nschedule = \"\"\nfull_schedule = \"\"\n",
		cfg.Paths.DataDir, cfg.Paths.ReposDir, cfg.Paths.LogDir)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("RCJK_USER", "")
	return &cliEnv{configPath: configPath, baseDir: base}
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("rcjk %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestCLIGlifLifecycle(t *testing.T) {
	env := setupCLI(t)

	env.mustRun(t, "user", "add", "alice", "--first", "Alice", "--last", "Tester")
	if out := env.mustRun(t, "-u", "alice", "project", "add", "Test Project", "--repo", "https://example.invalid/p.git"); !strings.Contains(out, "id 1") {
		t.Fatalf("unexpected project output: %q", out)
	}
	env.mustRun(t, "-u", "alice", "font", "add", "1", "Hanzi Sans")

	glifPath := filepath.Join(env.baseDir, "line.glif")
	testsupport.WriteFile(t, glifPath, testsupport.GlifXML(testsupport.Glif{Name: "line", Outline: true}))

	out := env.mustRun(t, "-u", "alice", "glif", "put", "--kind", "ae", "--font", "1", glifPath)
	if !strings.HasPrefix(out, "Created") {
		t.Fatalf("expected create, got %q", out)
	}
	out = env.mustRun(t, "-u", "alice", "glif", "put", "--kind", "ae", "--font", "1", "--ignore-lock", glifPath)
	if !strings.HasPrefix(out, "Updated") {
		t.Fatalf("expected update, got %q", out)
	}

	env.mustRun(t, "-u", "alice", "lock", "--kind", "ae", "--font", "1", "line")

	out = env.mustRun(t, "glif", "list", "--kind", "ae", "--font", "1", "--json")
	var listed []struct {
		Name     string `json:"name"`
		IsLocked bool   `json:"isLocked"`
	}
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("decode list: %v\n%s", err, out)
	}
	if len(listed) != 1 || listed[0].Name != "line" || !listed[0].IsLocked {
		t.Fatalf("unexpected list: %+v", listed)
	}

	env.mustRun(t, "-u", "alice", "unlock", "--kind", "ae", "--font", "1", "line")
	out = env.mustRun(t, "locks", "sweep")
	if !strings.Contains(out, "Released 0 locks") {
		t.Fatalf("unexpected sweep output: %q", out)
	}
}

func TestCLIRequiresActingUser(t *testing.T) {
	env := setupCLI(t)
	env.mustRun(t, "user", "add", "alice")

	_, err := env.run(t, "project", "add", "Nameless")
	if err == nil || !strings.Contains(err.Error(), "no acting user") {
		t.Fatalf("expected acting user error, got %v", err)
	}
}

func TestCLIRejectsLayerKindForGlifCommands(t *testing.T) {
	env := setupCLI(t)
	_, err := env.run(t, "glif", "list", "--kind", "ael", "--font", "1")
	if err == nil || !strings.Contains(err.Error(), "layer kind") {
		t.Fatalf("expected layer kind error, got %v", err)
	}
}

func TestCLIUserListJSON(t *testing.T) {
	env := setupCLI(t)
	env.mustRun(t, "user", "add", "alice", "--first", "Alice")
	env.mustRun(t, "user", "add", "bob")
	env.mustRun(t, "user", "deactivate", "bob")

	out := env.mustRun(t, "user", "list", "--json")
	var users []struct {
		Username string `json:"username"`
		Active   bool   `json:"active"`
	}
	if err := json.Unmarshal([]byte(out), &users); err != nil {
		t.Fatalf("decode users: %v\n%s", err, out)
	}
	active := map[string]bool{}
	for _, u := range users {
		active[u.Username] = u.Active
	}
	if !active["alice"] || active["bob"] {
		t.Fatalf("unexpected activity: %+v", users)
	}
}

func TestCLIExportWithoutProjectsSucceeds(t *testing.T) {
	env := setupCLI(t)
	if _, err := env.run(t, "export"); err != nil {
		t.Fatalf("export: %v", err)
	}
}

func TestEnsureCurrentLogPointer(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "rcjk-1.log")
	testsupport.WriteFile(t, target, "one\n")
	if err := ensureCurrentLogPointer(dir, target); err != nil {
		t.Fatalf("pointer: %v", err)
	}
	next := filepath.Join(dir, "rcjk-2.log")
	testsupport.WriteFile(t, next, "two\n")
	if err := ensureCurrentLogPointer(dir, next); err != nil {
		t.Fatalf("repoint: %v", err)
	}
	if got := testsupport.ReadFile(t, filepath.Join(dir, "daemon.log")); got != "two\n" {
		t.Fatalf("pointer resolves to %q", got)
	}
}
