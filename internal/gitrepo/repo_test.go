package gitrepo_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rcjk/internal/gitrepo"
	"rcjk/internal/services"
	"rcjk/internal/testsupport"
)

type scriptedRunner struct {
	calls   [][]string
	results map[string]gitrepo.Result
}

// subcommand skips the leading -c pairs.
func subcommand(args []string) []string {
	for len(args) >= 2 && args[0] == "-c" {
		args = args[2:]
	}
	return args
}

func (r *scriptedRunner) Run(_ context.Context, _ string, _ string, args ...string) (gitrepo.Result, error) {
	sub := subcommand(args)
	r.calls = append(r.calls, sub)
	if res, ok := r.results[sub[0]]; ok {
		return res, nil
	}
	return gitrepo.Result{}, nil
}

func TestCommitNothingToCommitIsBenign(t *testing.T) {
	runner := &scriptedRunner{results: map[string]gitrepo.Result{
		"commit": {ExitCode: 1, Output: "nothing to commit, working tree clean"},
	}}
	repo := gitrepo.New(t.TempDir(), gitrepo.Options{Runner: runner})
	committed, err := repo.Commit(context.Background(), "Updated Font.")
	if err != nil {
		t.Fatalf("Commit returned error: %v", err)
	}
	if committed {
		t.Fatal("expected no commit")
	}
}

func TestCommitFailureCarriesOutput(t *testing.T) {
	runner := &scriptedRunner{results: map[string]gitrepo.Result{
		"commit": {ExitCode: 128, Output: "fatal: unable to write index"},
	}}
	repo := gitrepo.New(t.TempDir(), gitrepo.Options{Runner: runner})
	_, err := repo.Commit(context.Background(), "Updated Font.")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if !strings.Contains(err.Error(), "unable to write index") {
		t.Fatalf("error should include git output: %v", err)
	}
}

func TestEnsureInitializesWithoutRemoteBranch(t *testing.T) {
	runner := &scriptedRunner{results: map[string]gitrepo.Result{
		"ls-remote": {ExitCode: 2},
		"rev-parse": {ExitCode: 1},
	}}
	dir := filepath.Join(t.TempDir(), "project")
	repo := gitrepo.New(dir, gitrepo.Options{RemoteURL: "https://example.invalid/p.git", Branch: "main", Runner: runner})
	if err := repo.Ensure(context.Background()); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	var got []string
	for _, call := range runner.calls {
		got = append(got, call[0])
	}
	want := []string{"init", "remote", "ls-remote", "rev-parse", "symbolic-ref", "clean"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("unexpected git sequence %v", got)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("expected working tree directory: %v", err)
	}
}

func TestRepoAgainstBareRemote(t *testing.T) {
	testsupport.RequireGit(t)
	ctx := context.Background()
	base := t.TempDir()
	remote := filepath.Join(base, "remote.git")
	if res, err := (gitrepo.ExecRunner{}).Run(ctx, base, "git", "init", "--bare", "--quiet", remote); err != nil || res.ExitCode != 0 {
		t.Fatalf("init bare remote: %v %s", err, res.Output)
	}

	first := gitrepo.New(filepath.Join(base, "first"), gitrepo.Options{RemoteURL: remote})
	if err := first.Ensure(ctx); err != nil {
		t.Fatalf("Ensure new tree: %v", err)
	}
	testsupport.WriteFile(t, filepath.Join(first.Dir(), "font.rcjk", "fontLib.json"), "{}")
	if err := first.Add(ctx, "font.rcjk"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	committed, err := first.Commit(ctx, "Updated Font.")
	if err != nil || !committed {
		t.Fatalf("Commit = %v, %v", committed, err)
	}
	if committed, err := first.Commit(ctx, "Updated Font."); err != nil || committed {
		t.Fatalf("second Commit = %v, %v", committed, err)
	}
	if err := first.Push(ctx); err != nil {
		t.Fatalf("Push: %v", err)
	}

	second := gitrepo.New(filepath.Join(base, "second"), gitrepo.Options{RemoteURL: remote})
	if err := second.Ensure(ctx); err != nil {
		t.Fatalf("Ensure clone: %v", err)
	}
	if _, err := os.Stat(filepath.Join(second.Dir(), "font.rcjk", "fontLib.json")); err != nil {
		t.Fatalf("expected pushed file in second tree: %v", err)
	}
	_, subject, err := second.Head(ctx)
	if err != nil || subject != "Updated Font." {
		t.Fatalf("Head = %q, %v", subject, err)
	}

	testsupport.WriteFile(t, filepath.Join(first.Dir(), "stray.txt"), "x")
	if err := first.Ensure(ctx); err != nil {
		t.Fatalf("Ensure existing tree: %v", err)
	}
	if _, err := os.Stat(filepath.Join(first.Dir(), "stray.txt")); !os.IsNotExist(err) {
		t.Fatalf("expected untracked file cleaned, got %v", err)
	}
}
