package gitrepo

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"rcjk/internal/fileutil"
	"rcjk/internal/logging"
	"rcjk/internal/services"
)

const remoteName = "origin"

// Options configure a Repo.
type Options struct {
	Binary      string
	RemoteURL   string
	Branch      string
	AuthorName  string
	AuthorEmail string
	Runner      Runner
	Logger      *slog.Logger
}

// Repo is a git working tree rooted at Dir.
type Repo struct {
	dir    string
	opts   Options
	runner Runner
	logger *slog.Logger
}

// New returns a Repo for dir. The tree is not touched until Ensure.
func New(dir string, opts Options) *Repo {
	if strings.TrimSpace(opts.Binary) == "" {
		opts.Binary = "git"
	}
	if strings.TrimSpace(opts.Branch) == "" {
		opts.Branch = "master"
	}
	if strings.TrimSpace(opts.AuthorName) == "" {
		opts.AuthorName = "rcjk"
	}
	if strings.TrimSpace(opts.AuthorEmail) == "" {
		opts.AuthorEmail = "rcjk@localhost"
	}
	runner := opts.Runner
	if runner == nil {
		runner = ExecRunner{Env: []string{"GIT_TERMINAL_PROMPT=0"}}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Repo{
		dir:    dir,
		opts:   opts,
		runner: runner,
		logger: logging.NewComponentLogger(logger, "git"),
	}
}

// Dir returns the working tree root.
func (r *Repo) Dir() string { return r.dir }

// Branch returns the branch commits are made on.
func (r *Repo) Branch() string { return r.opts.Branch }

// Ensure prepares the working tree: a missing tree is initialized with the
// remote, an existing one is reset to its last commit. The configured branch
// is then checked out, brought up to date with the remote when the remote
// has it, and untracked files are removed.
func (r *Repo) Ensure(ctx context.Context) error {
	if !fileutil.Exists(filepath.Join(r.dir, ".git")) {
		if err := fileutil.EnsureDir(r.dir); err != nil {
			return err
		}
		if _, err := r.run(ctx, "init", "--quiet"); err != nil {
			return err
		}
		if r.opts.RemoteURL != "" {
			if _, err := r.run(ctx, "remote", "add", remoteName, r.opts.RemoteURL); err != nil {
				return err
			}
		}
	} else if r.hasRef(ctx, "HEAD") {
		if _, err := r.run(ctx, "reset", "--hard", "--quiet"); err != nil {
			return err
		}
	}

	remoteHas, err := r.remoteHasBranch(ctx)
	if err != nil {
		return err
	}
	if remoteHas {
		if _, err := r.run(ctx, "fetch", "--quiet", remoteName, r.opts.Branch); err != nil {
			return err
		}
	}

	local := "refs/heads/" + r.opts.Branch
	switch {
	case r.hasRef(ctx, local):
		if _, err := r.run(ctx, "checkout", "--quiet", r.opts.Branch); err != nil {
			return err
		}
		if remoteHas {
			if _, err := r.run(ctx, "pull", "--quiet", "--no-rebase", "--no-edit", remoteName, r.opts.Branch); err != nil {
				return err
			}
		}
	case remoteHas:
		if _, err := r.run(ctx, "checkout", "--quiet", "-B", r.opts.Branch, "FETCH_HEAD"); err != nil {
			return err
		}
	default:
		if _, err := r.run(ctx, "symbolic-ref", "HEAD", local); err != nil {
			return err
		}
	}

	if _, err := r.run(ctx, "clean", "-fd", "--quiet"); err != nil {
		return err
	}
	return nil
}

// Add stages every change under paths, deletions included. Paths are relative
// to the tree root; none stages the whole tree.
func (r *Repo) Add(ctx context.Context, paths ...string) error {
	args := []string{"add", "--all", "--"}
	if len(paths) == 0 {
		args = append(args, ".")
	}
	_, err := r.run(ctx, append(args, paths...)...)
	return err
}

// Commit records the staged changes. It returns false without error when
// there was nothing to commit.
func (r *Repo) Commit(ctx context.Context, message string) (bool, error) {
	args := []string{"commit", "--quiet", "-m", message}
	res, err := r.exec(ctx, args...)
	if err != nil {
		return false, err
	}
	switch res.ExitCode {
	case 0:
		r.logger.Info("git commit created", logging.String(logging.FieldEventType, "git_commit"), logging.String("message", message))
		return true, nil
	case 1:
		r.logger.Debug("nothing to commit", logging.String("message", message))
		return false, nil
	default:
		return false, r.failure(args, res)
	}
}

// Push publishes the branch to the remote. Without a remote it does nothing.
func (r *Repo) Push(ctx context.Context) error {
	if r.opts.RemoteURL == "" {
		return nil
	}
	_, err := r.run(ctx, "push", "--quiet", remoteName, "HEAD:refs/heads/"+r.opts.Branch)
	return err
}

// Head returns the commit id and subject of HEAD.
func (r *Repo) Head(ctx context.Context) (string, string, error) {
	out, err := r.run(ctx, "log", "-1", "--format=%H%n%s")
	if err != nil {
		return "", "", err
	}
	hash, subject, _ := strings.Cut(strings.TrimSpace(out), "\n")
	return hash, subject, nil
}

func (r *Repo) remoteHasBranch(ctx context.Context) (bool, error) {
	if r.opts.RemoteURL == "" {
		return false, nil
	}
	args := []string{"ls-remote", "--exit-code", "--heads", remoteName, r.opts.Branch}
	res, err := r.exec(ctx, args...)
	if err != nil {
		return false, err
	}
	switch res.ExitCode {
	case 0:
		return strings.TrimSpace(res.Output) != "", nil
	case 2:
		return false, nil
	default:
		return false, r.failure(args, res)
	}
}

func (r *Repo) hasRef(ctx context.Context, ref string) bool {
	res, err := r.exec(ctx, "rev-parse", "--verify", "--quiet", ref)
	return err == nil && res.ExitCode == 0
}

// run executes git and treats any non-zero exit as a failure.
func (r *Repo) run(ctx context.Context, args ...string) (string, error) {
	res, err := r.exec(ctx, args...)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return res.Output, r.failure(args, res)
	}
	return res.Output, nil
}

// exec runs git in the tree with the configured commit identity.
func (r *Repo) exec(ctx context.Context, args ...string) (Result, error) {
	r.logger.Debug("running git", logging.String("dir", r.dir), logging.Any("args", args))
	full := append([]string{
		"-c", "user.name=" + r.opts.AuthorName,
		"-c", "user.email=" + r.opts.AuthorEmail,
		"-c", "commit.gpgsign=false",
	}, args...)
	res, err := r.runner.Run(ctx, r.dir, r.opts.Binary, full...)
	if err != nil {
		return res, services.Wrap(services.ErrExternalTool, "git", strings.Join(args, " "), "start command", err)
	}
	return res, nil
}

func (r *Repo) failure(args []string, res Result) error {
	return services.Wrap(
		services.ErrExternalTool,
		"git",
		strings.Join(args, " "),
		fmt.Sprintf("exit status %d: %s", res.ExitCode, strings.TrimSpace(res.Output)),
		nil,
	)
}
