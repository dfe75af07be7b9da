package export

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"rcjk/internal/config"
	"rcjk/internal/gitrepo"
	"rcjk/internal/glif"
	"rcjk/internal/logging"
	"rcjk/internal/naming"
	"rcjk/internal/services"
	"rcjk/internal/store"
)

// Store is the persistence the pipeline reads and flags.
type Store interface {
	GetProject(ctx context.Context, id int64) (*store.Project, error)
	ListProjects(ctx context.Context) ([]*store.Project, error)
	ListFonts(ctx context.Context, projectID int64) ([]*store.Font, error)
	GetComposition(ctx context.Context, fontID int64) (*store.GlyphsComposition, error)
	BeginProjectExport(ctx context.Context, id int64) (store.ExportState, bool, error)
	FinishProjectExport(ctx context.Context, id int64) error
	BeginFontExport(ctx context.Context, id int64) (store.ExportState, bool, error)
	FinishFontExport(ctx context.Context, id int64) error
	ExportPage(ctx context.Context, kind glif.Kind, fontID, afterID int64, since *time.Time, limit int) ([]store.ExportRow, error)
	ExportPaths(ctx context.Context, kind glif.Kind, fontID int64, pageSize int) ([]string, error)
	ListTombstones(ctx context.Context, fontID int64, since *time.Time) ([]*store.DeletedGlif, error)
	UpdatersSince(ctx context.Context, fontID int64, cutoff time.Time) ([]*store.User, error)
}

// Repo is the git working tree of one project.
type Repo interface {
	Ensure(ctx context.Context) error
	Add(ctx context.Context, paths ...string) error
	Commit(ctx context.Context, message string) (bool, error)
	Push(ctx context.Context) error
}

// RepoFactory opens the working tree for a project rooted at dir.
type RepoFactory func(dir string, project *store.Project) Repo

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithRepoFactory overrides how project working trees are opened.
func WithRepoFactory(factory RepoFactory) Option {
	return func(p *Pipeline) {
		if factory != nil {
			p.repos = factory
		}
	}
}

// WithClock overrides the time source used for commit-message lookbacks.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// Pipeline runs exports.
type Pipeline struct {
	store    Store
	reposDir string
	pageSize int
	workers  int
	push     bool
	// tolerance is the largest on-disk over-count treated as concurrent edits.
	tolerance int

	repos  RepoFactory
	base   *slog.Logger
	logger *slog.Logger
	now    func() time.Time
}

// New builds a Pipeline from configuration.
func New(cfg *config.Config, st Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:     st,
		reposDir:  cfg.Paths.ReposDir,
		pageSize:  cfg.Export.PageSize,
		workers:   cfg.ExportWorkers(),
		push:      cfg.Export.Push,
		tolerance: cfg.Export.OvercountTolerance,
		logger:    logging.NewNop(),
		now:       time.Now,
	}
	if p.pageSize <= 0 {
		p.pageSize = config.Default().Export.PageSize
	}
	p.repos = func(dir string, project *store.Project) Repo {
		return gitrepo.New(dir, gitrepo.Options{
			Binary:      cfg.Export.GitBinary,
			RemoteURL:   project.RepoURL,
			Branch:      project.RepoBranch,
			AuthorName:  cfg.Export.AuthorName,
			AuthorEmail: cfg.Export.AuthorEmail,
			Logger:      p.base,
		})
	}
	for _, opt := range opts {
		opt(p)
	}
	p.base = p.logger
	p.logger = logging.NewComponentLogger(p.base, "export")
	return p
}

// Request selects what a run exports. A zero ProjectID exports every project.
type Request struct {
	ProjectID int64
	Full      bool
}

// Run exports the requested projects. Per-project and per-font failures are
// reported in the returned Report; the error is reserved for failures to
// enumerate projects.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Report, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	report := &Report{RunID: runID, Full: req.Full, StartedAt: p.now()}
	logger := logging.WithContext(ctx, p.logger)

	var projects []*store.Project
	if req.ProjectID != 0 {
		project, err := p.store.GetProject(ctx, req.ProjectID)
		if err != nil {
			return nil, err
		}
		projects = []*store.Project{project}
	} else {
		all, err := p.store.ListProjects(ctx)
		if err != nil {
			return nil, fmt.Errorf("list projects: %w", err)
		}
		projects = all
	}

	logger.Info("export run started",
		logging.String(logging.FieldEventType, "export_start"),
		logging.Bool("full", req.Full),
		logging.Int("projects", len(projects)),
	)
	for _, project := range projects {
		report.Projects = append(report.Projects, p.exportProject(ctx, project, req.Full))
	}
	report.FinishedAt = p.now()
	logger.Info("export run finished",
		logging.String(logging.FieldEventType, "export_finish"),
		logging.Int("failed_projects", report.FailedProjects()),
		logging.Duration("duration", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, nil
}

// ProjectDir returns the working tree directory of project.
func (p *Pipeline) ProjectDir(project *store.Project) string {
	return filepath.Join(p.reposDir, naming.ProjectDirName(project.Slug))
}
