package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"rcjk/internal/fileutil"
	"rcjk/internal/logging"
	"rcjk/internal/naming"
	"rcjk/internal/services"
	"rcjk/internal/store"
)

// exportProject saves every font of project into its working tree, committing
// and pushing each saved font on its own, then removes directories of deleted
// fonts and records a final project-wide commit.
func (p *Pipeline) exportProject(ctx context.Context, project *store.Project, full bool) ProjectResult {
	ctx = services.WithProject(ctx, project.Slug)
	logger := logging.WithContext(ctx, p.logger)
	result := ProjectResult{ID: project.ID, Slug: project.Slug}

	if !project.ExportEnabled {
		result.Skipped = "export disabled"
		logger.Info("project skipped",
			logging.String(logging.FieldEventType, "project_skipped"),
			logging.String("reason", result.Skipped),
		)
		return result
	}

	_, acquired, err := p.store.BeginProjectExport(ctx, project.ID)
	if err != nil {
		result.Err = fmt.Errorf("begin project export: %w", err)
		return result
	}
	if !acquired {
		result.Err = services.Wrap(services.ErrBusy, "export", "export project", "project export already running", nil)
		logging.WarnWithContext(logger, "project export already running", "project_export_busy",
			logging.String(logging.FieldImpact, "project skipped for this run"),
		)
		return result
	}
	defer func() {
		if err := p.store.FinishProjectExport(context.WithoutCancel(ctx), project.ID); err != nil {
			logging.ErrorWithContext(logger, "failed to clear project export flag", "project_export_flag",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run rcjk export again or restart the daemon"),
			)
		}
	}()

	result.Err = p.runProject(ctx, logger, project, full, &result)
	if result.Err != nil {
		logging.ErrorWithContext(logger, "project export aborted", "project_export_failed",
			logging.Error(result.Err),
			logging.String(logging.FieldImpact, "remaining fonts were not committed"),
		)
	}
	return result
}

func (p *Pipeline) runProject(ctx context.Context, logger *slog.Logger, project *store.Project, full bool, result *ProjectResult) error {
	dir := p.ProjectDir(project)
	if err := fileutil.EnsureDir(dir); err != nil {
		return err
	}
	repo := p.repos(dir, project)
	if err := repo.Ensure(ctx); err != nil {
		return fmt.Errorf("prepare working tree: %w", err)
	}

	fonts, err := p.store.ListFonts(ctx, project.ID)
	if err != nil {
		return fmt.Errorf("list fonts: %w", err)
	}
	for _, font := range fonts {
		if !font.ExportEnabled {
			result.Fonts = append(result.Fonts, FontResult{ID: font.ID, Name: font.Name, Skipped: "export disabled"})
			continue
		}
		fontResult, prior := p.SaveFont(ctx, dir, font, full)
		if fontResult.Saved() {
			err := p.commitFont(ctx, repo, font, prior, &fontResult)
			result.Fonts = append(result.Fonts, fontResult)
			if err != nil {
				return err
			}
			continue
		}
		result.Fonts = append(result.Fonts, fontResult)
	}

	orphans, err := removeOrphanFonts(dir, fonts)
	if err != nil {
		return err
	}
	if len(orphans) > 0 {
		logger.Info("deleted font directories removed",
			logging.String(logging.FieldEventType, "export_orphans_removed"),
			logging.Any("dirs", orphans),
		)
	}

	if err := repo.Add(ctx); err != nil {
		return err
	}
	committed, err := repo.Commit(ctx, ProjectCommitMessage)
	if err != nil {
		return err
	}
	result.Committed = committed
	return p.pushIfEnabled(ctx, repo)
}

// commitFont stages only the font directory and commits it with a message
// naming the recent editors.
func (p *Pipeline) commitFont(ctx context.Context, repo Repo, font *store.Font, prior store.ExportState, result *FontResult) error {
	message, err := CommitMessage(ctx, p.store, font, prior, p.now())
	if err != nil {
		return err
	}
	result.Message = message
	if err := repo.Add(ctx, filepath.Base(result.Dir)); err != nil {
		result.Err = err
		return err
	}
	committed, err := repo.Commit(ctx, message)
	if err != nil {
		result.Err = err
		return err
	}
	result.Committed = committed
	if err := p.pushIfEnabled(ctx, repo); err != nil {
		result.Err = err
		return err
	}
	return nil
}

func (p *Pipeline) pushIfEnabled(ctx context.Context, repo Repo) error {
	if !p.push {
		return nil
	}
	return repo.Push(ctx)
}

// removeOrphanFonts deletes font directories in projectDir that no longer
// belong to a stored font and returns their names.
func removeOrphanFonts(projectDir string, fonts []*store.Font) ([]string, error) {
	entries, err := os.ReadDir(projectDir)
	if err != nil {
		return nil, fmt.Errorf("read project dir: %w", err)
	}
	live := lo.SliceToMap(fonts, func(f *store.Font) (string, struct{}) {
		return naming.FontDirName(f.Slug), struct{}{}
	})
	var removed []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || !strings.HasSuffix(name, naming.FontDirSuffix) {
			continue
		}
		if _, ok := live[name]; ok {
			continue
		}
		if err := fileutil.RemoveDirs(filepath.Join(projectDir, name)); err != nil {
			return removed, err
		}
		removed = append(removed, name)
	}
	return removed, nil
}
