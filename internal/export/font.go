package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"rcjk/internal/fileutil"
	"rcjk/internal/glif"
	"rcjk/internal/logging"
	"rcjk/internal/naming"
	"rcjk/internal/services"
	"rcjk/internal/store"
)

// Font-level documents written next to the leaf directories.
const (
	FontLibFile           = "fontLib.json"
	FeaturesFile          = "features.fea"
	DesignspaceFile       = "designspace.json"
	GlyphsCompositionFile = "glyphsComposition.json"
)

// FontDir returns the directory of font inside projectDir.
func FontDir(projectDir string, font *store.Font) string {
	return filepath.Join(projectDir, naming.FontDirName(font.Slug))
}

// SaveFont writes one font to the file system under projectDir. It holds the
// font's export flag for the duration and returns the export window of the
// previous run alongside the result. An unavailable font is skipped without
// touching its export window.
func (p *Pipeline) SaveFont(ctx context.Context, projectDir string, font *store.Font, full bool) (FontResult, store.ExportState) {
	ctx = services.WithFont(ctx, font.Name)
	logger := logging.WithContext(ctx, p.logger)
	result := FontResult{ID: font.ID, Name: font.Name, Dir: FontDir(projectDir, font)}

	if !font.Available {
		result.Skipped = "font unavailable"
		logger.Info("font skipped",
			logging.String(logging.FieldEventType, "font_skipped"),
			logging.String("reason", "font is not available, an import may be running"),
		)
		return result, font.ExportState
	}

	prior, acquired, err := p.store.BeginFontExport(ctx, font.ID)
	if err != nil {
		result.Err = fmt.Errorf("begin font export: %w", err)
		return result, prior
	}
	if !acquired {
		result.Err = services.Wrap(services.ErrBusy, "export", "save font", "font export already running", nil)
		logging.WarnWithContext(logger, "font export already running", "font_export_busy",
			logging.String(logging.FieldImpact, "font skipped for this run"),
		)
		return result, prior
	}
	defer func() {
		if err := p.store.FinishFontExport(context.WithoutCancel(ctx), font.ID); err != nil {
			logging.ErrorWithContext(logger, "failed to clear font export flag", "font_export_flag",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run rcjk export again or restart the daemon"),
			)
		}
	}()

	start := p.now()
	result.Err = p.saveFont(ctx, logger, font, prior, full, &result)
	if result.Err != nil {
		logging.ErrorWithContext(logger, "font export failed", "font_export_failed",
			logging.Error(result.Err),
			logging.String(logging.FieldImpact, "font changes are not committed this run"),
		)
	}
	logger.Info("font saved",
		logging.String(logging.FieldEventType, "font_saved"),
		logging.Int("written", result.Written),
		logging.Int("removed", result.Removed),
		logging.Int("zombies", len(result.Verify.Zombies)),
		logging.Int("missing", len(result.Verify.Missing)),
		logging.Duration("duration", p.now().Sub(start)),
	)
	return result, prior
}

func (p *Pipeline) saveFont(ctx context.Context, logger *slog.Logger, font *store.Font, prior store.ExportState, full bool, result *FontResult) error {
	dir := result.Dir
	if err := fileutil.EnsureDir(dir); err != nil {
		return err
	}
	comp, err := p.store.GetComposition(ctx, font.ID)
	if err != nil {
		return err
	}
	documents := map[string]string{
		FontLibFile:           font.FontLib,
		FeaturesFile:          font.Features,
		DesignspaceFile:       font.Designspace,
		GlyphsCompositionFile: comp.Data,
	}
	for name, content := range documents {
		if err := fileutil.WriteString(filepath.Join(dir, name), content); err != nil {
			return err
		}
	}

	var since *time.Time
	if full {
		leaves := make([]string, 0, len(glif.LeafDirs))
		for _, leaf := range glif.LeafDirs {
			leaves = append(leaves, filepath.Join(dir, leaf))
		}
		if err := fileutil.RemoveDirs(leaves...); err != nil {
			return err
		}
	} else {
		since = incrementalCutoff(prior)
		removed, err := p.removeTombstoned(ctx, font.ID, dir, since)
		result.Removed = removed
		if err != nil {
			return err
		}
	}
	for _, leaf := range glif.LeafDirs {
		if err := fileutil.EnsureDir(filepath.Join(dir, leaf)); err != nil {
			return err
		}
	}

	var writeErrs []error
	for _, kind := range glif.ExportOrder {
		written, err := p.writeKind(ctx, kind, font.ID, dir, since)
		result.Written += written
		if err != nil {
			logging.ErrorWithContext(logger, "glif batch write failed", "export_write_failed",
				logging.String(logging.FieldKind, string(kind)),
				logging.Error(err),
				logging.String(logging.FieldImpact, "some files may be missing until the next export"),
			)
			writeErrs = append(writeErrs, err)
		}
	}

	verification, err := p.verify(ctx, logger, font.ID, dir)
	result.Verify = verification
	if err != nil {
		writeErrs = append(writeErrs, err)
	}
	return errors.Join(writeErrs...)
}

// incrementalCutoff is the earlier bound of the previous export window, or
// nil when the font has never been exported.
func incrementalCutoff(prior store.ExportState) *time.Time {
	started, completed := prior.ExportStartedAt, prior.ExportCompletedAt
	switch {
	case started != nil && completed != nil:
		if completed.Before(*started) {
			return completed
		}
		return started
	case started != nil:
		return started
	default:
		return completed
	}
}

// removeTombstoned deletes the files of glifs and layers deleted after since.
func (p *Pipeline) removeTombstoned(ctx context.Context, fontID int64, dir string, since *time.Time) (int, error) {
	tombstones, err := p.store.ListTombstones(ctx, fontID, since)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, t := range tombstones {
		path := filepath.Join(dir, t.Filepath)
		if !fileutil.Exists(path) {
			continue
		}
		if err := fileutil.RemoveFile(path); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
