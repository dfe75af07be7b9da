package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"

	"rcjk/internal/fileutil"
	"rcjk/internal/glif"
	"rcjk/internal/logging"
	"rcjk/internal/naming"
)

// maxLoggedPaths caps the paths listed in a single log record.
const maxLoggedPaths = 20

// Verdict classifies a per-category count comparison.
type Verdict string

const (
	VerdictMatch      Verdict = "match"
	VerdictOvercount  Verdict = "overcount"
	VerdictUndercount Verdict = "undercount"
	// VerdictTolerated is a small over-count presumed to come from edits made
	// while the export ran.
	VerdictTolerated Verdict = "tolerated"
)

// CategoryCount compares database rows with files on disk for one category:
// the flat glifs of a leaf directory or the layers under it.
type CategoryCount struct {
	Category string
	Expected int
	Found    int
	Verdict  Verdict
}

// Verification is the outcome of comparing a font directory with the database.
type Verification struct {
	Expected int
	Found    int
	// Zombies are files found on disk with no database row; they are deleted.
	Zombies []string
	// Missing are database rows whose file was not found; they are reported only.
	Missing []string
	Counts  []CategoryCount
}

// verify recomputes the full expected path set of the font, deletes zombie
// files, logs missing files, and compares per-category counts.
func (p *Pipeline) verify(ctx context.Context, logger *slog.Logger, fontID int64, dir string) (Verification, error) {
	var v Verification
	var expected []string
	for _, kind := range glif.ExportOrder {
		paths, err := p.store.ExportPaths(ctx, kind, fontID, p.pageSize)
		if err != nil {
			return v, fmt.Errorf("expected paths %s: %w", kind, err)
		}
		expected = append(expected, paths...)
	}

	files, err := fileutil.SearchFiles(dir, "*"+naming.GlifExtension)
	if err != nil {
		return v, err
	}
	found := make([]string, 0, len(files))
	for _, file := range files {
		rel, err := filepath.Rel(dir, file)
		if err != nil {
			return v, fmt.Errorf("relative path of %s: %w", file, err)
		}
		found = append(found, rel)
	}
	v.Expected, v.Found = len(expected), len(found)
	v.Missing, v.Zombies = lo.Difference(expected, found)
	sort.Strings(v.Missing)
	sort.Strings(v.Zombies)
	v.Counts = p.compareCounts(logger, expected, found)

	var errs []error
	for _, rel := range v.Zombies {
		if err := fileutil.RemoveFile(filepath.Join(dir, rel)); err != nil {
			errs = append(errs, err)
		}
	}
	if len(v.Zombies) > 0 {
		logger.Info("zombie files removed",
			logging.String(logging.FieldEventType, "export_zombies_removed"),
			logging.Int("count", len(v.Zombies)),
			logging.Any("paths", lo.Subset(v.Zombies, 0, maxLoggedPaths)),
		)
	}
	if len(v.Missing) > 0 {
		logging.ErrorWithContext(logger, "expected glif files missing after export", "export_missing_files",
			logging.Int("count", len(v.Missing)),
			logging.Any("paths", lo.Subset(v.Missing, 0, maxLoggedPaths)),
			logging.String(logging.FieldErrorHint, "run a full export to rewrite the font"),
			logging.String(logging.FieldImpact, "the repository lacks files for stored glifs"),
		)
	}
	return v, errors.Join(errs...)
}

func (p *Pipeline) compareCounts(logger *slog.Logger, expected, found []string) []CategoryCount {
	want := lo.CountValuesBy(expected, category)
	have := lo.CountValuesBy(found, category)
	categories := lo.Union(lo.Keys(want), lo.Keys(have))
	sort.Strings(categories)

	counts := make([]CategoryCount, 0, len(categories))
	for _, name := range categories {
		c := CategoryCount{Category: name, Expected: want[name], Found: have[name]}
		attrs := []logging.Attr{
			logging.String("category", name),
			logging.Int("expected", c.Expected),
			logging.Int("found", c.Found),
		}
		switch over := c.Found - c.Expected; {
		case over == 0:
			c.Verdict = VerdictMatch
			logger.Debug("export count matches", logging.Args(attrs...)...)
		case over < 0:
			c.Verdict = VerdictUndercount
			logging.ErrorWithContext(logger, "fewer files than database rows", "export_undercount", attrs...)
		case over < p.tolerance:
			c.Verdict = VerdictTolerated
			logger.Info("more files than database rows, presumed concurrent edits", logging.Args(attrs...)...)
		default:
			c.Verdict = VerdictOvercount
			logging.ErrorWithContext(logger, "more files than database rows", "export_overcount", attrs...)
		}
		counts = append(counts, c)
	}
	return counts
}

// category groups a font-relative path: "characterGlyph" for flat glifs and
// "characterGlyph/layers" for files one level deeper.
func category(rel string) string {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	switch len(parts) {
	case 2:
		return parts[0]
	case 3:
		return parts[0] + "/layers"
	default:
		return "other"
	}
}
