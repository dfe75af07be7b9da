// Package sweep force-releases editing locks left behind by editors who
// stopped working on a glif.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/samber/lo"

	"rcjk/internal/glif"
	"rcjk/internal/logging"
	"rcjk/internal/store"
)

// DefaultWindow is how long a lock may sit without edits before it is swept.
const DefaultWindow = 48 * time.Hour

// Store is the lock persistence the sweep uses.
type Store interface {
	ListStaleLocks(ctx context.Context, kind glif.Kind, cutoff time.Time) ([]*store.Glif, error)
	Unlock(ctx context.Context, kind glif.Kind, id int64, user *store.User, force bool) (*store.Glif, error)
}

// Group lists the glifs of one kind in one font whose locks were released.
type Group struct {
	FontID int64
	Kind   glif.Kind
	IDs    []int64
	Names  []string
	Err    error
}

// Report is the outcome of one sweep.
type Report struct {
	Cutoff time.Time
	Groups []Group
}

// Released counts the locks released across all groups.
func (r Report) Released() int {
	return lo.SumBy(r.Groups, func(g Group) int { return len(g.IDs) })
}

// Err joins the failures of every group.
func (r Report) Err() error {
	return errors.Join(lo.FilterMap(r.Groups, func(g Group, _ int) (error, bool) {
		return g.Err, g.Err != nil
	})...)
}

// Sweeper releases stale locks.
type Sweeper struct {
	store  Store
	window time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// New constructs a Sweeper. A non-positive window selects DefaultWindow.
func New(st Store, window time.Duration, logger *slog.Logger) *Sweeper {
	if window <= 0 {
		window = DefaultWindow
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Sweeper{store: st, window: window, now: time.Now, logger: logging.NewComponentLogger(logger, "sweep")}
}

// WithClock overrides the sweep time source.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	if now != nil {
		s.now = now
	}
	return s
}

// Run releases every lock whose glif was neither edited nor locked within the
// window. A failure for one font and kind does not stop the others.
func (s *Sweeper) Run(ctx context.Context) Report {
	report := Report{Cutoff: s.now().Add(-s.window)}
	for _, kind := range glif.GlifKinds {
		stale, err := s.store.ListStaleLocks(ctx, kind, report.Cutoff)
		if err != nil {
			report.Groups = append(report.Groups, Group{Kind: kind, Err: fmt.Errorf("list stale %s locks: %w", kind, err)})
			logging.ErrorWithContext(s.logger, "stale lock query failed", "lock_sweep_failed",
				logging.String(logging.FieldKind, string(kind)),
				logging.Error(err),
			)
			continue
		}
		byFont := lo.GroupBy(stale, func(g *store.Glif) int64 { return g.FontID })
		fonts := lo.Keys(byFont)
		sort.Slice(fonts, func(i, j int) bool { return fonts[i] < fonts[j] })
		for _, fontID := range fonts {
			report.Groups = append(report.Groups, s.release(ctx, kind, fontID, byFont[fontID]))
		}
	}
	s.logger.Info("stale lock sweep finished",
		logging.String(logging.FieldEventType, "lock_sweep"),
		logging.Int("released", report.Released()),
		logging.String("cutoff", report.Cutoff.UTC().Format(time.RFC3339)),
	)
	return report
}

func (s *Sweeper) release(ctx context.Context, kind glif.Kind, fontID int64, glifs []*store.Glif) Group {
	group := Group{FontID: fontID, Kind: kind}
	var errs []error
	for _, g := range glifs {
		if _, err := s.store.Unlock(ctx, kind, g.ID, nil, true); err != nil {
			errs = append(errs, fmt.Errorf("unlock %s %d: %w", kind, g.ID, err))
			continue
		}
		group.IDs = append(group.IDs, g.ID)
		group.Names = append(group.Names, g.Name)
	}
	group.Err = errors.Join(errs...)
	if len(group.IDs) > 0 {
		s.logger.Info("stale locks released",
			logging.String(logging.FieldEventType, "lock_sweep_released"),
			logging.Int64("font_id", fontID),
			logging.String(logging.FieldKind, string(kind)),
			logging.Any("ids", group.IDs),
		)
	}
	if group.Err != nil {
		logging.WarnWithContext(s.logger, "some stale locks could not be released", "lock_sweep_partial",
			logging.Int64("font_id", fontID),
			logging.String(logging.FieldKind, string(kind)),
			logging.Error(group.Err),
			logging.String(logging.FieldImpact, "those glifs stay locked until the next sweep"),
		)
	}
	return group
}
