package export

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"rcjk/internal/fileutil"
	"rcjk/internal/glif"
)

type writeTask struct {
	path    string
	content string
}

// writeKind pages through the rows of kind updated after since and writes
// each page through the worker pool before fetching the next. A failed page
// does not stop later pages.
func (p *Pipeline) writeKind(ctx context.Context, kind glif.Kind, fontID int64, dir string, since *time.Time) (int, error) {
	var (
		afterID int64
		written int
		errs    []error
	)
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		rows, err := p.store.ExportPage(ctx, kind, fontID, afterID, since, p.pageSize)
		if err != nil {
			return written, fmt.Errorf("read %s page: %w", kind, err)
		}
		if len(rows) == 0 {
			break
		}
		tasks := make([]writeTask, 0, len(rows))
		for _, row := range rows {
			tasks = append(tasks, writeTask{
				path:    filepath.Join(dir, row.Path()),
				content: glif.FormatOrRaw(row.Data),
			})
			afterID = row.ID
		}
		n, err := writeBatch(ctx, p.workers, tasks)
		written += n
		if err != nil {
			errs = append(errs, err)
		}
		if len(rows) < p.pageSize {
			break
		}
	}
	return written, errors.Join(errs...)
}

// writeBatch writes every task with at most workers concurrent writers and
// waits for all of them. It returns the number of files written and every
// failure joined.
func writeBatch(ctx context.Context, workers int, tasks []writeTask) (int, error) {
	if workers < 1 {
		workers = 1
	}
	errs := make([]error, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, task := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			if err := fileutil.WriteString(task.path, task.content); err != nil {
				errs[i] = fmt.Errorf("write %s: %w", task.path, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	written := 0
	for _, err := range errs {
		if err == nil {
			written++
		}
	}
	return written, errors.Join(errs...)
}
