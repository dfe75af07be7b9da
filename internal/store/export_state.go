package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// exportTable names a table carrying the export_* columns.
type exportTable string

const (
	projectsTable exportTable = "projects"
	fontsTable    exportTable = "fonts"
)

func readExportState(ctx context.Context, q queryer, table exportTable, id int64) (ExportState, error) {
	var (
		state     ExportState
		enabled   int
		running   int
		started   sql.NullString
		completed sql.NullString
	)
	row := q.QueryRowContext(ctx,
		`SELECT export_enabled, export_running, export_started_at, export_completed_at FROM `+string(table)+` WHERE id = ?`, id)
	if err := row.Scan(&enabled, &running, &started, &completed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return state, notFound(string(table[:len(table)-1]), fmt.Sprint(id))
		}
		return state, fmt.Errorf("read export state: %w", err)
	}
	state.ExportEnabled = enabled != 0
	state.ExportRunning = running != 0
	state.ExportStartedAt = timeFromNull(started)
	state.ExportCompletedAt = timeFromNull(completed)
	return state, nil
}

// beginExport flips export_running from 0 to 1 and stamps export_started_at.
// It returns the window of the previous run as it was before stamping, and
// false when another export already holds the flag.
func (s *Store) beginExport(ctx context.Context, table exportTable, id int64) (ExportState, bool, error) {
	var (
		prior    ExportState
		acquired bool
	)
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		prior, err = readExportState(ctx, tx, table, id)
		if err != nil {
			return err
		}
		if prior.ExportRunning {
			return nil
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE `+string(table)+` SET export_running = 1, export_started_at = ? WHERE id = ? AND export_running = 0`,
			formatTime(s.timestamp()), id)
		if err != nil {
			return fmt.Errorf("mark export running: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		acquired = n == 1
		return nil
	})
	return prior, acquired, err
}

// finishExport clears export_running and stamps export_completed_at.
func (s *Store) finishExport(ctx context.Context, table exportTable, id int64) error {
	if _, err := s.execWithRetry(ctx,
		`UPDATE `+string(table)+` SET export_running = 0, export_completed_at = ? WHERE id = ?`,
		formatTime(s.timestamp()), id,
	); err != nil {
		return fmt.Errorf("clear export running: %w", err)
	}
	return nil
}

// BeginProjectExport acquires the project's single-flight export flag.
func (s *Store) BeginProjectExport(ctx context.Context, id int64) (ExportState, bool, error) {
	return s.beginExport(ctx, projectsTable, id)
}

// FinishProjectExport releases the project's export flag.
func (s *Store) FinishProjectExport(ctx context.Context, id int64) error {
	return s.finishExport(ctx, projectsTable, id)
}

// BeginFontExport acquires the font's export flag.
func (s *Store) BeginFontExport(ctx context.Context, id int64) (ExportState, bool, error) {
	return s.beginExport(ctx, fontsTable, id)
}

// FinishFontExport releases the font's export flag.
func (s *Store) FinishFontExport(ctx context.Context, id int64) error {
	return s.finishExport(ctx, fontsTable, id)
}

// ResetRunningExports clears export flags left set by a process that exited
// mid-export. It returns the number of rows reset.
func (s *Store) ResetRunningExports(ctx context.Context) (int64, error) {
	var total int64
	for _, table := range []exportTable{projectsTable, fontsTable} {
		res, err := s.execWithRetry(ctx, `UPDATE `+string(table)+` SET export_running = 0 WHERE export_running = 1`)
		if err != nil {
			return total, fmt.Errorf("reset %s export flags: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}
