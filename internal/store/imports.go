package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const importColumns = "id, font_id, archive_path, status, logs, created_at, updated_at, updated_by"

func scanImport(scanner rowScanner) (*FontImport, error) {
	var (
		job        FontImport
		status     string
		createdRaw string
		updatedRaw string
		updatedBy  sql.NullInt64
	)
	if err := scanner.Scan(&job.ID, &job.FontID, &job.ArchivePath, &status, &job.Logs, &createdRaw, &updatedRaw, &updatedBy); err != nil {
		return nil, err
	}
	job.Status = ImportStatus(status)
	job.CreatedAt, _ = parseTimeString(createdRaw)
	job.UpdatedAt, _ = parseTimeString(updatedRaw)
	job.UpdatedBy = idFromNull(updatedBy)
	return &job, nil
}

// CreateFontImport records a waiting import job for an uploaded archive.
func (s *Store) CreateFontImport(ctx context.Context, fontID int64, archivePath string, user *User) (*FontImport, error) {
	now := formatTime(s.timestamp())
	res, err := s.execWithRetry(ctx,
		`INSERT INTO font_imports (font_id, archive_path, status, logs, created_at, updated_at, updated_by)
         VALUES (?, ?, ?, '', ?, ?, ?)`,
		fontID, archivePath, string(ImportWaiting), now, now, nullableID(userID(user)),
	)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY") {
			return nil, notFound("font", fmt.Sprint(fontID))
		}
		return nil, fmt.Errorf("insert font import: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetFontImport(ctx, id)
}

// GetFontImport fetches an import job by id.
func (s *Store) GetFontImport(ctx context.Context, id int64) (*FontImport, error) {
	job, err := scanImport(s.db.QueryRowContext(ctx, `SELECT `+importColumns+` FROM font_imports WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("font import", fmt.Sprint(id))
	}
	if err != nil {
		return nil, fmt.Errorf("get font import: %w", err)
	}
	return job, nil
}

// ListFontImports returns the import jobs of a font, newest first.
func (s *Store) ListFontImports(ctx context.Context, fontID int64) ([]*FontImport, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+importColumns+` FROM font_imports WHERE font_id = ? ORDER BY id DESC`, fontID)
	if err != nil {
		return nil, fmt.Errorf("list font imports: %w", err)
	}
	defer rows.Close()
	var out []*FontImport
	for rows.Next() {
		job, err := scanImport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

// SetImportStatus moves an import job to status.
func (s *Store) SetImportStatus(ctx context.Context, id int64, status ImportStatus) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE font_imports SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), formatTime(s.timestamp()), id)
	if err != nil {
		return fmt.Errorf("update font import: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("font import", fmt.Sprint(id))
	}
	return nil
}

// AppendImportLog adds a line to the job's log.
func (s *Store) AppendImportLog(ctx context.Context, id int64, line string) error {
	line = strings.TrimRight(line, "\n")
	if _, err := s.execWithRetry(ctx,
		`UPDATE font_imports SET logs = logs || ? || char(10), updated_at = ? WHERE id = ?`,
		line, formatTime(s.timestamp()), id,
	); err != nil {
		return fmt.Errorf("append font import log: %w", err)
	}
	return nil
}
