package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"rcjk/internal/naming"
	"rcjk/internal/services"
)

const fontColumns = "id, project_id, name, slug, fontlib, features, designspace, available, export_enabled, export_running, export_started_at, export_completed_at, created_at, updated_at, updated_by, editors_history"

func scanFont(scanner rowScanner) (*Font, error) {
	var (
		f          Font
		available  int
		enabled    int
		running    int
		started    sql.NullString
		completed  sql.NullString
		createdRaw string
		updatedRaw string
		updatedBy  sql.NullInt64
		editors    string
	)
	if err := scanner.Scan(
		&f.ID, &f.ProjectID, &f.Name, &f.Slug, &f.FontLib, &f.Features, &f.Designspace,
		&available, &enabled, &running, &started, &completed,
		&createdRaw, &updatedRaw, &updatedBy, &editors,
	); err != nil {
		return nil, err
	}
	f.Available = available != 0
	f.ExportEnabled = enabled != 0
	f.ExportRunning = running != 0
	f.ExportStartedAt = timeFromNull(started)
	f.ExportCompletedAt = timeFromNull(completed)
	f.CreatedAt, _ = parseTimeString(createdRaw)
	f.UpdatedAt, _ = parseTimeString(updatedRaw)
	f.UpdatedBy = idFromNull(updatedBy)
	f.Editors = decodeEditors(editors)
	return &f, nil
}

// CreateFont inserts a font into a project together with its empty glyphs
// composition.
func (s *Store) CreateFont(ctx context.Context, projectID int64, name string, user *User) (*Font, error) {
	name = strings.TrimSpace(name)
	slug := naming.Slugify(name)
	if slug == "" {
		return nil, &services.ValidationError{Field: "name", Message: "must contain at least one letter or digit"}
	}
	f := &Font{ProjectID: projectID, Name: name, Slug: slug, FontLib: "{}", Designspace: "{}", Available: true}
	f.ExportEnabled = true
	f.touch(user, s.timestamp())
	editors, err := encodeEditors(f.Editors)
	if err != nil {
		return nil, fmt.Errorf("encode editors: %w", err)
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO fonts (project_id, name, slug, fontlib, features, designspace, available, export_enabled,
                created_at, updated_at, updated_by, editors_history)
             VALUES (?, ?, ?, ?, ?, ?, 1, 1, ?, ?, ?, ?)`,
			f.ProjectID, f.Name, f.Slug, f.FontLib, f.Features, f.Designspace,
			formatTime(f.CreatedAt), formatTime(f.UpdatedAt), nullableID(f.UpdatedBy), editors,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return &services.DuplicateNameError{Kind: "font", Name: name, Scope: fmt.Sprintf("project %d", projectID)}
			}
			if strings.Contains(err.Error(), "FOREIGN KEY") {
				return notFound("project", fmt.Sprint(projectID))
			}
			return fmt.Errorf("insert font: %w", err)
		}
		if f.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO glyphs_compositions (font_id, data, created_at, updated_at, updated_by) VALUES (?, '{}', ?, ?, ?)`,
			f.ID, formatTime(f.CreatedAt), formatTime(f.UpdatedAt), nullableID(f.UpdatedBy),
		)
		if err != nil {
			return fmt.Errorf("insert glyphs composition: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// GetFont fetches a font by id.
func (s *Store) GetFont(ctx context.Context, id int64) (*Font, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+fontColumns+` FROM fonts WHERE id = ?`, id)
	f, err := scanFont(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("font", fmt.Sprint(id))
	}
	if err != nil {
		return nil, fmt.Errorf("get font: %w", err)
	}
	return f, nil
}

// ListFonts returns the fonts of a project ordered by id. A zero projectID
// lists every font.
func (s *Store) ListFonts(ctx context.Context, projectID int64) ([]*Font, error) {
	query := `SELECT ` + fontColumns + ` FROM fonts`
	var args []any
	if projectID != 0 {
		query += ` WHERE project_id = ?`
		args = append(args, projectID)
	}
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list fonts: %w", err)
	}
	defer rows.Close()

	var fonts []*Font
	for rows.Next() {
		f, err := scanFont(rows)
		if err != nil {
			return nil, err
		}
		fonts = append(fonts, f)
	}
	return fonts, rows.Err()
}

// FontSources carries optional replacements for a font's opaque documents.
type FontSources struct {
	FontLib     *string
	Features    *string
	Designspace *string
}

// UpdateFontSources replaces the provided documents and records user as editor.
func (s *Store) UpdateFontSources(ctx context.Context, id int64, sources FontSources, user *User) (*Font, error) {
	f, err := s.GetFont(ctx, id)
	if err != nil {
		return nil, err
	}
	if sources.FontLib != nil {
		f.FontLib = *sources.FontLib
	}
	if sources.Features != nil {
		f.Features = *sources.Features
	}
	if sources.Designspace != nil {
		f.Designspace = *sources.Designspace
	}
	f.touch(user, s.timestamp())
	editors, err := encodeEditors(f.Editors)
	if err != nil {
		return nil, fmt.Errorf("encode editors: %w", err)
	}
	if _, err := s.execWithRetry(ctx,
		`UPDATE fonts SET fontlib = ?, features = ?, designspace = ?, updated_at = ?, updated_by = ?, editors_history = ?
         WHERE id = ?`,
		f.FontLib, f.Features, f.Designspace, formatTime(f.UpdatedAt), nullableID(f.UpdatedBy), editors, f.ID,
	); err != nil {
		return nil, fmt.Errorf("update font: %w", err)
	}
	return f, nil
}

// SetFontAvailable flips the font's availability flag without touching its
// edit bookkeeping.
func (s *Store) SetFontAvailable(ctx context.Context, id int64, available bool) error {
	res, err := s.execWithRetry(ctx, `UPDATE fonts SET available = ? WHERE id = ?`, boolToInt(available), id)
	if err != nil {
		return fmt.Errorf("update font availability: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("font", fmt.Sprint(id))
	}
	return nil
}

// SetFontExportEnabled toggles whether exports write the font.
func (s *Store) SetFontExportEnabled(ctx context.Context, id int64, enabled bool) error {
	res, err := s.execWithRetry(ctx, `UPDATE fonts SET export_enabled = ? WHERE id = ?`, boolToInt(enabled), id)
	if err != nil {
		return fmt.Errorf("update font export flag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("font", fmt.Sprint(id))
	}
	return nil
}

// DeleteFont removes a font and, through foreign keys, everything it owns.
func (s *Store) DeleteFont(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(ctx, `DELETE FROM fonts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete font: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("font", fmt.Sprint(id))
	}
	return nil
}

// GetComposition returns the glyphs composition of a font.
func (s *Store) GetComposition(ctx context.Context, fontID int64) (*GlyphsComposition, error) {
	var (
		c          GlyphsComposition
		createdRaw string
		updatedRaw string
		updatedBy  sql.NullInt64
		editors    string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, font_id, data, created_at, updated_at, updated_by, editors_history FROM glyphs_compositions WHERE font_id = ?`,
		fontID,
	).Scan(&c.ID, &c.FontID, &c.Data, &createdRaw, &updatedRaw, &updatedBy, &editors)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("glyphs composition", fmt.Sprint(fontID))
	}
	if err != nil {
		return nil, fmt.Errorf("get glyphs composition: %w", err)
	}
	c.CreatedAt, _ = parseTimeString(createdRaw)
	c.UpdatedAt, _ = parseTimeString(updatedRaw)
	c.UpdatedBy = idFromNull(updatedBy)
	c.Editors = decodeEditors(editors)
	return &c, nil
}

// SaveComposition replaces the composition document of a font.
func (s *Store) SaveComposition(ctx context.Context, fontID int64, data string, user *User) (*GlyphsComposition, error) {
	c, err := s.GetComposition(ctx, fontID)
	if err != nil {
		return nil, err
	}
	c.Data = data
	c.touch(user, s.timestamp())
	editors, err := encodeEditors(c.Editors)
	if err != nil {
		return nil, fmt.Errorf("encode editors: %w", err)
	}
	if _, err := s.execWithRetry(ctx,
		`UPDATE glyphs_compositions SET data = ?, updated_at = ?, updated_by = ?, editors_history = ? WHERE id = ?`,
		c.Data, formatTime(c.UpdatedAt), nullableID(c.UpdatedBy), editors, c.ID,
	); err != nil {
		return nil, fmt.Errorf("update glyphs composition: %w", err)
	}
	return c, nil
}
