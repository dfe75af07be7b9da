package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rcjk/internal/glif"
	"rcjk/internal/naming"
)

// ExportRow is the projection of a glif or layer written by export.
type ExportRow struct {
	ID        int64
	Kind      glif.Kind
	GroupName string
	Filename  string
	Data      string
	UpdatedAt time.Time
}

// Path returns the row's file path relative to the font directory.
func (r ExportRow) Path() string {
	return naming.GlifPath(r.Kind.LeafDir(), r.GroupName, r.Filename)
}

// exportSelect builds the query for rows of kind in one font. Layers are
// joined to their parent to filter by font. Arguments bind in order: font id,
// then the id cursor when paged, then since, then the page size when paged.
func exportSelect(kind glif.Kind, columns string, since *time.Time, paged bool) (string, error) {
	table, err := tableFor(kind)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if kind.IsLayer() {
		parent, err := tableFor(kind.Parent())
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, `SELECT %s FROM %s r JOIN %s p ON p.id = r.glif_id WHERE p.font_id = ?`, columns, table, parent)
	} else {
		fmt.Fprintf(&b, `SELECT %s FROM %s r WHERE r.font_id = ?`, columns, table)
	}
	if paged {
		b.WriteString(` AND r.id > ?`)
	}
	if since != nil {
		b.WriteString(` AND r.updated_at > ?`)
	}
	if paged {
		b.WriteString(` ORDER BY r.id LIMIT ?`)
	}
	return b.String(), nil
}

func groupColumn(kind glif.Kind) string {
	if kind.IsLayer() {
		return "r.group_name"
	}
	return "''"
}

// ExportPage returns up to limit rows of kind in fontID with id > afterID,
// ordered by id. A non-nil since keeps only rows updated after it. Paging by
// id stays stable while rows are written concurrently.
func (s *Store) ExportPage(ctx context.Context, kind glif.Kind, fontID, afterID int64, since *time.Time, limit int) ([]ExportRow, error) {
	columns := "r.id, " + groupColumn(kind) + ", r.filename, r.data, r.updated_at"
	query, err := exportSelect(kind, columns, since, true)
	if err != nil {
		return nil, err
	}
	args := []any{fontID, afterID}
	if since != nil {
		args = append(args, formatTime(*since))
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("export page %s: %w", kind, err)
	}
	defer rows.Close()

	out := make([]ExportRow, 0, limit)
	for rows.Next() {
		row := ExportRow{Kind: kind}
		var updatedRaw string
		if err := rows.Scan(&row.ID, &row.GroupName, &row.Filename, &row.Data, &updatedRaw); err != nil {
			return nil, err
		}
		row.UpdatedAt, _ = parseTimeString(updatedRaw)
		out = append(out, row)
	}
	return out, rows.Err()
}

// ExportPaths returns the font-relative path of every row of kind in fontID.
func (s *Store) ExportPaths(ctx context.Context, kind glif.Kind, fontID int64, pageSize int) ([]string, error) {
	columns := "r.id, " + groupColumn(kind) + ", r.filename"
	query, err := exportSelect(kind, columns, nil, true)
	if err != nil {
		return nil, err
	}
	var (
		paths   []string
		afterID int64
	)
	for {
		rows, err := s.db.QueryContext(ctx, query, fontID, afterID, pageSize)
		if err != nil {
			return nil, fmt.Errorf("export paths %s: %w", kind, err)
		}
		count := 0
		for rows.Next() {
			row := ExportRow{Kind: kind}
			if err := rows.Scan(&row.ID, &row.GroupName, &row.Filename); err != nil {
				rows.Close()
				return nil, err
			}
			paths = append(paths, row.Path())
			afterID = row.ID
			count++
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
		if count < pageSize {
			return paths, nil
		}
	}
}

// UpdatersSince returns the distinct users who updated the font, its glyphs
// composition, or any of its glifs and layers after cutoff.
func (s *Store) UpdatersSince(ctx context.Context, fontID int64, cutoff time.Time) ([]*User, error) {
	stamp := formatTime(cutoff)
	subqueries := []string{
		`SELECT updated_by FROM fonts WHERE id = ? AND updated_at > ?`,
		`SELECT updated_by FROM glyphs_compositions WHERE font_id = ? AND updated_at > ?`,
	}
	args := []any{fontID, stamp, fontID, stamp}
	for _, kind := range glif.ExportOrder {
		query, err := exportSelect(kind, "r.updated_by", &cutoff, false)
		if err != nil {
			return nil, err
		}
		subqueries = append(subqueries, query)
		args = append(args, fontID, stamp)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id IN (`+strings.Join(subqueries, " UNION ")+`) ORDER BY username`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("font updaters: %w", err)
	}
	defer rows.Close()
	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
