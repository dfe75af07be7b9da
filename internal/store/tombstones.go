package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"rcjk/internal/glif"
	"rcjk/internal/naming"
)

const tombstoneColumns = "id, glif_type, glif_id, font_id, name, group_name, filename, filepath, deleted_at, deleted_by"

func glifTombstone(g *Glif, user *User, now time.Time) *DeletedGlif {
	return &DeletedGlif{
		GlifType:  g.Kind,
		GlifID:    g.ID,
		FontID:    g.FontID,
		Name:      g.Name,
		Filename:  g.Filename,
		Filepath:  naming.GlifPath(g.Kind.LeafDir(), "", g.Filename),
		DeletedAt: now,
		DeletedBy: userID(user),
	}
}

func layerTombstone(l *Layer, fontID int64, user *User, now time.Time) *DeletedGlif {
	return &DeletedGlif{
		GlifType:  l.Kind,
		GlifID:    l.ID,
		FontID:    fontID,
		Name:      l.Name,
		GroupName: l.GroupName,
		Filename:  l.Filename,
		Filepath:  naming.GlifPath(l.Kind.LeafDir(), l.GroupName, l.Filename),
		DeletedAt: now,
		DeletedBy: userID(user),
	}
}

func insertTombstone(ctx context.Context, q queryer, t *DeletedGlif) (*DeletedGlif, error) {
	res, err := q.ExecContext(ctx,
		`INSERT INTO deleted_glifs (glif_type, glif_id, font_id, name, group_name, filename, filepath, deleted_at, deleted_by)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(t.GlifType), t.GlifID, t.FontID, t.Name, t.GroupName, t.Filename, t.Filepath,
		formatTime(t.DeletedAt), nullableID(t.DeletedBy),
	)
	if err != nil {
		return nil, fmt.Errorf("insert tombstone: %w", err)
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return t, nil
}

func scanTombstone(scanner rowScanner) (*DeletedGlif, error) {
	var (
		t          DeletedGlif
		kind       string
		deletedRaw string
		deletedBy  sql.NullInt64
	)
	if err := scanner.Scan(&t.ID, &kind, &t.GlifID, &t.FontID, &t.Name, &t.GroupName, &t.Filename, &t.Filepath,
		&deletedRaw, &deletedBy); err != nil {
		return nil, err
	}
	t.GlifType = glif.Kind(kind)
	t.DeletedAt, _ = parseTimeString(deletedRaw)
	t.DeletedBy = idFromNull(deletedBy)
	return &t, nil
}

// ListTombstones returns the tombstones of a font deleted strictly after
// since, oldest first. A nil since returns all of them.
func (s *Store) ListTombstones(ctx context.Context, fontID int64, since *time.Time) ([]*DeletedGlif, error) {
	query := `SELECT ` + tombstoneColumns + ` FROM deleted_glifs WHERE font_id = ?`
	args := []any{fontID}
	if since != nil {
		query += ` AND deleted_at > ?`
		args = append(args, formatTime(*since))
	}
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY deleted_at, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list tombstones: %w", err)
	}
	defer rows.Close()
	var out []*DeletedGlif
	for rows.Next() {
		t, err := scanTombstone(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
