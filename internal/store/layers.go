package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"rcjk/internal/glif"
	"rcjk/internal/services"
)

const layerColumns = "id, glif_id, group_name, data, name, filename, unicode_hex, components, is_empty, has_outlines, has_components, has_unicode, has_variation_axis, created_at, updated_at, updated_by"

func layerTableFor(kind glif.Kind) (string, error) {
	if !kind.IsLayer() {
		return "", &services.ValidationError{Field: "kind", Message: fmt.Sprintf("%s is not a layer kind", kind.Label())}
	}
	return tableFor(kind)
}

func scanLayer(scanner rowScanner, kind glif.Kind) (*Layer, error) {
	var (
		l             Layer
		isEmpty       int
		hasOutlines   int
		hasComponents int
		hasUnicode    int
		hasVariation  int
		createdRaw    string
		updatedRaw    string
		updatedBy     sql.NullInt64
	)
	if err := scanner.Scan(
		&l.ID, &l.GlifID, &l.GroupName, &l.Data, &l.Name, &l.Filename, &l.UnicodeHex, &l.Components,
		&isEmpty, &hasOutlines, &hasComponents, &hasUnicode, &hasVariation,
		&createdRaw, &updatedRaw, &updatedBy,
	); err != nil {
		return nil, err
	}
	l.Kind = kind
	l.IsEmpty = isEmpty != 0
	l.HasOutlines = hasOutlines != 0
	l.HasComponents = hasComponents != 0
	l.HasUnicode = hasUnicode != 0
	l.HasVariationAxis = hasVariation != 0
	l.CreatedAt, _ = parseTimeString(createdRaw)
	l.UpdatedAt, _ = parseTimeString(updatedRaw)
	l.UpdatedBy = idFromNull(updatedBy)
	return &l, nil
}

// GetLayer fetches a layer by kind and id.
func (s *Store) GetLayer(ctx context.Context, kind glif.Kind, id int64) (*Layer, error) {
	return getLayer(ctx, s.db, kind, id)
}

func getLayer(ctx context.Context, q queryer, kind glif.Kind, id int64) (*Layer, error) {
	table, err := layerTableFor(kind)
	if err != nil {
		return nil, err
	}
	l, err := scanLayer(q.QueryRowContext(ctx, `SELECT `+layerColumns+` FROM `+table+` WHERE id = ?`, id), kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(kind.Label(), fmt.Sprint(id))
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", kind, err)
	}
	return l, nil
}

// FindLayer fetches a layer by parent, group name and glyph name.
func (s *Store) FindLayer(ctx context.Context, kind glif.Kind, glifID int64, groupName, name string) (*Layer, error) {
	table, err := layerTableFor(kind)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+layerColumns+` FROM `+table+` WHERE glif_id = ? AND group_name = ? AND name = ?`, glifID, groupName, name)
	l, err := scanLayer(row, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(kind.Label(), groupName+"/"+name)
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", kind, err)
	}
	return l, nil
}

// ListLayers returns the layers of a glif ordered by group and name.
func (s *Store) ListLayers(ctx context.Context, kind glif.Kind, glifID int64) ([]*Layer, error) {
	return listLayers(ctx, s.db, kind, glifID)
}

func listLayers(ctx context.Context, q queryer, kind glif.Kind, glifID int64) ([]*Layer, error) {
	table, err := layerTableFor(kind)
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx,
		`SELECT `+layerColumns+` FROM `+table+` WHERE glif_id = ? ORDER BY group_name, name`, glifID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()
	var out []*Layer
	for rows.Next() {
		l, err := scanLayer(rows, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// SaveLayer derives the layer's fields from its data and writes it. The
// parent's layers_updated_at is stamped in the same transaction.
func (s *Store) SaveLayer(ctx context.Context, l *Layer, user *User) error {
	if l == nil {
		return errors.New("layer is nil")
	}
	table, err := layerTableFor(l.Kind)
	if err != nil {
		return err
	}
	if strings.TrimSpace(l.GroupName) == "" {
		return &services.ValidationError{Field: "group_name", Message: "must not be empty"}
	}
	parsed := glif.Parse(l.Data)
	if !parsed.OK() {
		return parsed.Err()
	}

	now := s.timestamp()
	work := *l
	work.Fields = parsed.Fields()
	if work.CreatedAt.IsZero() {
		work.CreatedAt = now
	}
	work.UpdatedAt = now
	if id := userID(user); id != nil {
		work.UpdatedBy = id
	}

	values := []any{
		work.GroupName, work.Data, work.Name, work.Filename, work.UnicodeHex, work.Components,
		boolToInt(work.IsEmpty), boolToInt(work.HasOutlines), boolToInt(work.HasComponents),
		boolToInt(work.HasUnicode), boolToInt(work.HasVariationAxis),
		formatTime(work.UpdatedAt), nullableID(work.UpdatedBy),
	}
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		work.ID = l.ID
		var res sql.Result
		var err error
		if work.ID == 0 {
			res, err = tx.ExecContext(ctx,
				`INSERT INTO `+table+` (group_name, data, name, filename, unicode_hex, components,
                    is_empty, has_outlines, has_components, has_unicode, has_variation_axis,
                    updated_at, updated_by, glif_id, created_at)
                 VALUES (`+makePlaceholders(len(values)+2)+`)`,
				append(values, work.GlifID, formatTime(work.CreatedAt))...,
			)
		} else {
			res, err = tx.ExecContext(ctx,
				`UPDATE `+table+` SET group_name = ?, data = ?, name = ?, filename = ?, unicode_hex = ?, components = ?,
                    is_empty = ?, has_outlines = ?, has_components = ?, has_unicode = ?, has_variation_axis = ?,
                    updated_at = ?, updated_by = ?
                 WHERE id = ?`,
				append(values, work.ID)...,
			)
		}
		if err != nil {
			switch {
			case isUniqueViolation(err):
				return &services.DuplicateNameError{
					Kind:  work.Kind.Label(),
					Name:  work.GroupName + "/" + work.Name,
					Scope: fmt.Sprintf("%s %d", work.Kind.Parent().Label(), work.GlifID),
				}
			case strings.Contains(err.Error(), "FOREIGN KEY"):
				return notFound(work.Kind.Parent().Label(), fmt.Sprint(work.GlifID))
			}
			return fmt.Errorf("save %s: %w", work.Kind, err)
		}
		if work.ID == 0 {
			if work.ID, err = res.LastInsertId(); err != nil {
				return fmt.Errorf("last insert id: %w", err)
			}
		} else if n, _ := res.RowsAffected(); n == 0 {
			return notFound(work.Kind.Label(), fmt.Sprint(work.ID))
		}
		return stampLayersUpdated(ctx, tx, work.Kind.Parent(), work.GlifID, now)
	})
	if err != nil {
		return err
	}
	*l = work
	return nil
}

// DeleteLayer removes a layer after writing its tombstone.
func (s *Store) DeleteLayer(ctx context.Context, kind glif.Kind, id int64, user *User) (*DeletedGlif, error) {
	table, err := layerTableFor(kind)
	if err != nil {
		return nil, err
	}
	parentTable, err := tableFor(kind.Parent())
	if err != nil {
		return nil, err
	}
	var tombstone *DeletedGlif
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		l, err := getLayer(ctx, tx, kind, id)
		if err != nil {
			return err
		}
		var fontID int64
		if err := tx.QueryRowContext(ctx, `SELECT font_id FROM `+parentTable+` WHERE id = ?`, l.GlifID).Scan(&fontID); err != nil {
			return fmt.Errorf("resolve layer font: %w", err)
		}
		now := s.timestamp()
		if tombstone, err = insertTombstone(ctx, tx, layerTombstone(l, fontID, user, now)); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, l.ID); err != nil {
			return fmt.Errorf("delete %s: %w", kind, err)
		}
		return stampLayersUpdated(ctx, tx, kind.Parent(), l.GlifID, now)
	})
	if err != nil {
		return nil, err
	}
	return tombstone, nil
}

func stampLayersUpdated(ctx context.Context, q queryer, parent glif.Kind, glifID int64, now time.Time) error {
	table, err := tableFor(parent)
	if err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx, `UPDATE `+table+` SET layers_updated_at = ? WHERE id = ?`, formatTime(now), glifID); err != nil {
		return fmt.Errorf("stamp layers_updated_at: %w", err)
	}
	return nil
}
