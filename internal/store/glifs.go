package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"rcjk/internal/glif"
	"rcjk/internal/logging"
	"rcjk/internal/services"
)

const glifColumns = "id, font_id, data, name, filename, unicode_hex, components, is_empty, has_outlines, has_components, has_unicode, has_variation_axis, status, previous_status, status_changed_at, status_downgraded, status_downgraded_at, is_locked, locked_by, locked_at, layers_updated_at, deleted, created_at, updated_at, updated_by, editors_history"

var glifTables = map[glif.Kind]string{
	glif.KindAtomicElement:       "atomic_elements",
	glif.KindDeepComponent:       "deep_components",
	glif.KindCharacterGlyph:      "character_glyphs",
	glif.KindAtomicElementLayer:  "atomic_element_layers",
	glif.KindCharacterGlyphLayer: "character_glyph_layers",
}

func tableFor(kind glif.Kind) (string, error) {
	table, ok := glifTables[kind]
	if !ok {
		return "", &services.ValidationError{Field: "kind", Message: fmt.Sprintf("unknown glif kind %q", kind)}
	}
	return table, nil
}

func glifTableFor(kind glif.Kind) (string, error) {
	if kind.IsLayer() {
		return "", &services.ValidationError{Field: "kind", Message: fmt.Sprintf("%s is a layer kind", kind.Label())}
	}
	return tableFor(kind)
}

func scanGlif(scanner rowScanner, kind glif.Kind) (*Glif, error) {
	var (
		g              Glif
		isEmpty        int
		hasOutlines    int
		hasComponents  int
		hasUnicode     int
		hasVariation   int
		status         string
		previousStatus string
		statusChanged  sql.NullString
		downgraded     int
		downgradedAt   sql.NullString
		isLocked       int
		lockedBy       sql.NullInt64
		lockedAt       sql.NullString
		layersUpdated  sql.NullString
		deleted        int
		createdRaw     string
		updatedRaw     string
		updatedBy      sql.NullInt64
		editors        string
	)
	if err := scanner.Scan(
		&g.ID, &g.FontID, &g.Data, &g.Name, &g.Filename, &g.UnicodeHex, &g.Components,
		&isEmpty, &hasOutlines, &hasComponents, &hasUnicode, &hasVariation,
		&status, &previousStatus, &statusChanged, &downgraded, &downgradedAt,
		&isLocked, &lockedBy, &lockedAt, &layersUpdated, &deleted,
		&createdRaw, &updatedRaw, &updatedBy, &editors,
	); err != nil {
		return nil, err
	}
	g.Kind = kind
	g.IsEmpty = isEmpty != 0
	g.HasOutlines = hasOutlines != 0
	g.HasComponents = hasComponents != 0
	g.HasUnicode = hasUnicode != 0
	g.HasVariationAxis = hasVariation != 0
	g.Status = glif.Status(status)
	g.PreviousStatus = glif.Status(previousStatus)
	g.StatusChangedAt = timeFromNull(statusChanged)
	g.StatusDowngraded = downgraded != 0
	g.StatusDowngradedAt = timeFromNull(downgradedAt)
	g.IsLocked = isLocked != 0
	g.LockedBy = idFromNull(lockedBy)
	g.LockedAt = timeFromNull(lockedAt)
	g.LayersUpdatedAt = timeFromNull(layersUpdated)
	g.Deleted = deleted != 0
	g.CreatedAt, _ = parseTimeString(createdRaw)
	g.UpdatedAt, _ = parseTimeString(updatedRaw)
	g.UpdatedBy = idFromNull(updatedBy)
	g.Editors = decodeEditors(editors)
	if parsed := glif.Parse(g.Data); parsed.OK() {
		g.prev = parsed
	}
	return &g, nil
}

// GetGlif fetches a glif by kind and id.
func (s *Store) GetGlif(ctx context.Context, kind glif.Kind, id int64) (*Glif, error) {
	return s.getGlif(ctx, s.db, kind, id)
}

func (s *Store) getGlif(ctx context.Context, q queryer, kind glif.Kind, id int64) (*Glif, error) {
	table, err := glifTableFor(kind)
	if err != nil {
		return nil, err
	}
	row := q.QueryRowContext(ctx, `SELECT `+glifColumns+` FROM `+table+` WHERE id = ?`, id)
	g, err := scanGlif(row, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(kind.Label(), fmt.Sprint(id))
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", kind, err)
	}
	return g, nil
}

// FindGlif fetches a glif by font and name.
func (s *Store) FindGlif(ctx context.Context, kind glif.Kind, fontID int64, name string) (*Glif, error) {
	table, err := glifTableFor(kind)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+glifColumns+` FROM `+table+` WHERE font_id = ? AND name = ?`, fontID, name)
	g, err := scanGlif(row, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(kind.Label(), name)
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", kind, err)
	}
	return g, nil
}

// GlifFilter narrows ListGlifs results. Zero values match everything.
type GlifFilter struct {
	Status     glif.Status
	LockedOnly bool
	NamePrefix string
}

// ListGlifs returns the glifs of a font ordered by name.
func (s *Store) ListGlifs(ctx context.Context, kind glif.Kind, fontID int64, filter GlifFilter) ([]*Glif, error) {
	table, err := glifTableFor(kind)
	if err != nil {
		return nil, err
	}
	clauses := []string{"font_id = ?"}
	args := []any{fontID}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.LockedOnly {
		clauses = append(clauses, "is_locked = 1")
	}
	if filter.NamePrefix != "" {
		clauses = append(clauses, "substr(name, 1, ?) = ?")
		args = append(args, len(filter.NamePrefix), filter.NamePrefix)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+glifColumns+` FROM `+table+` WHERE `+strings.Join(clauses, " AND ")+` ORDER BY name`, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()

	var out []*Glif
	for rows.Next() {
		g, err := scanGlif(rows, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// SaveGlif derives every indexed field from g.Data, updates workflow status,
// writes the row, and rebuilds composition relations, all in one transaction.
// On failure g is left unchanged and nothing is persisted. Lock fields are
// never written here.
func (s *Store) SaveGlif(ctx context.Context, g *Glif, user *User) error {
	if g == nil {
		return errors.New("glif is nil")
	}
	table, err := glifTableFor(g.Kind)
	if err != nil {
		return err
	}
	parsed := glif.Parse(g.Data)
	if !parsed.OK() {
		return parsed.Err()
	}

	now := s.timestamp()
	work := *g
	work.StatusState.Apply(g.prev, parsed, now)
	work.Fields = parsed.Fields()
	work.touch(user, now)
	editors, err := encodeEditors(work.Editors)
	if err != nil {
		return fmt.Errorf("encode editors: %w", err)
	}

	values := []any{
		work.Data, work.Name, work.Filename, work.UnicodeHex, work.Components,
		boolToInt(work.IsEmpty), boolToInt(work.HasOutlines), boolToInt(work.HasComponents),
		boolToInt(work.HasUnicode), boolToInt(work.HasVariationAxis),
		string(work.Status), string(work.PreviousStatus), nullableTime(work.StatusChangedAt),
		boolToInt(work.StatusDowngraded), nullableTime(work.StatusDowngradedAt),
		formatTime(work.UpdatedAt), nullableID(work.UpdatedBy), editors,
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		work.ID = g.ID
		if work.ID == 0 {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO `+table+` (data, name, filename, unicode_hex, components,
                    is_empty, has_outlines, has_components, has_unicode, has_variation_axis,
                    status, previous_status, status_changed_at, status_downgraded, status_downgraded_at,
                    updated_at, updated_by, editors_history, font_id, created_at)
                 VALUES (`+makePlaceholders(len(values)+2)+`)`,
				append(values, work.FontID, formatTime(work.CreatedAt))...,
			)
			if err != nil {
				return s.saveError(err, work.Kind, work.Name, work.FontID)
			}
			if work.ID, err = res.LastInsertId(); err != nil {
				return fmt.Errorf("last insert id: %w", err)
			}
		} else {
			res, err := tx.ExecContext(ctx,
				`UPDATE `+table+` SET data = ?, name = ?, filename = ?, unicode_hex = ?, components = ?,
                    is_empty = ?, has_outlines = ?, has_components = ?, has_unicode = ?, has_variation_axis = ?,
                    status = ?, previous_status = ?, status_changed_at = ?, status_downgraded = ?, status_downgraded_at = ?,
                    updated_at = ?, updated_by = ?, editors_history = ?
                 WHERE id = ?`,
				append(values, work.ID)...,
			)
			if err != nil {
				return s.saveError(err, work.Kind, work.Name, work.FontID)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return notFound(work.Kind.Label(), fmt.Sprint(work.ID))
			}
		}
		if parsed.HasComponents() {
			return s.rebuildRelations(ctx, tx, &work, parsed.ComponentsNames())
		}
		return nil
	})
	if err != nil {
		return err
	}

	work.prev = parsed
	*g = work
	return nil
}

func (s *Store) saveError(err error, kind glif.Kind, name string, fontID int64) error {
	switch {
	case isUniqueViolation(err):
		return &services.DuplicateNameError{Kind: kind.Label(), Name: name, Scope: fmt.Sprintf("font %d", fontID)}
	case strings.Contains(err.Error(), "FOREIGN KEY"):
		return notFound("font", fmt.Sprint(fontID))
	default:
		return fmt.Errorf("save %s %q: %w", kind, name, err)
	}
}

// DeleteGlif removes a glif after writing tombstones for each of its layers
// and then for the glif itself. Layers and relations go with the row.
func (s *Store) DeleteGlif(ctx context.Context, kind glif.Kind, id int64, user *User) (*DeletedGlif, error) {
	table, err := glifTableFor(kind)
	if err != nil {
		return nil, err
	}
	var tombstone *DeletedGlif
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		g, err := s.getGlif(ctx, tx, kind, id)
		if err != nil {
			return err
		}
		now := s.timestamp()
		if layerKind, ok := kind.LayerKind(); ok {
			layers, err := listLayers(ctx, tx, layerKind, g.ID)
			if err != nil {
				return err
			}
			for _, layer := range layers {
				if _, err := insertTombstone(ctx, tx, layerTombstone(layer, g.FontID, user, now)); err != nil {
					return err
				}
			}
		}
		tombstone, err = insertTombstone(ctx, tx, glifTombstone(g, user, now))
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, g.ID); err != nil {
			return fmt.Errorf("delete %s: %w", kind, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("glif deleted",
		logging.String(logging.FieldEventType, "glif_deleted"),
		logging.String(logging.FieldKind, string(kind)),
		logging.String("name", tombstone.Name),
		logging.Int64("font_id", tombstone.FontID),
	)
	return tombstone, nil
}
