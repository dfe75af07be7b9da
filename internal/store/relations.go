package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"rcjk/internal/glif"
	"rcjk/internal/logging"
)

// relationTable is the join table backing one composition edge.
type relationTable struct {
	table     string
	ownerCol  string
	targetCol string
}

var relationTables = map[glif.Kind]map[string]relationTable{
	glif.KindDeepComponent: {
		"atomic_elements": {"deep_component_atomic_elements", "deep_component_id", "atomic_element_id"},
	},
	glif.KindCharacterGlyph: {
		"deep_components":  {"character_glyph_deep_components", "character_glyph_id", "deep_component_id"},
		"character_glyphs": {"character_glyph_character_glyphs", "from_character_glyph_id", "to_character_glyph_id"},
	},
}

func relationTableFor(owner glif.Kind, rel glif.Relation) (relationTable, error) {
	rt, ok := relationTables[owner][rel.Name]
	if !ok {
		return relationTable{}, fmt.Errorf("no relation %s on %s", rel.Name, owner)
	}
	return rt, nil
}

// rebuildRelations replaces every relation owned by g with the sibling glifs
// in the same font whose names appear in names. Unknown names are dropped.
func (s *Store) rebuildRelations(ctx context.Context, q queryer, g *Glif, names []string) error {
	relations := g.Kind.Relations()
	if len(relations) == 0 {
		return nil
	}
	var resolved []string
	for _, rel := range relations {
		rt, err := relationTableFor(g.Kind, rel)
		if err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM `+rt.table+` WHERE `+rt.ownerCol+` = ?`, g.ID); err != nil {
			return fmt.Errorf("clear %s: %w", rel.Name, err)
		}
		if len(names) == 0 {
			continue
		}
		targetTable, err := tableFor(rel.Target)
		if err != nil {
			return err
		}
		args := append([]any{g.ID, g.FontID}, stringArgs(names)...)
		if _, err := q.ExecContext(ctx,
			`INSERT INTO `+rt.table+` (`+rt.ownerCol+`, `+rt.targetCol+`)
             SELECT ?, id FROM `+targetTable+` WHERE font_id = ? AND name IN (`+makePlaceholders(len(names))+`)`,
			args...,
		); err != nil {
			return fmt.Errorf("populate %s: %w", rel.Name, err)
		}
		if s.warnMissingComponents {
			found, err := namesIn(ctx, q, targetTable, g.FontID, names)
			if err != nil {
				return err
			}
			resolved = append(resolved, found...)
		}
	}
	if s.warnMissingComponents {
		if missing, _ := lo.Difference(names, resolved); len(missing) > 0 {
			logging.WarnWithContext(s.logger, "component references not found in font", "missing_components",
				logging.String(logging.FieldKind, string(g.Kind)),
				logging.String("name", g.Name),
				logging.Int64("font_id", g.FontID),
				logging.Any("missing", missing),
				logging.String(logging.FieldErrorHint, "check the component names in the glif lib"),
				logging.String(logging.FieldImpact, "relation omits the missing components"),
			)
		}
	}
	return nil
}

func namesIn(ctx context.Context, q queryer, table string, fontID int64, names []string) ([]string, error) {
	args := append([]any{fontID}, stringArgs(names)...)
	rows, err := q.QueryContext(ctx,
		`SELECT name FROM `+table+` WHERE font_id = ? AND name IN (`+makePlaceholders(len(names))+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("resolve component names: %w", err)
	}
	defer rows.Close()
	var found []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		found = append(found, name)
	}
	return found, rows.Err()
}

func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

// MadeOf returns the glifs directly referenced by the glif through rel.
func (s *Store) MadeOf(ctx context.Context, owner glif.Kind, id int64, rel glif.Relation) ([]*Glif, error) {
	rt, err := relationTableFor(owner, rel)
	if err != nil {
		return nil, err
	}
	targetTable, err := tableFor(rel.Target)
	if err != nil {
		return nil, err
	}
	return s.queryGlifs(ctx, rel.Target,
		`SELECT `+prefixed("t", glifColumns)+` FROM `+targetTable+` t
         JOIN `+rt.table+` r ON r.`+rt.targetCol+` = t.id
         WHERE r.`+rt.ownerCol+` = ? ORDER BY t.name`, id)
}

// UsedBy returns the glifs of kind user that reference target directly.
func (s *Store) UsedBy(ctx context.Context, target glif.Kind, id int64, user glif.Kind) ([]*Glif, error) {
	var rel glif.Relation
	for _, candidate := range user.Relations() {
		if candidate.Target == target {
			rel = candidate
		}
	}
	rt, err := relationTableFor(user, rel)
	if err != nil {
		return nil, err
	}
	ownerTable, err := tableFor(user)
	if err != nil {
		return nil, err
	}
	return s.queryGlifs(ctx, user,
		`SELECT `+prefixed("o", glifColumns)+` FROM `+ownerTable+` o
         JOIN `+rt.table+` r ON r.`+rt.ownerCol+` = o.id
         WHERE r.`+rt.targetCol+` = ? ORDER BY o.name`, id)
}

// UsingKinds returns the kinds whose relations can point at target.
func UsingKinds(target glif.Kind) []glif.Kind {
	var out []glif.Kind
	for _, kind := range glif.GlifKinds {
		for _, rel := range kind.Relations() {
			if rel.Target == target {
				out = append(out, kind)
			}
		}
	}
	return out
}

func (s *Store) queryGlifs(ctx context.Context, kind glif.Kind, query string, args ...any) ([]*Glif, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", kind, err)
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

// prefixed qualifies every column of a comma separated list with alias.
func prefixed(alias, columns string) string {
	parts := lo.Map(strings.Split(columns, ","), func(col string, _ int) string {
		return alias + "." + strings.TrimSpace(col)
	})
	return strings.Join(parts, ", ")
}
