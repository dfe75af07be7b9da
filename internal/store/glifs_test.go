package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"rcjk/internal/glif"
	"rcjk/internal/services"
	"rcjk/internal/store"
	"rcjk/internal/testsupport"
)

func glifNames(glifs []*store.Glif) []string {
	names := make([]string, 0, len(glifs))
	for _, g := range glifs {
		names = append(names, g.Name)
	}
	return names
}

func equalNames(got []string, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestSaveGlifDerivesFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	fx := testsupport.MustSeed(t, st)
	ctx := context.Background()

	line := testsupport.MustSaveGlif(t, st, glif.KindAtomicElement, fx.Font.ID,
		testsupport.Glif{Name: "line", Outline: true}, fx.User)
	if line.ID == 0 {
		t.Fatal("expected id to be assigned")
	}
	if line.IsEmpty || !line.HasOutlines || line.HasComponents {
		t.Fatalf("unexpected derived flags %#v", line.Fields)
	}
	if line.Filename != "line.glif" {
		t.Fatalf("unexpected filename %q", line.Filename)
	}
	if line.Status != glif.StatusWIP {
		t.Fatalf("expected wip status, got %s", line.Status)
	}

	cg := testsupport.MustSaveGlif(t, st, glif.KindCharacterGlyph, fx.Font.ID,
		testsupport.Glif{Name: "uni4E2D", Unicode: "4E2D", Status: testsupport.Status(4)}, fx.User)
	fetched, err := st.FindGlif(ctx, glif.KindCharacterGlyph, fx.Font.ID, "uni4E2D")
	if err != nil {
		t.Fatalf("FindGlif failed: %v", err)
	}
	if fetched.ID != cg.ID || fetched.UnicodeHex != "4E2D" || !fetched.HasUnicode {
		t.Fatalf("unexpected fetched glif %#v", fetched)
	}
	if fetched.Status != glif.StatusDone || fetched.PreviousStatus != glif.StatusWIP {
		t.Fatalf("expected wip -> done, got %s -> %s", fetched.PreviousStatus, fetched.Status)
	}
	if fetched.IsEmpty != true {
		t.Fatal("glif without outline or components should be empty")
	}
	if len(fetched.Editors) != 1 || fetched.Editors[0].UserID != fx.User.ID {
		t.Fatalf("unexpected editors %#v", fetched.Editors)
	}
}

func TestSaveGlifRejectsInvalidData(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	fx := testsupport.MustSeed(t, st)
	ctx := context.Background()

	tests := []struct {
		name   string
		data   string
		marker error
	}{
		{"malformed", `<glyph name="a"`, services.ErrParse},
		{"missing name", `<glyph format="2"><outline/></glyph>`, services.ErrValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := store.NewGlif(glif.KindAtomicElement, fx.Font.ID, tc.data)
			err := st.SaveGlif(ctx, g, fx.User)
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v, got %v", tc.marker, err)
			}
			if g.ID != 0 {
				t.Fatalf("failed save must not assign an id, got %d", g.ID)
			}
		})
	}
	all, err := st.ListGlifs(ctx, glif.KindAtomicElement, fx.Font.ID, store.GlifFilter{})
	if err != nil {
		t.Fatalf("ListGlifs failed: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected nothing persisted, got %v", glifNames(all))
	}
}

func TestSaveGlifDuplicateName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	fx := testsupport.MustSeed(t, st)

	testsupport.MustSaveGlif(t, st, glif.KindDeepComponent, fx.Font.ID, testsupport.Glif{Name: "DC1"}, fx.User)
	dup := store.NewGlif(glif.KindDeepComponent, fx.Font.ID, testsupport.GlifXML(testsupport.Glif{Name: "DC1"}))
	err := st.SaveGlif(context.Background(), dup, fx.User)
	if !errors.Is(err, services.ErrDuplicateName) {
		t.Fatalf("expected duplicate name, got %v", err)
	}
	if services.Kind(err) != "duplicate_name" {
		t.Fatalf("unexpected kind %q", services.Kind(err))
	}
}

func TestSaveGlifTracksDowngrade(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	clock := newClock()
	st := testsupport.MustOpenStore(t, cfg, store.WithClock(clock.Now))
	fx := testsupport.MustSeed(t, st)
	ctx := context.Background()

	spec := testsupport.Glif{Name: "uni4E00", Sources: []testsupport.Source{{Name: "wght", Status: 4}}}
	g := testsupport.MustSaveGlif(t, st, glif.KindCharacterGlyph, fx.Font.ID, spec, fx.User)
	if g.StatusDowngraded {
		t.Fatal("first save cannot be a downgrade")
	}

	downgradedAt := clock.Advance(time.Hour)
	spec.Sources[0].Status = 2
	g.Data = testsupport.GlifXML(spec)
	if err := st.SaveGlif(ctx, g, fx.User); err != nil {
		t.Fatalf("SaveGlif failed: %v", err)
	}
	stored, err := st.GetGlif(ctx, glif.KindCharacterGlyph, g.ID)
	if err != nil {
		t.Fatalf("GetGlif failed: %v", err)
	}
	if !stored.StatusDowngraded || stored.StatusDowngradedAt == nil || !stored.StatusDowngradedAt.Equal(downgradedAt) {
		t.Fatalf("expected downgrade stamped at %v, got %v %v", downgradedAt, stored.StatusDowngraded, stored.StatusDowngradedAt)
	}

	clock.Advance(time.Hour)
	spec.Sources[0].Status = 4
	stored.Data = testsupport.GlifXML(spec)
	if err := st.SaveGlif(ctx, stored, fx.User); err != nil {
		t.Fatalf("SaveGlif failed: %v", err)
	}
	if stored.StatusDowngraded || stored.StatusDowngradedAt != nil {
		t.Fatalf("expected downgrade cleared, got %v %v", stored.StatusDowngraded, stored.StatusDowngradedAt)
	}
	if len(stored.Editors) != 1 {
		t.Fatalf("consecutive edits by one user should collapse, got %d entries", len(stored.Editors))
	}
}

func TestRelationRebuildIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMissingComponentWarnings())
	st := testsupport.MustOpenStore(t, cfg)
	fx := testsupport.MustSeed(t, st)
	ctx := context.Background()

	line := testsupport.MustSaveGlif(t, st, glif.KindAtomicElement, fx.Font.ID, testsupport.Glif{Name: "line", Outline: true}, fx.User)
	testsupport.MustSaveGlif(t, st, glif.KindAtomicElement, fx.Font.ID, testsupport.Glif{Name: "dot", Outline: true}, fx.User)
	dc := testsupport.MustSaveGlif(t, st, glif.KindDeepComponent, fx.Font.ID,
		testsupport.Glif{Name: "DC1", Components: []string{"line", "dot", "ghost"}}, fx.User)

	rel := glif.KindDeepComponent.Relations()[0]
	for i := range 2 {
		made, err := st.MadeOf(ctx, glif.KindDeepComponent, dc.ID, rel)
		if err != nil {
			t.Fatalf("MadeOf failed: %v", err)
		}
		if !equalNames(glifNames(made), "dot", "line") {
			t.Fatalf("pass %d: unexpected atomic elements %v", i, glifNames(made))
		}
		if err := st.SaveGlif(ctx, dc, fx.User); err != nil {
			t.Fatalf("re-save failed: %v", err)
		}
	}

	users, err := st.UsedBy(ctx, glif.KindAtomicElement, line.ID, glif.KindDeepComponent)
	if err != nil {
		t.Fatalf("UsedBy failed: %v", err)
	}
	if !equalNames(glifNames(users), "DC1") {
		t.Fatalf("unexpected users of line %v", glifNames(users))
	}
	if dc.Components != "dot,ghost,line" {
		t.Fatalf("components keep unresolved names, got %q", dc.Components)
	}
}

func TestCharacterGlyphRelations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	fx := testsupport.MustSeed(t, st)
	ctx := context.Background()

	testsupport.MustSaveGlif(t, st, glif.KindDeepComponent, fx.Font.ID, testsupport.Glif{Name: "DC1"}, fx.User)
	testsupport.MustSaveGlif(t, st, glif.KindCharacterGlyph, fx.Font.ID, testsupport.Glif{Name: "uni4E00"}, fx.User)
	cg := testsupport.MustSaveGlif(t, st, glif.KindCharacterGlyph, fx.Font.ID,
		testsupport.Glif{Name: "uni4E2D", Components: []string{"DC1", "uni4E00"}}, fx.User)

	byRelation := map[string][]string{}
	for _, rel := range glif.KindCharacterGlyph.Relations() {
		made, err := st.MadeOf(ctx, glif.KindCharacterGlyph, cg.ID, rel)
		if err != nil {
			t.Fatalf("MadeOf %s failed: %v", rel.Name, err)
		}
		byRelation[rel.Name] = glifNames(made)
	}
	if !equalNames(byRelation["deep_components"], "DC1") {
		t.Fatalf("unexpected deep components %v", byRelation["deep_components"])
	}
	if !equalNames(byRelation["character_glyphs"], "uni4E00") {
		t.Fatalf("unexpected character glyphs %v", byRelation["character_glyphs"])
	}

	cg.Data = testsupport.GlifXML(testsupport.Glif{Name: "uni4E2D", Components: []string{"DC1"}})
	if err := st.SaveGlif(ctx, cg, fx.User); err != nil {
		t.Fatalf("SaveGlif failed: %v", err)
	}
	made, err := st.MadeOf(ctx, glif.KindCharacterGlyph, cg.ID, glif.KindCharacterGlyph.Relations()[0])
	if err != nil {
		t.Fatalf("MadeOf failed: %v", err)
	}
	if len(made) != 0 {
		t.Fatalf("expected character glyph relation cleared, got %v", glifNames(made))
	}
}

func TestDeleteGlifWritesTombstones(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	fx := testsupport.MustSeed(t, st)
	ctx := context.Background()

	ae := testsupport.MustSaveGlif(t, st, glif.KindAtomicElement, fx.Font.ID, testsupport.Glif{Name: "Line", Outline: true}, fx.User)
	layer := store.NewLayer(glif.KindAtomicElementLayer, ae.ID, "bold", testsupport.GlifXML(testsupport.Glif{Name: "Line", Outline: true}))
	if err := st.SaveLayer(ctx, layer, fx.User); err != nil {
		t.Fatalf("SaveLayer failed: %v", err)
	}

	tombstone, err := st.DeleteGlif(ctx, glif.KindAtomicElement, ae.ID, fx.User)
	if err != nil {
		t.Fatalf("DeleteGlif failed: %v", err)
	}
	if tombstone.Filepath != "atomicElement/L_ine.glif" {
		t.Fatalf("unexpected tombstone path %q", tombstone.Filepath)
	}
	if _, err := st.GetGlif(ctx, glif.KindAtomicElement, ae.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected deleted glif to be gone, got %v", err)
	}
	if _, err := st.GetLayer(ctx, glif.KindAtomicElementLayer, layer.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected layer removed with parent, got %v", err)
	}

	tombstones, err := st.ListTombstones(ctx, fx.Font.ID, nil)
	if err != nil {
		t.Fatalf("ListTombstones failed: %v", err)
	}
	if len(tombstones) != 2 {
		t.Fatalf("expected layer and glif tombstones, got %d", len(tombstones))
	}
	if tombstones[0].GlifType != glif.KindAtomicElementLayer || tombstones[0].Filepath != "atomicElement/bold/L_ine.glif" {
		t.Fatalf("unexpected layer tombstone %#v", tombstones[0])
	}
	if tombstones[1].GlifType != glif.KindAtomicElement {
		t.Fatalf("unexpected glif tombstone %#v", tombstones[1])
	}
}

func TestSaveLayerStampsParent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	clock := newClock()
	st := testsupport.MustOpenStore(t, cfg, store.WithClock(clock.Now))
	fx := testsupport.MustSeed(t, st)
	ctx := context.Background()

	cg := testsupport.MustSaveGlif(t, st, glif.KindCharacterGlyph, fx.Font.ID, testsupport.Glif{Name: "uni4E00"}, fx.User)
	stamped := clock.Advance(time.Minute)
	layer := store.NewLayer(glif.KindCharacterGlyphLayer, cg.ID, "wght", testsupport.GlifXML(testsupport.Glif{Name: "uni4E00"}))
	if err := st.SaveLayer(ctx, layer, fx.User); err != nil {
		t.Fatalf("SaveLayer failed: %v", err)
	}
	parent, err := st.GetGlif(ctx, glif.KindCharacterGlyph, cg.ID)
	if err != nil {
		t.Fatalf("GetGlif failed: %v", err)
	}
	if parent.LayersUpdatedAt == nil || !parent.LayersUpdatedAt.Equal(stamped) {
		t.Fatalf("expected layers_updated_at %v, got %v", stamped, parent.LayersUpdatedAt)
	}
	if !parent.UpdatedAt.Before(stamped) {
		t.Fatal("layer save must not bump the parent's updated_at")
	}

	dup := store.NewLayer(glif.KindCharacterGlyphLayer, cg.ID, "wght", testsupport.GlifXML(testsupport.Glif{Name: "uni4E00"}))
	if err := st.SaveLayer(ctx, dup, fx.User); !errors.Is(err, services.ErrDuplicateName) {
		t.Fatalf("expected duplicate layer error, got %v", err)
	}

	found, err := st.FindLayer(ctx, glif.KindCharacterGlyphLayer, cg.ID, "wght", "uni4E00")
	if err != nil || found.ID != layer.ID {
		t.Fatalf("FindLayer = %v, %v", found, err)
	}
	if _, err := st.DeleteLayer(ctx, glif.KindCharacterGlyphLayer, layer.ID, fx.User); err != nil {
		t.Fatalf("DeleteLayer failed: %v", err)
	}
	layers, err := st.ListLayers(ctx, glif.KindCharacterGlyphLayer, cg.ID)
	if err != nil || len(layers) != 0 {
		t.Fatalf("ListLayers after delete = %v, %v", layers, err)
	}
}
