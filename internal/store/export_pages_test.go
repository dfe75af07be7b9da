package store_test

import (
	"context"
	"fmt"
	"slices"
	"testing"
	"time"

	"rcjk/internal/glif"
	"rcjk/internal/store"
	"rcjk/internal/testsupport"
)

func TestExportPageWalksCursor(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	clock := newClock()
	st := testsupport.MustOpenStore(t, cfg, store.WithClock(clock.Now))
	fx := testsupport.MustSeed(t, st)
	ctx := context.Background()

	for i := range 5 {
		testsupport.MustSaveGlif(t, st, glif.KindAtomicElement, fx.Font.ID,
			testsupport.Glif{Name: fmt.Sprintf("ae%d", i), Outline: true}, fx.User)
	}

	var (
		afterID int64
		sizes   []int
		seen    []string
	)
	for {
		rows, err := st.ExportPage(ctx, glif.KindAtomicElement, fx.Font.ID, afterID, nil, 2)
		if err != nil {
			t.Fatalf("ExportPage failed: %v", err)
		}
		if len(rows) == 0 {
			break
		}
		sizes = append(sizes, len(rows))
		for _, row := range rows {
			seen = append(seen, row.Path())
			afterID = row.ID
		}
	}
	if !slices.Equal(sizes, []int{2, 2, 1}) {
		t.Fatalf("unexpected page sizes %v", sizes)
	}
	if seen[0] != "atomicElement/ae0.glif" {
		t.Fatalf("unexpected first path %q", seen[0])
	}

	paths, err := st.ExportPaths(ctx, glif.KindAtomicElement, fx.Font.ID, 2)
	if err != nil {
		t.Fatalf("ExportPaths failed: %v", err)
	}
	if !slices.Equal(paths, seen) {
		t.Fatalf("ExportPaths = %v, want %v", paths, seen)
	}

	cutoff := clock.Advance(time.Minute)
	clock.Advance(time.Minute)
	late := testsupport.MustSaveGlif(t, st, glif.KindAtomicElement, fx.Font.ID,
		testsupport.Glif{Name: "late", Outline: true}, fx.User)
	rows, err := st.ExportPage(ctx, glif.KindAtomicElement, fx.Font.ID, 0, &cutoff, 10)
	if err != nil {
		t.Fatalf("ExportPage since failed: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != late.ID {
		t.Fatalf("expected only the late row, got %#v", rows)
	}
}

func TestExportPageLayersNestUnderGroup(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	fx := testsupport.MustSeed(t, st)
	ctx := context.Background()

	cg := testsupport.MustSaveGlif(t, st, glif.KindCharacterGlyph, fx.Font.ID, testsupport.Glif{Name: "uni4E00"}, fx.User)
	layer := store.NewLayer(glif.KindCharacterGlyphLayer, cg.ID, "bold", testsupport.GlifXML(testsupport.Glif{Name: "uni4E00"}))
	if err := st.SaveLayer(ctx, layer, fx.User); err != nil {
		t.Fatalf("SaveLayer failed: %v", err)
	}
	paths, err := st.ExportPaths(ctx, glif.KindCharacterGlyphLayer, fx.Font.ID, 10)
	if err != nil {
		t.Fatalf("ExportPaths failed: %v", err)
	}
	if !slices.Equal(paths, []string{"characterGlyph/bold/uni4E_00.glif"}) {
		t.Fatalf("unexpected layer paths %v", paths)
	}
}

func TestUpdatersSince(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	clock := newClock()
	st := testsupport.MustOpenStore(t, cfg, store.WithClock(clock.Now))
	fx := testsupport.MustSeed(t, st)
	bob := testsupport.MustUser(t, st, "bob")
	carol := testsupport.MustUser(t, st, "carol")
	ctx := context.Background()

	cg := testsupport.MustSaveGlif(t, st, glif.KindCharacterGlyph, fx.Font.ID, testsupport.Glif{Name: "uni4E00"}, fx.User)
	cutoff := clock.Advance(time.Minute)
	clock.Advance(time.Minute)

	if err := st.SaveGlif(ctx, cg, carol); err != nil {
		t.Fatalf("SaveGlif failed: %v", err)
	}
	layer := store.NewLayer(glif.KindCharacterGlyphLayer, cg.ID, "bold", testsupport.GlifXML(testsupport.Glif{Name: "uni4E00"}))
	if err := st.SaveLayer(ctx, layer, bob); err != nil {
		t.Fatalf("SaveLayer failed: %v", err)
	}

	users, err := st.UpdatersSince(ctx, fx.Font.ID, cutoff)
	if err != nil {
		t.Fatalf("UpdatersSince failed: %v", err)
	}
	var names []string
	for _, u := range users {
		names = append(names, u.Username)
	}
	if !slices.Equal(names, []string{"bob", "carol"}) {
		t.Fatalf("unexpected updaters %v", names)
	}
}
