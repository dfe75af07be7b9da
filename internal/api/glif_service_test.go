package api_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"rcjk/internal/api"
	"rcjk/internal/glif"
	"rcjk/internal/services"
	"rcjk/internal/testsupport"
)

func TestGlifServiceScenario(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	fx := testsupport.MustSeed(t, st)
	bob := testsupport.MustUser(t, st, "bob")
	svc := api.NewGlifService(st)
	ctx := context.Background()

	line, err := svc.Create(ctx, glif.KindAtomicElement, fx.Font.ID,
		testsupport.GlifXML(testsupport.Glif{Name: "line", Outline: true}), fx.User)
	if err != nil {
		t.Fatalf("create line: %v", err)
	}
	if line.IsEmpty || !line.HasOutlines {
		t.Fatalf("unexpected line flags %#v", line)
	}

	dc, err := svc.Create(ctx, glif.KindDeepComponent, fx.Font.ID,
		testsupport.GlifXML(testsupport.Glif{Name: "DC1", Components: []string{"line"}}), fx.User)
	if err != nil {
		t.Fatalf("create DC1: %v", err)
	}
	described, err := svc.Describe(ctx, glif.KindDeepComponent, api.Ref{ID: dc.ID})
	if err != nil {
		t.Fatalf("describe DC1: %v", err)
	}
	if made := described.MadeOf["atomic_elements"]; len(made) != 1 || made[0].Name != "line" {
		t.Fatalf("unexpected DC1 made_of %#v", described.MadeOf)
	}

	if _, err := svc.Create(ctx, glif.KindCharacterGlyph, fx.Font.ID,
		testsupport.GlifXML(testsupport.Glif{Name: "uni4E2D", Unicode: "4E2D", Components: []string{"DC1"}}), fx.User); err != nil {
		t.Fatalf("create uni4E2D: %v", err)
	}
	cg, err := svc.Describe(ctx, glif.KindCharacterGlyph, api.Ref{FontID: fx.Font.ID, Name: "uni4E2D"})
	if err != nil {
		t.Fatalf("describe uni4E2D: %v", err)
	}
	if made := cg.MadeOf["deep_components"]; len(made) != 1 || made[0].Name != "DC1" {
		t.Fatalf("unexpected uni4E2D made_of %#v", cg.MadeOf)
	}
	if !slices.Equal(cg.Unicodes, []int{0x4E2D}) {
		t.Fatalf("unexpected unicodes %v", cg.Unicodes)
	}

	ref := api.Ref{FontID: fx.Font.ID, Name: "line"}
	if _, err := svc.Lock(ctx, glif.KindAtomicElement, ref, fx.User); err != nil {
		t.Fatalf("lock as alice: %v", err)
	}
	_, err = svc.Lock(ctx, glif.KindAtomicElement, ref, bob)
	var already *services.AlreadyLockedError
	if !errors.As(err, &already) {
		t.Fatalf("expected AlreadyLockedError, got %v", err)
	}
	if failure := api.FailureFrom(err); failure.Kind != "already_locked" {
		t.Fatalf("unexpected failure kind %q", failure.Kind)
	}
}

func TestUpdateRequiresLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	fx := testsupport.MustSeed(t, st)
	svc := api.NewGlifService(st)
	ctx := context.Background()

	created, err := svc.Create(ctx, glif.KindAtomicElement, fx.Font.ID,
		testsupport.GlifXML(testsupport.Glif{Name: "line"}), fx.User)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	ref := api.Ref{ID: created.ID}
	next := testsupport.GlifXML(testsupport.Glif{Name: "line", Outline: true})

	if _, err := svc.Update(ctx, glif.KindAtomicElement, ref, next, fx.User, api.EditOptions{}); !errors.Is(err, services.ErrNotLockedByUser) {
		t.Fatalf("expected lock requirement, got %v", err)
	}
	updated, err := svc.Update(ctx, glif.KindAtomicElement, ref, next, fx.User, api.EditOptions{IgnoreLock: true})
	if err != nil {
		t.Fatalf("update ignoring lock: %v", err)
	}
	if !updated.HasOutlines {
		t.Fatal("expected outlines after update")
	}

	if _, err := svc.Lock(ctx, glif.KindAtomicElement, ref, fx.User); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if _, err := svc.Update(ctx, glif.KindAtomicElement, ref, `<glyph`, fx.User, api.EditOptions{}); !errors.Is(err, services.ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
	stored, err := st.GetGlif(ctx, glif.KindAtomicElement, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !stored.HasOutlines {
		t.Fatal("failed update must not change stored data")
	}

	tombstone, err := svc.Delete(ctx, glif.KindAtomicElement, ref, fx.User, api.EditOptions{})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if tombstone.Filepath != "atomicElement/line.glif" {
		t.Fatalf("unexpected tombstone %#v", tombstone)
	}
}

func TestPutLayerUpserts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	fx := testsupport.MustSeed(t, st)
	svc := api.NewGlifService(st)
	ctx := context.Background()

	parent := api.Ref{FontID: fx.Font.ID, Name: "uni4E00"}
	if _, err := svc.Create(ctx, glif.KindCharacterGlyph, fx.Font.ID,
		testsupport.GlifXML(testsupport.Glif{Name: "uni4E00"}), fx.User); err != nil {
		t.Fatalf("create: %v", err)
	}
	opts := api.EditOptions{IgnoreLock: true}
	first, err := svc.PutLayer(ctx, glif.KindCharacterGlyph, parent, "bold",
		testsupport.GlifXML(testsupport.Glif{Name: "uni4E00"}), fx.User, opts)
	if err != nil {
		t.Fatalf("put layer: %v", err)
	}
	second, err := svc.PutLayer(ctx, glif.KindCharacterGlyph, parent, "bold",
		testsupport.GlifXML(testsupport.Glif{Name: "uni4E00", Outline: true}), fx.User, opts)
	if err != nil {
		t.Fatalf("put layer again: %v", err)
	}
	if first.ID != second.ID || second.IsEmpty {
		t.Fatalf("expected in-place update, got %#v then %#v", first, second)
	}
	if _, err := svc.PutLayer(ctx, glif.KindDeepComponent, parent, "bold", "", fx.User, opts); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("deep components have no layers, got %v", err)
	}

	described, err := svc.Describe(ctx, glif.KindCharacterGlyph, parent)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if len(described.Layers) != 1 || described.Layers[0].GroupName != "bold" {
		t.Fatalf("unexpected layers %#v", described.Layers)
	}

	if _, err := svc.DeleteLayer(ctx, glif.KindCharacterGlyphLayer, first.ID, fx.User, api.EditOptions{}); !errors.Is(err, services.ErrNotLockedByUser) {
		t.Fatalf("expected lock requirement on layer delete, got %v", err)
	}
	if _, err := svc.DeleteLayer(ctx, glif.KindCharacterGlyphLayer, first.ID, fx.User, opts); err != nil {
		t.Fatalf("delete layer: %v", err)
	}
}
