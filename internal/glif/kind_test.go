package glif_test

import (
	"testing"

	"rcjk/internal/glif"
)

func TestParseKindAliases(t *testing.T) {
	tests := map[string]glif.Kind{
		"ae":             glif.KindAtomicElement,
		"deepComponent":  glif.KindDeepComponent,
		"CHARACTERGLYPH": glif.KindCharacterGlyph,
		"cgl":            glif.KindCharacterGlyphLayer,
	}
	for in, want := range tests {
		got, err := glif.ParseKind(in)
		if err != nil || got != want {
			t.Fatalf("ParseKind(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := glif.ParseKind("font"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestKindLayout(t *testing.T) {
	if glif.KindCharacterGlyphLayer.LeafDir() != glif.DirCharacterGlyph {
		t.Fatal("character glyph layers live under characterGlyph")
	}
	if glif.KindAtomicElementLayer.Parent() != glif.KindAtomicElement {
		t.Fatal("unexpected parent kind")
	}
	if _, ok := glif.KindDeepComponent.LayerKind(); ok {
		t.Fatal("deep components have no layers")
	}
	rels := glif.KindCharacterGlyph.Relations()
	if len(rels) != 2 || rels[0].Target != glif.KindCharacterGlyph || rels[1].Target != glif.KindDeepComponent {
		t.Fatalf("unexpected character glyph relations %+v", rels)
	}
	if len(glif.KindAtomicElement.Relations()) != 0 {
		t.Fatal("atomic elements own no relations")
	}
}
