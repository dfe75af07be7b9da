package glif

import (
	"fmt"
	"strings"
)

// Kind identifies one of the five glyph record tables.
type Kind string

const (
	KindAtomicElement       Kind = "atomic_element"
	KindDeepComponent       Kind = "deep_component"
	KindCharacterGlyph      Kind = "character_glyph"
	KindAtomicElementLayer  Kind = "atomic_element_layer"
	KindCharacterGlyphLayer Kind = "character_glyph_layer"
)

// Leaf directory names inside a font directory.
const (
	DirAtomicElement  = "atomicElement"
	DirDeepComponent  = "deepComponent"
	DirCharacterGlyph = "characterGlyph"
)

// GlifKinds lists the lockable, status-tracked kinds.
var GlifKinds = []Kind{KindAtomicElement, KindDeepComponent, KindCharacterGlyph}

// LayerKinds lists the layer kinds.
var LayerKinds = []Kind{KindAtomicElementLayer, KindCharacterGlyphLayer}

// ExportOrder is the order in which export walks the five record sets.
var ExportOrder = []Kind{
	KindCharacterGlyph,
	KindCharacterGlyphLayer,
	KindDeepComponent,
	KindAtomicElement,
	KindAtomicElementLayer,
}

// LeafDirs lists the three leaf directories of a font.
var LeafDirs = []string{DirCharacterGlyph, DirDeepComponent, DirAtomicElement}

// Relation describes a composition edge owned by a glif kind.
type Relation struct {
	Name   string
	Target Kind
}

var kindAliases = map[string]Kind{
	"atomic_element":        KindAtomicElement,
	"atomicelement":         KindAtomicElement,
	"ae":                    KindAtomicElement,
	"deep_component":        KindDeepComponent,
	"deepcomponent":         KindDeepComponent,
	"dc":                    KindDeepComponent,
	"character_glyph":       KindCharacterGlyph,
	"characterglyph":        KindCharacterGlyph,
	"cg":                    KindCharacterGlyph,
	"atomic_element_layer":  KindAtomicElementLayer,
	"atomicelementlayer":    KindAtomicElementLayer,
	"ael":                   KindAtomicElementLayer,
	"character_glyph_layer": KindCharacterGlyphLayer,
	"characterglyphlayer":   KindCharacterGlyphLayer,
	"cgl":                   KindCharacterGlyphLayer,
}

// ParseKind accepts the canonical kind names, their camelCase directory
// spelling, and the short aliases ae/dc/cg/ael/cgl.
func ParseKind(value string) (Kind, error) {
	key := strings.ToLower(strings.TrimSpace(value))
	if kind, ok := kindAliases[key]; ok {
		return kind, nil
	}
	return "", fmt.Errorf("unknown glif kind %q", value)
}

// IsLayer reports whether k is a layer kind.
func (k Kind) IsLayer() bool {
	return k == KindAtomicElementLayer || k == KindCharacterGlyphLayer
}

// Valid reports whether k is one of the five known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindAtomicElement, KindDeepComponent, KindCharacterGlyph, KindAtomicElementLayer, KindCharacterGlyphLayer:
		return true
	}
	return false
}

// Parent returns the owning glif kind of a layer kind, or k itself.
func (k Kind) Parent() Kind {
	switch k {
	case KindAtomicElementLayer:
		return KindAtomicElement
	case KindCharacterGlyphLayer:
		return KindCharacterGlyph
	}
	return k
}

// LayerKind returns the layer kind owned by k, if any.
func (k Kind) LayerKind() (Kind, bool) {
	switch k {
	case KindAtomicElement:
		return KindAtomicElementLayer, true
	case KindCharacterGlyph:
		return KindCharacterGlyphLayer, true
	}
	return "", false
}

// LeafDir returns the font-relative leaf directory for k.
func (k Kind) LeafDir() string {
	switch k.Parent() {
	case KindAtomicElement:
		return DirAtomicElement
	case KindDeepComponent:
		return DirDeepComponent
	default:
		return DirCharacterGlyph
	}
}

// Relations returns the composition edges owned by k, in rebuild order.
func (k Kind) Relations() []Relation {
	switch k {
	case KindCharacterGlyph:
		return []Relation{
			{Name: "character_glyphs", Target: KindCharacterGlyph},
			{Name: "deep_components", Target: KindDeepComponent},
		}
	case KindDeepComponent:
		return []Relation{{Name: "atomic_elements", Target: KindAtomicElement}}
	}
	return nil
}

// Label returns a human readable kind name.
func (k Kind) Label() string {
	switch k {
	case KindAtomicElement:
		return "Atomic Element"
	case KindDeepComponent:
		return "Deep Component"
	case KindCharacterGlyph:
		return "Character Glyph"
	case KindAtomicElementLayer:
		return "Atomic Element Layer"
	case KindCharacterGlyphLayer:
		return "Character Glyph Layer"
	}
	return string(k)
}
