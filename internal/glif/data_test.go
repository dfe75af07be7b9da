package glif_test

import (
	"errors"
	"strings"
	"testing"

	"rcjk/internal/glif"
	"rcjk/internal/services"
)

func TestParseAtomicElementWithOutline(t *testing.T) {
	d := glif.Parse(buildGlif(glifSpec{name: "line", outline: true}))
	if !d.OK() {
		t.Fatalf("parse failed: %v", d.Err())
	}
	if d.Name() != "line" || d.Filename() != "line.glif" {
		t.Fatalf("unexpected name/filename %q %q", d.Name(), d.Filename())
	}
	if !d.HasOutlines() || d.HasComponents() || d.IsEmpty() {
		t.Fatalf("unexpected flags outlines=%v components=%v empty=%v", d.HasOutlines(), d.HasComponents(), d.IsEmpty())
	}
	if d.HasUnicode() || d.UnicodeHex() != "" {
		t.Fatalf("expected no unicode, got %q", d.UnicodeHex())
	}
	if !strings.HasPrefix(d.XML(), glif.XMLProlog) {
		t.Fatalf("expected canonical prolog, got %q", d.XML()[:40])
	}
}

func TestParseCharacterGlyph(t *testing.T) {
	d := glif.Parse(buildGlif(glifSpec{name: "uni4E2D", unicode: "4E2D", components: []string{"DC1"}}))
	if !d.OK() {
		t.Fatalf("parse failed: %v", d.Err())
	}
	if d.Filename() != "uni4E_2D_.glif" {
		t.Fatalf("unexpected filename %q", d.Filename())
	}
	if got := d.Unicodes(); len(got) != 1 || got[0] != 0x4E2D {
		t.Fatalf("unexpected unicodes %v", got)
	}
	if !d.HasComponents() || d.IsEmpty() || d.HasOutlines() {
		t.Fatal("expected component-only glyph")
	}
	if d.Components() != "DC1" {
		t.Fatalf("unexpected components %q", d.Components())
	}
}

func TestParseComponentNormalization(t *testing.T) {
	d := glif.Parse(buildGlif(glifSpec{name: "x", components: []string{"b", "A", "", "a", "b", "A"}}))
	if !d.OK() {
		t.Fatalf("parse failed: %v", d.Err())
	}
	if got := d.Components(); got != "A,a,b" {
		t.Fatalf("expected A,a,b got %q", got)
	}
	names := d.ComponentsNames()
	names[0] = "mutated"
	if d.ComponentsNames()[0] != "A" {
		t.Fatal("ComponentsNames must return a copy")
	}
}

func TestParseEmptyComponentListStillCounts(t *testing.T) {
	d := glif.Parse(buildGlif(glifSpec{name: "x", components: []string{""}}))
	if !d.OK() {
		t.Fatalf("parse failed: %v", d.Err())
	}
	if !d.HasComponents() {
		t.Fatal("a non-empty deepComponents list sets has_components")
	}
	if d.Components() != "" {
		t.Fatalf("expected no names, got %q", d.Components())
	}
}

func TestParseVariationAxis(t *testing.T) {
	d := glif.Parse(buildGlif(glifSpec{name: "x", axes: true}))
	if !d.HasVariationAxis() {
		t.Fatal("expected variation axis from glyphVariationGlyphs")
	}
	d = glif.Parse(buildGlif(glifSpec{name: "x", sources: []libSource{{"wght", 2}}}))
	if !d.HasVariationAxis() {
		t.Fatal("expected variation axis from variationGlyphs")
	}
	if glif.Parse(buildGlif(glifSpec{name: "x"})).HasVariationAxis() {
		t.Fatal("expected no variation axis")
	}
}

func TestParseStatusWithVariations(t *testing.T) {
	d := glif.Parse(buildGlif(glifSpec{
		name:    "x",
		status:  intPtr(2),
		sources: []libSource{{"wght", 4}, {"opsz", 1}},
	}))
	got := d.StatusWithVariations()
	want := map[string]int{"status": 2, "status_wght": 4, "status_opsz": 1}
	if len(got) != len(want) {
		t.Fatalf("unexpected map %v", got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("key %s: got %d want %d", k, got[k], v)
		}
	}
	if idx, ok := d.Status(); !ok || idx != 2 {
		t.Fatalf("unexpected status index %d %v", idx, ok)
	}
}

func TestParseFailures(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		marker error
	}{
		{"malformed", `<glyph name="a"><outline></glyph>`, services.ErrParse},
		{"not xml", `this is not xml`, services.ErrParse},
		{"two roots", `<glyph name="a"/><glyph name="b"/>`, services.ErrParse},
		{"empty", ``, services.ErrParse},
		{"missing name", `<glyph format="2"><outline/></glyph>`, services.ErrValidation},
		{"blank name", `<glyph name="  "/>`, services.ErrValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := glif.Parse(tc.input)
			if d.OK() {
				t.Fatal("expected parse failure")
			}
			if !errors.Is(d.Err(), tc.marker) {
				t.Fatalf("expected %v, got %v", tc.marker, d.Err())
			}
			if d.Name() != "" || d.Filename() != "" || d.HasOutlines() || d.HasComponents() || d.Components() != "" {
				t.Fatal("failed parse must leave derived values empty")
			}
			if _, err := glif.ParseStrict(tc.input); err == nil {
				t.Fatal("ParseStrict should return the error")
			}
		})
	}
}

func TestParseAcceptsSurroundingWhitespace(t *testing.T) {
	for _, raw := range []string{
		"<glyph name=\"a\"/>\n",
		"\n<glyph name=\"a\"/>\r\n\n",
		buildGlif(glifSpec{name: "a", outline: true}) + "\n",
	} {
		d := glif.Parse(raw)
		if !d.OK() {
			t.Fatalf("parse %q: %v", raw, d.Err())
		}
		if d.Name() != "a" {
			t.Fatalf("name = %q, want a", d.Name())
		}
	}
}

func TestFieldsMatchAccessors(t *testing.T) {
	d := glif.Parse(buildGlif(glifSpec{name: "Ka", unicode: "30AB", components: []string{"dc2", "dc1"}, sources: []libSource{{"wght", 0}}}))
	f := d.Fields()
	if f.Name != "Ka" || f.Filename != "K_a.glif" || f.UnicodeHex != "30AB" || f.Components != "dc1,dc2" {
		t.Fatalf("unexpected fields %+v", f)
	}
	if !f.HasUnicode || !f.HasComponents || f.HasOutlines || f.IsEmpty || !f.HasVariationAxis {
		t.Fatalf("unexpected flags %+v", f)
	}
}

func TestFormatIndentsAndFallsBack(t *testing.T) {
	raw := `<glyph name="a"><outline><contour><point x="1" y="2"/></contour></outline></glyph>`
	formatted, err := glif.Format(raw)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if !strings.HasPrefix(formatted, glif.XMLProlog+"\n<glyph") {
		t.Fatalf("unexpected prefix %q", formatted)
	}
	if !strings.Contains(formatted, "\n  <outline>\n    <contour>") {
		t.Fatalf("expected indentation, got %q", formatted)
	}
	if got := glif.FormatOrRaw("<broken"); got != "<broken" {
		t.Fatalf("expected raw fallback, got %q", got)
	}
}
