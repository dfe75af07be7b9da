package glif

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/samber/lo"
	"howett.net/plist"

	"rcjk/internal/naming"
	"rcjk/internal/services"
)

// XMLProlog is written at the top of every canonical glif document.
const XMLProlog = "<?xml version='1.0' encoding='UTF-8'?>"

// Lib keys read from the <lib> property list.
const (
	LibKeyStatus               = "robocjk.status"
	LibKeyVariationGlyphs      = "robocjk.variationGlyphs"
	LibKeyDeepComponents       = "robocjk.deepComponents"
	LibKeyGlyphVariationGlyphs = "robocjk.glyphVariationGlyphs"
	LibKeyMarkColor            = "public.markColor"
)

// StatusKey is the status_with_variations entry for the glif's own status.
const StatusKey = "status"

// Fields are the values persisted alongside the raw XML on every save.
type Fields struct {
	Name             string
	Filename         string
	UnicodeHex       string
	Components       string
	IsEmpty          bool
	HasOutlines      bool
	HasComponents    bool
	HasUnicode       bool
	HasVariationAxis bool
}

// Data is the parsed view of one glif XML document.
type Data struct {
	ok  bool
	err error

	xml              string
	name             string
	filename         string
	unicodes         []string
	status           *int
	statusColor      string
	variations       map[string]int
	componentsNames  []string
	hasOutlines      bool
	hasComponents    bool
	hasVariationAxis bool
	lib              map[string]any
}

// Parse parses a glif XML document. The returned value is never nil.
func Parse(raw string) *Data {
	d := &Data{}
	if err := d.parse(raw); err != nil {
		*d = Data{err: err}
		return d
	}
	d.ok = true
	return d
}

// ParseStrict parses raw and returns the failure as an error.
func ParseStrict(raw string) (*Data, error) {
	d := Parse(raw)
	if !d.ok {
		return nil, d.err
	}
	return d, nil
}

func (d *Data) parse(raw string) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(raw); err != nil {
		return &services.ParseError{Err: err}
	}
	switch roots := len(doc.ChildElements()); {
	case roots == 0:
		return &services.ParseError{Err: errors.New("document has no root element")}
	case roots > 1:
		return &services.ParseError{Err: errors.New("document has more than one root element")}
	}
	root := doc.Root()

	name := strings.TrimSpace(root.SelectAttrValue("name", ""))
	if name == "" {
		return &services.ValidationError{Field: "name", Message: "root element requires a non-empty name attribute"}
	}
	d.name = name
	d.filename = naming.GlifFileName(name)

	canonical, err := serializeRoot(root, false)
	if err != nil {
		return &services.ParseError{Err: err}
	}
	d.xml = canonical

	for _, el := range root.SelectElements("unicode") {
		if hex := strings.TrimSpace(el.SelectAttrValue("hex", "")); hex != "" {
			d.unicodes = append(d.unicodes, hex)
		}
	}

	if outline := root.SelectElement("outline"); outline != nil && len(outline.ChildElements()) > 0 {
		d.hasOutlines = true
	}

	if lib := root.SelectElement("lib"); lib != nil {
		if dict := lib.SelectElement("dict"); dict != nil {
			values, err := decodeLib(dict)
			if err != nil {
				return &services.ParseError{Err: fmt.Errorf("lib: %w", err)}
			}
			d.lib = values
		}
	}
	d.readLib()
	return nil
}

func decodeLib(dict *etree.Element) (map[string]any, error) {
	doc := etree.NewDocument()
	doc.SetRoot(dict.Copy())
	text, err := doc.WriteToString()
	if err != nil {
		return nil, err
	}
	var decoded any
	if _, err := plist.Unmarshal([]byte(text), &decoded); err != nil {
		return nil, err
	}
	values, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected dict, got %T", decoded)
	}
	return values, nil
}

func (d *Data) readLib() {
	d.variations = map[string]int{}
	if index, ok := toInt(d.lib[LibKeyStatus]); ok {
		d.status = &index
		d.variations[StatusKey] = index
	}
	if color, ok := d.lib[LibKeyMarkColor].(string); ok {
		d.statusColor = strings.TrimSpace(color)
	}

	variationGlyphs := toList(d.lib[LibKeyVariationGlyphs])
	for _, item := range variationGlyphs {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		source, _ := entry["sourceName"].(string)
		status, ok := toInt(entry["status"])
		if !ok {
			status = 0
		}
		d.variations["status_"+source] = status
	}

	deepComponents := toList(d.lib[LibKeyDeepComponents])
	d.hasComponents = len(deepComponents) > 0
	names := make([]string, 0, len(deepComponents))
	for _, item := range deepComponents {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if name, ok := entry["name"].(string); ok {
			names = append(names, name)
		}
	}
	names = lo.Uniq(lo.Filter(names, func(name string, _ int) bool { return name != "" }))
	sort.SliceStable(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	d.componentsNames = names

	d.hasVariationAxis = len(toList(d.lib[LibKeyGlyphVariationGlyphs])) > 0 || len(variationGlyphs) > 0
}

// OK reports whether the document parsed successfully.
func (d *Data) OK() bool { return d.ok }

// Err returns the parse or validation failure, if any.
func (d *Data) Err() error { return d.err }

// XML returns the canonical re-serialized document with the fixed prolog.
func (d *Data) XML() string { return d.xml }

// Name returns the root name attribute.
func (d *Data) Name() string { return d.name }

// Filename returns the escaped on-disk filename including the .glif suffix.
func (d *Data) Filename() string { return d.filename }

// UnicodeHex returns the first unicode hex value, or "".
func (d *Data) UnicodeHex() string {
	if len(d.unicodes) == 0 {
		return ""
	}
	return d.unicodes[0]
}

// Unicodes returns every declared codepoint that parses as hexadecimal.
func (d *Data) Unicodes() []int {
	return UnicodesFromHex(d.unicodes...)
}

// HasUnicode reports whether at least one unicode element was declared.
func (d *Data) HasUnicode() bool { return d.UnicodeHex() != "" }

// Status returns the robocjk.status index if present.
func (d *Data) Status() (int, bool) {
	if d.status == nil {
		return 0, false
	}
	return *d.status, true
}

// StatusColor returns the legacy public.markColor value.
func (d *Data) StatusColor() string { return d.statusColor }

// StatusWithVariations returns the status per variation source. The glif's
// own status is stored under StatusKey and is absent when robocjk.status is
// not set; source entries are keyed "status_<sourceName>".
func (d *Data) StatusWithVariations() map[string]int {
	out := make(map[string]int, len(d.variations))
	for k, v := range d.variations {
		out[k] = v
	}
	return out
}

// ComponentsNames returns the de-duplicated component names sorted
// case-insensitively.
func (d *Data) ComponentsNames() []string {
	out := make([]string, len(d.componentsNames))
	copy(out, d.componentsNames)
	return out
}

// Components returns the comma-joined component names.
func (d *Data) Components() string { return strings.Join(d.componentsNames, ",") }

// HasOutlines reports a non-empty <outline> element.
func (d *Data) HasOutlines() bool { return d.hasOutlines }

// HasComponents reports a non-empty robocjk.deepComponents list.
func (d *Data) HasComponents() bool { return d.hasComponents }

// HasVariationAxis reports non-empty variation glyph lists.
func (d *Data) HasVariationAxis() bool { return d.hasVariationAxis }

// IsEmpty reports a glif with neither outlines nor components.
func (d *Data) IsEmpty() bool { return !d.hasOutlines && !d.hasComponents }

// Lib returns the decoded lib value for key.
func (d *Data) Lib(key string) (any, bool) {
	v, ok := d.lib[key]
	return v, ok
}

// Fields returns the derived values persisted with a glif row.
func (d *Data) Fields() Fields {
	return Fields{
		Name:             d.name,
		Filename:         d.filename,
		UnicodeHex:       d.UnicodeHex(),
		Components:       d.Components(),
		IsEmpty:          d.IsEmpty(),
		HasOutlines:      d.hasOutlines,
		HasComponents:    d.hasComponents,
		HasUnicode:       d.HasUnicode(),
		HasVariationAxis: d.hasVariationAxis,
	}
}

// UnicodesFromHex parses hexadecimal codepoints, skipping invalid entries.
func UnicodesFromHex(values ...string) []int {
	out := make([]int, 0, len(values))
	for _, value := range values {
		n, err := strconv.ParseInt(strings.TrimSpace(value), 16, 32)
		if err != nil {
			continue
		}
		out = append(out, int(n))
	}
	return out
}

func toList(value any) []any {
	list, _ := value.([]any)
	return list
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int8:
		return int(v), true
	case int16:
		return int(v), true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint:
		return int(v), true
	case uint8:
		return int(v), true
	case uint16:
		return int(v), true
	case uint32:
		return int(v), true
	case uint64:
		return int(v), true
	case float32:
		return int(v), true
	case float64:
		return int(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	}
	return 0, false
}
