package glif_test

import (
	"fmt"
	"strings"
)

type libSource struct {
	name   string
	status int
}

type glifSpec struct {
	name       string
	unicode    string
	outline    bool
	status     *int
	color      string
	components []string
	sources    []libSource
	axes       bool
}

func intPtr(v int) *int { return &v }

func buildGlif(spec glifSpec) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&b, `<glyph name="%s" format="2">`+"\n", spec.name)
	if spec.unicode != "" {
		fmt.Fprintf(&b, `  <unicode hex="%s"/>`+"\n", spec.unicode)
	}
	if spec.outline {
		b.WriteString("  <outline>\n    <contour>\n      <point x=\"0\" y=\"0\" type=\"line\"/>\n      <point x=\"100\" y=\"0\" type=\"line\"/>\n    </contour>\n  </outline>\n")
	} else {
		b.WriteString("  <outline/>\n")
	}
	b.WriteString("  <lib>\n    <dict>\n")
	if spec.status != nil {
		fmt.Fprintf(&b, "      <key>robocjk.status</key>\n      <integer>%d</integer>\n", *spec.status)
	}
	if spec.color != "" {
		fmt.Fprintf(&b, "      <key>public.markColor</key>\n      <string>%s</string>\n", spec.color)
	}
	if len(spec.components) > 0 {
		b.WriteString("      <key>robocjk.deepComponents</key>\n      <array>\n")
		for _, c := range spec.components {
			fmt.Fprintf(&b, "        <dict>\n          <key>name</key>\n          <string>%s</string>\n          <key>coord</key>\n          <dict/>\n        </dict>\n", c)
		}
		b.WriteString("      </array>\n")
	}
	if len(spec.sources) > 0 {
		b.WriteString("      <key>robocjk.variationGlyphs</key>\n      <array>\n")
		for _, src := range spec.sources {
			fmt.Fprintf(&b, "        <dict>\n          <key>sourceName</key>\n          <string>%s</string>\n          <key>status</key>\n          <integer>%d</integer>\n        </dict>\n", src.name, src.status)
		}
		b.WriteString("      </array>\n")
	}
	if spec.axes {
		b.WriteString("      <key>robocjk.glyphVariationGlyphs</key>\n      <array>\n        <dict>\n          <key>sourceName</key>\n          <string>wght</string>\n        </dict>\n      </array>\n")
	}
	b.WriteString("    </dict>\n  </lib>\n</glyph>\n")
	return b.String()
}
