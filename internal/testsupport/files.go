package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Source describes one variation source in a glif lib.
type Source struct {
	Name   string
	Status int
}

// Glif describes a test glif document.
type Glif struct {
	Name       string
	Unicode    string
	Outline    bool
	Status     *int
	Color      string
	Components []string
	Sources    []Source
}

// Status returns a pointer to a status index for Glif.Status.
func Status(index int) *int { return &index }

// GlifXML renders g as a glif document with a robocjk lib.
func GlifXML(g Glif) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&b, `<glyph name="%s" format="2">`+"\n", g.Name)
	if g.Unicode != "" {
		fmt.Fprintf(&b, `  <unicode hex="%s"/>`+"\n", g.Unicode)
	}
	if g.Outline {
		b.WriteString("  <outline>\n    <contour>\n      <point x=\"0\" y=\"0\" type=\"line\"/>\n      <point x=\"100\" y=\"100\" type=\"line\"/>\n    </contour>\n  </outline>\n")
	} else {
		b.WriteString("  <outline/>\n")
	}
	b.WriteString("  <lib>\n    <dict>\n")
	if g.Status != nil {
		fmt.Fprintf(&b, "      <key>robocjk.status</key>\n      <integer>%d</integer>\n", *g.Status)
	}
	if g.Color != "" {
		fmt.Fprintf(&b, "      <key>public.markColor</key>\n      <string>%s</string>\n", g.Color)
	}
	if len(g.Components) > 0 {
		b.WriteString("      <key>robocjk.deepComponents</key>\n      <array>\n")
		for _, name := range g.Components {
			fmt.Fprintf(&b, "        <dict>\n          <key>name</key>\n          <string>%s</string>\n          <key>coord</key>\n          <dict/>\n        </dict>\n", name)
		}
		b.WriteString("      </array>\n")
	}
	if len(g.Sources) > 0 {
		b.WriteString("      <key>robocjk.variationGlyphs</key>\n      <array>\n")
		for _, src := range g.Sources {
			fmt.Fprintf(&b, "        <dict>\n          <key>sourceName</key>\n          <string>%s</string>\n          <key>status</key>\n          <integer>%d</integer>\n        </dict>\n", src.Name, src.Status)
		}
		b.WriteString("      </array>\n")
	}
	b.WriteString("    </dict>\n  </lib>\n</glyph>\n")
	return b.String()
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteGlif writes the XML for g to path.
func WriteGlif(t testing.TB, path string, g Glif) {
	t.Helper()
	WriteFile(t, path, GlifXML(g))
}

// ReadFile returns the content of path or fails the test.
func ReadFile(t testing.TB, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
