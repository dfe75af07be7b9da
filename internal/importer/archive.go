package importer

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"rcjk/internal/glif"
	"rcjk/internal/naming"
)

// maxEntrySize bounds a single archive member read into memory.
const maxEntrySize = 32 << 20

// Font documents recognised at the top of the font directory.
const (
	fontLibEntry     = "fontLib.json"
	featuresEntry    = "features.fea"
	designspaceEntry = "designspace.json"
	compositionEntry = "glyphsComposition.json"
)

var leafKinds = map[string]glif.Kind{
	glif.DirAtomicElement:  glif.KindAtomicElement,
	glif.DirDeepComponent:  glif.KindDeepComponent,
	glif.DirCharacterGlyph: glif.KindCharacterGlyph,
}

type entry struct {
	file *zip.File
	// rel is the path below the font directory.
	rel   string
	kind  glif.Kind
	group string
}

// contents sorts the members of an archive by what they hold.
type contents struct {
	documents map[string]*zip.File
	glifs     map[glif.Kind][]entry
	layers    map[glif.Kind][]entry
	ignored   []string
}

func classify(files []*zip.File) contents {
	c := contents{
		documents: map[string]*zip.File{},
		glifs:     map[glif.Kind][]entry{},
		layers:    map[glif.Kind][]entry{},
	}
	for _, f := range files {
		if f.FileInfo().IsDir() {
			continue
		}
		name := path.Clean(strings.ReplaceAll(f.Name, "\\", "/"))
		if strings.HasPrefix(name, "__MACOSX/") || strings.HasPrefix(path.Base(name), ".") {
			continue
		}
		rest := fontRelative(strings.Split(name, "/"))
		rel := strings.Join(rest, "/")
		switch len(rest) {
		case 1:
			switch rest[0] {
			case fontLibEntry, featuresEntry, designspaceEntry, compositionEntry:
				c.documents[rest[0]] = f
				continue
			}
		case 2, 3:
			kind, ok := leafKinds[rest[0]]
			if !ok || !strings.HasSuffix(rest[len(rest)-1], naming.GlifExtension) {
				break
			}
			e := entry{file: f, rel: rel, kind: kind}
			if len(rest) == 2 {
				c.glifs[kind] = append(c.glifs[kind], e)
				continue
			}
			if _, ok := kind.LayerKind(); ok {
				e.group = rest[1]
				c.layers[kind] = append(c.layers[kind], e)
				continue
			}
		}
		c.ignored = append(c.ignored, name)
	}
	for _, list := range []map[glif.Kind][]entry{c.glifs, c.layers} {
		for _, entries := range list {
			sort.Slice(entries, func(i, j int) bool { return entries[i].rel < entries[j].rel })
		}
	}
	return c
}

// fontRelative strips everything up to the innermost .rcjk directory.
func fontRelative(parts []string) []string {
	for i := len(parts) - 2; i >= 0; i-- {
		if strings.HasSuffix(parts[i], naming.FontDirSuffix) {
			return parts[i+1:]
		}
	}
	return parts
}

func readEntry(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", f.Name, err)
	}
	if len(data) > maxEntrySize {
		return "", fmt.Errorf("%s exceeds %d bytes", f.Name, maxEntrySize)
	}
	return string(data), nil
}
