// Package importer loads a zipped .rcjk font source into an existing font.
//
// Entries are read from `<font>.rcjk/<leaf>/<name>.glif` and
// `<font>.rcjk/<leaf>/<layer>/<name>.glif` alongside the font documents
// (fontLib.json, features.fea, designspace.json, glyphsComposition.json).
// Glifs are written through api.GlifService in dependency order so that
// component relations resolve: atomic elements, deep components, character
// glyphs, then layers. The font is marked unavailable while the import runs
// and the job progress is recorded on a store.FontImport row.
package importer
