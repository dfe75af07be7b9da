// Package export mirrors the database into the on-disk .rcjk layout and
// publishes it to each project's git repository.
//
// A run walks projects, then fonts. Each font is written to its directory
// under the project working tree:
//
//	<project-slug>/<font-slug>.rcjk/
//	    fontLib.json, features.fea, designspace.json, glyphsComposition.json
//	    characterGlyph/*.glif   characterGlyph/<layer>/*.glif
//	    deepComponent/*.glif
//	    atomicElement/*.glif    atomicElement/<layer>/*.glif
//
// Full exports rebuild the leaf directories from scratch. Incremental exports
// write only rows updated since the previous export window and remove the
// files of glifs deleted since then. Either way a verification pass compares
// the database with the files on disk, deletes zombie files, and reports
// missing ones.
//
// Projects and fonts carry an export_running flag that makes a run
// single-flight. The flag is always cleared when a run ends, including when
// individual fonts fail.
package export
