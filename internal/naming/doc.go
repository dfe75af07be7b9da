// Package naming maps entity identity to file-system names for the .rcjk
// project layout.
//
// Glyph names become filenames through UserNameToFileName, the case-marking
// escape used by UFO-style glyph sets; project, font, and layer names used
// as directory segments go through EscapeSegment instead. The two tables are
// deliberately separate and must stay stable, because export verification
// compares these names against what is already on disk.
package naming
