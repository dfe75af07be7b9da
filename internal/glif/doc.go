// Package glif models the glyph records stored by rcjk: the three glif kinds
// and their layers, the parsed view of a glif XML document, the workflow
// status enum, and the save-time status bookkeeping.
//
// Parse never panics and never returns nil; callers check Data.OK and
// Data.Err. Derived values (name, filename, flags, component names) are only
// meaningful after a successful parse.
package glif
