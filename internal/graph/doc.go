// Package graph expands the component graph around a glif: the components it
// is made of, recursively, and the glifs that use it directly. Character
// glyphs may reference each other, so those traversals carry a visited set.
package graph
