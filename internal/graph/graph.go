package graph

import (
	"context"
	"fmt"

	"rcjk/internal/glif"
	"rcjk/internal/store"
)

// Reader is the slice of the store the expander needs.
type Reader interface {
	GetGlif(ctx context.Context, kind glif.Kind, id int64) (*store.Glif, error)
	MadeOf(ctx context.Context, owner glif.Kind, id int64, rel glif.Relation) ([]*store.Glif, error)
	UsedBy(ctx context.Context, target glif.Kind, id int64, user glif.Kind) ([]*store.Glif, error)
}

// Node is one glif in an expanded graph.
type Node struct {
	ID         int64       `json:"id"`
	Kind       glif.Kind   `json:"kind"`
	Name       string      `json:"name"`
	Filename   string      `json:"filename"`
	Status     glif.Status `json:"status"`
	Components string      `json:"components,omitempty"`
	IsLocked   bool        `json:"isLocked"`

	// MadeOf maps a relation name to its expanded targets.
	MadeOf map[string][]*Node `json:"madeOf,omitempty"`
	// UsedBy maps a using kind to the glifs of that kind referencing this one.
	UsedBy map[glif.Kind][]*Node `json:"usedBy,omitempty"`
}

// visited records the character glyphs already expanded in one traversal.
type visited map[int64]struct{}

func (v visited) enter(kind glif.Kind, id int64) bool {
	if kind != glif.KindCharacterGlyph {
		return true
	}
	if _, ok := v[id]; ok {
		return false
	}
	v[id] = struct{}{}
	return true
}

// Expander builds Nodes from a Reader.
type Expander struct {
	reader Reader
}

// NewExpander returns an Expander over reader.
func NewExpander(reader Reader) *Expander {
	return &Expander{reader: reader}
}

// Describe loads the glif and expands both directions around it.
func (e *Expander) Describe(ctx context.Context, kind glif.Kind, id int64) (*Node, error) {
	g, err := e.reader.GetGlif(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	node, err := e.MadeOf(ctx, g)
	if err != nil {
		return nil, err
	}
	users, err := e.UsedBy(ctx, g)
	if err != nil {
		return nil, err
	}
	node.UsedBy = users
	return node, nil
}

// MadeOf returns g with its components expanded recursively. A character
// glyph reached a second time in the same traversal yields a node without
// components.
func (e *Expander) MadeOf(ctx context.Context, g *store.Glif) (*Node, error) {
	return e.madeOf(ctx, g, visited{})
}

func (e *Expander) madeOf(ctx context.Context, g *store.Glif, seen visited) (*Node, error) {
	node := newNode(g)
	if !seen.enter(g.Kind, g.ID) {
		return node, nil
	}
	for _, rel := range g.Kind.Relations() {
		targets, err := e.reader.MadeOf(ctx, g.Kind, g.ID, rel)
		if err != nil {
			return nil, fmt.Errorf("%s %q made of %s: %w", g.Kind, g.Name, rel.Name, err)
		}
		children := make([]*Node, 0, len(targets))
		for _, target := range targets {
			child, err := e.madeOf(ctx, target, seen)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		if node.MadeOf == nil {
			node.MadeOf = map[string][]*Node{}
		}
		node.MadeOf[rel.Name] = children
	}
	return node, nil
}

// UsedBy returns the glifs referencing g directly, grouped by kind. Character
// glyphs using a character glyph are followed upward with a cycle guard.
func (e *Expander) UsedBy(ctx context.Context, g *store.Glif) (map[glif.Kind][]*Node, error) {
	seen := visited{}
	seen.enter(g.Kind, g.ID)
	return e.usedBy(ctx, g, seen)
}

func (e *Expander) usedBy(ctx context.Context, g *store.Glif, seen visited) (map[glif.Kind][]*Node, error) {
	var out map[glif.Kind][]*Node
	for _, kind := range store.UsingKinds(g.Kind) {
		users, err := e.reader.UsedBy(ctx, g.Kind, g.ID, kind)
		if err != nil {
			return nil, fmt.Errorf("%s %q used by %s: %w", g.Kind, g.Name, kind, err)
		}
		nodes := make([]*Node, 0, len(users))
		for _, user := range users {
			node := newNode(user)
			if g.Kind == glif.KindCharacterGlyph && seen.enter(user.Kind, user.ID) {
				up, err := e.usedBy(ctx, user, seen)
				if err != nil {
					return nil, err
				}
				node.UsedBy = up
			}
			nodes = append(nodes, node)
		}
		if out == nil {
			out = map[glif.Kind][]*Node{}
		}
		out[kind] = nodes
	}
	return out, nil
}

func newNode(g *store.Glif) *Node {
	return &Node{
		ID:         g.ID,
		Kind:       g.Kind,
		Name:       g.Name,
		Filename:   g.Filename,
		Status:     g.Status,
		Components: g.Components,
		IsLocked:   g.IsLocked,
	}
}
