package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rcjk/internal/glif"
	"rcjk/internal/graph"
	"rcjk/internal/services"
	"rcjk/internal/store"
)

// GlifStore abstracts the persistence operations behind GlifService.
type GlifStore interface {
	graph.Reader
	FindGlif(ctx context.Context, kind glif.Kind, fontID int64, name string) (*store.Glif, error)
	ListGlifs(ctx context.Context, kind glif.Kind, fontID int64, filter store.GlifFilter) ([]*store.Glif, error)
	SaveGlif(ctx context.Context, g *store.Glif, user *store.User) error
	DeleteGlif(ctx context.Context, kind glif.Kind, id int64, user *store.User) (*store.DeletedGlif, error)
	Lock(ctx context.Context, kind glif.Kind, id int64, user *store.User) (*store.Glif, error)
	Unlock(ctx context.Context, kind glif.Kind, id int64, user *store.User, force bool) (*store.Glif, error)
	GetLayer(ctx context.Context, kind glif.Kind, id int64) (*store.Layer, error)
	FindLayer(ctx context.Context, kind glif.Kind, glifID int64, groupName, name string) (*store.Layer, error)
	ListLayers(ctx context.Context, kind glif.Kind, glifID int64) ([]*store.Layer, error)
	SaveLayer(ctx context.Context, l *store.Layer, user *store.User) error
	DeleteLayer(ctx context.Context, kind glif.Kind, id int64, user *store.User) (*store.DeletedGlif, error)
}

// Ref identifies a glif by id, or by name within a font.
type Ref struct {
	FontID int64
	ID     int64
	Name   string
}

// String renders the reference for error messages.
func (r Ref) String() string {
	if r.ID != 0 {
		return fmt.Sprint(r.ID)
	}
	return fmt.Sprintf("%q in font %d", r.Name, r.FontID)
}

// EditOptions tune mutating calls.
type EditOptions struct {
	// IgnoreLock skips the check that the caller holds the glif's lock.
	IgnoreLock bool
}

// GlifService exposes the glif entry points returning API DTOs.
type GlifService struct {
	store    GlifStore
	expander *graph.Expander
}

// NewGlifService constructs a GlifService around the provided store.
func NewGlifService(st GlifStore) *GlifService {
	if st == nil {
		return nil
	}
	return &GlifService{store: st, expander: graph.NewExpander(st)}
}

// Create parses data and inserts a new glif of kind into fontID.
func (s *GlifService) Create(ctx context.Context, kind glif.Kind, fontID int64, data string, user *store.User) (Glif, error) {
	if err := requireGlifKind(kind); err != nil {
		return Glif{}, err
	}
	g := store.NewGlif(kind, fontID, data)
	if err := s.store.SaveGlif(ctx, g, user); err != nil {
		return Glif{}, err
	}
	return FromGlif(g, true), nil
}

// Update replaces the data of an existing glif. The caller must hold the
// lock unless opts.IgnoreLock is set.
func (s *GlifService) Update(ctx context.Context, kind glif.Kind, ref Ref, data string, user *store.User, opts EditOptions) (Glif, error) {
	g, err := s.resolve(ctx, kind, ref)
	if err != nil {
		return Glif{}, err
	}
	if err := checkLock(g, user, opts); err != nil {
		return Glif{}, err
	}
	g.Data = data
	if err := s.store.SaveGlif(ctx, g, user); err != nil {
		return Glif{}, err
	}
	return FromGlif(g, true), nil
}

// Put updates the glif named in data when it exists in fontID and creates it
// otherwise.
func (s *GlifService) Put(ctx context.Context, kind glif.Kind, fontID int64, data string, user *store.User, opts EditOptions) (Glif, bool, error) {
	parsed := glif.Parse(data)
	if !parsed.OK() {
		return Glif{}, false, parsed.Err()
	}
	_, err := s.store.FindGlif(ctx, kind, fontID, parsed.Name())
	switch {
	case errors.Is(err, services.ErrNotFound):
		created, err := s.Create(ctx, kind, fontID, data, user)
		return created, true, err
	case err != nil:
		return Glif{}, false, err
	}
	updated, err := s.Update(ctx, kind, Ref{FontID: fontID, Name: parsed.Name()}, data, user, opts)
	return updated, false, err
}

// Lock takes the editing lock for user.
func (s *GlifService) Lock(ctx context.Context, kind glif.Kind, ref Ref, user *store.User) (Glif, error) {
	g, err := s.resolve(ctx, kind, ref)
	if err != nil {
		return Glif{}, err
	}
	locked, err := s.store.Lock(ctx, kind, g.ID, user)
	return FromGlif(locked, false), err
}

// Unlock releases user's lock. Unlocking an unlocked glif succeeds.
func (s *GlifService) Unlock(ctx context.Context, kind glif.Kind, ref Ref, user *store.User) (Glif, error) {
	g, err := s.resolve(ctx, kind, ref)
	if err != nil {
		return Glif{}, err
	}
	unlocked, err := s.store.Unlock(ctx, kind, g.ID, user, false)
	return FromGlif(unlocked, false), err
}

// Delete removes a glif and returns its tombstone. The caller must hold the
// lock unless opts.IgnoreLock is set.
func (s *GlifService) Delete(ctx context.Context, kind glif.Kind, ref Ref, user *store.User, opts EditOptions) (Tombstone, error) {
	g, err := s.resolve(ctx, kind, ref)
	if err != nil {
		return Tombstone{}, err
	}
	if err := checkLock(g, user, opts); err != nil {
		return Tombstone{}, err
	}
	tombstone, err := s.store.DeleteGlif(ctx, kind, g.ID, user)
	if err != nil {
		return Tombstone{}, err
	}
	return FromTombstone(tombstone), nil
}

// Describe returns the glif with its data, layers, and component graph.
func (s *GlifService) Describe(ctx context.Context, kind glif.Kind, ref Ref) (Glif, error) {
	g, err := s.resolve(ctx, kind, ref)
	if err != nil {
		return Glif{}, err
	}
	dto := FromGlif(g, true)
	node, err := s.expander.Describe(ctx, kind, g.ID)
	if err != nil {
		return Glif{}, err
	}
	dto.MadeOf = node.MadeOf
	dto.UsedBy = node.UsedBy
	if layerKind, ok := kind.LayerKind(); ok {
		layers, err := s.store.ListLayers(ctx, layerKind, g.ID)
		if err != nil {
			return Glif{}, err
		}
		for _, l := range layers {
			dto.Layers = append(dto.Layers, FromLayer(l, false))
		}
	}
	return dto, nil
}

// List returns the glifs of kind in a font.
func (s *GlifService) List(ctx context.Context, kind glif.Kind, fontID int64, filter store.GlifFilter) ([]Glif, error) {
	if err := requireGlifKind(kind); err != nil {
		return nil, err
	}
	glifs, err := s.store.ListGlifs(ctx, kind, fontID, filter)
	if err != nil {
		return nil, err
	}
	return FromGlifs(glifs), nil
}

func (s *GlifService) resolve(ctx context.Context, kind glif.Kind, ref Ref) (*store.Glif, error) {
	if err := requireGlifKind(kind); err != nil {
		return nil, err
	}
	switch {
	case ref.ID != 0:
		g, err := s.store.GetGlif(ctx, kind, ref.ID)
		if err != nil {
			return nil, err
		}
		if ref.FontID != 0 && g.FontID != ref.FontID {
			return nil, fmt.Errorf("%w: %s %s", services.ErrNotFound, kind.Label(), ref)
		}
		return g, nil
	case strings.TrimSpace(ref.Name) != "":
		return s.store.FindGlif(ctx, kind, ref.FontID, strings.TrimSpace(ref.Name))
	default:
		return nil, &services.ValidationError{Field: "ref", Message: "an id or a name is required"}
	}
}

func requireGlifKind(kind glif.Kind) error {
	if !kind.Valid() || kind.IsLayer() {
		return &services.ValidationError{Field: "kind", Message: fmt.Sprintf("%q is not a glif kind", kind)}
	}
	return nil
}

func checkLock(g *store.Glif, user *store.User, opts EditOptions) error {
	if opts.IgnoreLock || g.IsLockedBy(user) {
		return nil
	}
	username := ""
	if user != nil {
		username = user.Username
	}
	return &services.NotLockedByUserError{Kind: g.Kind.Label(), Name: g.Name, Username: username}
}
