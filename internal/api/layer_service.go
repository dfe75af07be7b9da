package api

import (
	"context"
	"errors"
	"fmt"

	"rcjk/internal/glif"
	"rcjk/internal/services"
	"rcjk/internal/store"
)

// PutLayer creates or replaces the layer named in data under group of the
// parent glif. The caller must hold the parent's lock unless opts.IgnoreLock
// is set.
func (s *GlifService) PutLayer(ctx context.Context, parentKind glif.Kind, parent Ref, group, data string, user *store.User, opts EditOptions) (Layer, error) {
	layerKind, ok := parentKind.LayerKind()
	if !ok {
		return Layer{}, &services.ValidationError{Field: "kind", Message: fmt.Sprintf("%s has no layers", parentKind.Label())}
	}
	owner, err := s.resolve(ctx, parentKind, parent)
	if err != nil {
		return Layer{}, err
	}
	if err := checkLock(owner, user, opts); err != nil {
		return Layer{}, err
	}
	parsed := glif.Parse(data)
	if !parsed.OK() {
		return Layer{}, parsed.Err()
	}

	layer, err := s.store.FindLayer(ctx, layerKind, owner.ID, group, parsed.Name())
	switch {
	case errors.Is(err, services.ErrNotFound):
		layer = store.NewLayer(layerKind, owner.ID, group, data)
	case err != nil:
		return Layer{}, err
	default:
		layer.Data = data
	}
	if err := s.store.SaveLayer(ctx, layer, user); err != nil {
		return Layer{}, err
	}
	return FromLayer(layer, true), nil
}

// DeleteLayer removes a layer by id. The caller must hold the parent's lock
// unless opts.IgnoreLock is set.
func (s *GlifService) DeleteLayer(ctx context.Context, layerKind glif.Kind, id int64, user *store.User, opts EditOptions) (Tombstone, error) {
	if !layerKind.IsLayer() {
		return Tombstone{}, &services.ValidationError{Field: "kind", Message: fmt.Sprintf("%q is not a layer kind", layerKind)}
	}
	layer, err := s.store.GetLayer(ctx, layerKind, id)
	if err != nil {
		return Tombstone{}, err
	}
	owner, err := s.store.GetGlif(ctx, layerKind.Parent(), layer.GlifID)
	if err != nil {
		return Tombstone{}, err
	}
	if err := checkLock(owner, user, opts); err != nil {
		return Tombstone{}, err
	}
	tombstone, err := s.store.DeleteLayer(ctx, layerKind, id, user)
	if err != nil {
		return Tombstone{}, err
	}
	return FromTombstone(tombstone), nil
}
