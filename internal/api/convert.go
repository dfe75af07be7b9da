package api

import (
	"time"

	"rcjk/internal/glif"
	"rcjk/internal/services"
	"rcjk/internal/store"
)

// FromGlif converts a store glif to its API representation. The raw XML is
// included only when withData is set.
func FromGlif(g *store.Glif, withData bool) Glif {
	if g == nil {
		return Glif{}
	}
	dto := Glif{
		ID:                 g.ID,
		Kind:               g.Kind,
		FontID:             g.FontID,
		Name:               g.Name,
		Filename:           g.Filename,
		UnicodeHex:         g.UnicodeHex,
		Components:         g.Components,
		IsEmpty:            g.IsEmpty,
		HasOutlines:        g.HasOutlines,
		HasComponents:      g.HasComponents,
		HasUnicode:         g.HasUnicode,
		HasVariationAxis:   g.HasVariationAxis,
		Status:             g.Status,
		PreviousStatus:     g.PreviousStatus,
		StatusChangedAt:    formatTimePtr(g.StatusChangedAt),
		StatusDowngraded:   g.StatusDowngraded,
		StatusDowngradedAt: formatTimePtr(g.StatusDowngradedAt),
		IsLocked:           g.IsLocked,
		LockedBy:           g.LockedBy,
		LockedAt:           formatTimePtr(g.LockedAt),
		LayersUpdatedAt:    formatTimePtr(g.LayersUpdatedAt),
		CreatedAt:          formatTime(g.CreatedAt),
		UpdatedAt:          formatTime(g.UpdatedAt),
		UpdatedBy:          g.UpdatedBy,
		Editors:            fromEditors(g.Editors),
	}
	if g.UnicodeHex != "" {
		dto.Unicodes = glif.UnicodesFromHex(g.UnicodeHex)
	}
	if withData {
		dto.Data = g.Data
	}
	return dto
}

// FromGlifs converts a slice of store glifs without their data.
func FromGlifs(glifs []*store.Glif) []Glif {
	if len(glifs) == 0 {
		return nil
	}
	out := make([]Glif, 0, len(glifs))
	for _, g := range glifs {
		out = append(out, FromGlif(g, false))
	}
	return out
}

// FromLayer converts a store layer to its API representation.
func FromLayer(l *store.Layer, withData bool) Layer {
	if l == nil {
		return Layer{}
	}
	dto := Layer{
		ID:         l.ID,
		Kind:       l.Kind,
		GlifID:     l.GlifID,
		GroupName:  l.GroupName,
		Name:       l.Name,
		Filename:   l.Filename,
		UnicodeHex: l.UnicodeHex,
		IsEmpty:    l.IsEmpty,
		CreatedAt:  formatTime(l.CreatedAt),
		UpdatedAt:  formatTime(l.UpdatedAt),
		UpdatedBy:  l.UpdatedBy,
	}
	if withData {
		dto.Data = l.Data
	}
	return dto
}

// FromTombstone converts a deletion record.
func FromTombstone(t *store.DeletedGlif) Tombstone {
	if t == nil {
		return Tombstone{}
	}
	return Tombstone{
		ID:        t.ID,
		Kind:      t.GlifType,
		GlifID:    t.GlifID,
		FontID:    t.FontID,
		Name:      t.Name,
		GroupName: t.GroupName,
		Filepath:  t.Filepath,
		DeletedAt: formatTime(t.DeletedAt),
		DeletedBy: t.DeletedBy,
	}
}

// FailureFrom describes err for a transport response. It returns nil for a
// nil error.
func FailureFrom(err error) *Failure {
	if err == nil {
		return nil
	}
	return &Failure{Kind: services.Kind(err), Message: err.Error()}
}

func fromEditors(entries []store.EditorEntry) []Editor {
	if len(entries) == 0 {
		return nil
	}
	out := make([]Editor, 0, len(entries))
	for _, e := range entries {
		out = append(out, Editor{UserID: e.UserID, Username: e.Username, At: formatTime(e.At)})
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}
