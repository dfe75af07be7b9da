package api

import (
	"rcjk/internal/glif"
	"rcjk/internal/graph"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Editor is one entry of an entity's editor history.
type Editor struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	At       string `json:"at"`
}

// Glif describes an atomic element, deep component, or character glyph.
type Glif struct {
	ID                 int64       `json:"id"`
	Kind               glif.Kind   `json:"kind"`
	FontID             int64       `json:"fontId"`
	Name               string      `json:"name"`
	Filename           string      `json:"filename"`
	UnicodeHex         string      `json:"unicodeHex,omitempty"`
	Unicodes           []int       `json:"unicodes,omitempty"`
	Components         string      `json:"components,omitempty"`
	IsEmpty            bool        `json:"isEmpty"`
	HasOutlines        bool        `json:"hasOutlines"`
	HasComponents      bool        `json:"hasComponents"`
	HasUnicode         bool        `json:"hasUnicode"`
	HasVariationAxis   bool        `json:"hasVariationAxis"`
	Status             glif.Status `json:"status"`
	PreviousStatus     glif.Status `json:"previousStatus,omitempty"`
	StatusChangedAt    string      `json:"statusChangedAt,omitempty"`
	StatusDowngraded   bool        `json:"statusDowngraded"`
	StatusDowngradedAt string      `json:"statusDowngradedAt,omitempty"`
	IsLocked           bool        `json:"isLocked"`
	LockedBy           *int64      `json:"lockedBy,omitempty"`
	LockedAt           string      `json:"lockedAt,omitempty"`
	LayersUpdatedAt    string      `json:"layersUpdatedAt,omitempty"`
	CreatedAt          string      `json:"createdAt,omitempty"`
	UpdatedAt          string      `json:"updatedAt,omitempty"`
	UpdatedBy          *int64      `json:"updatedBy,omitempty"`
	Editors            []Editor    `json:"editors,omitempty"`
	Data               string      `json:"data,omitempty"`

	MadeOf map[string][]*graph.Node    `json:"madeOf,omitempty"`
	UsedBy map[glif.Kind][]*graph.Node `json:"usedBy,omitempty"`
	Layers []Layer                     `json:"layers,omitempty"`
}

// Layer describes a named layer of an atomic element or character glyph.
type Layer struct {
	ID         int64     `json:"id"`
	Kind       glif.Kind `json:"kind"`
	GlifID     int64     `json:"glifId"`
	GroupName  string    `json:"groupName"`
	Name       string    `json:"name"`
	Filename   string    `json:"filename"`
	UnicodeHex string    `json:"unicodeHex,omitempty"`
	IsEmpty    bool      `json:"isEmpty"`
	CreatedAt  string    `json:"createdAt,omitempty"`
	UpdatedAt  string    `json:"updatedAt,omitempty"`
	UpdatedBy  *int64    `json:"updatedBy,omitempty"`
	Data       string    `json:"data,omitempty"`
}

// Tombstone describes a deleted glif or layer file.
type Tombstone struct {
	ID        int64     `json:"id"`
	Kind      glif.Kind `json:"kind"`
	GlifID    int64     `json:"glifId"`
	FontID    int64     `json:"fontId"`
	Name      string    `json:"name"`
	GroupName string    `json:"groupName,omitempty"`
	Filepath  string    `json:"filepath"`
	DeletedAt string    `json:"deletedAt"`
	DeletedBy *int64    `json:"deletedBy,omitempty"`
}

// Failure is the transport form of a rejected call.
type Failure struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
