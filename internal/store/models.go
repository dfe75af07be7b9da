package store

import (
	"strings"
	"time"

	"rcjk/internal/glif"
)

// User is an editor account.
type User struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
	Email     string
	IsActive  bool
	CreatedAt time.Time
}

// FullName returns "First Last", falling back to the username.
func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	full := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if full == "" {
		return u.Username
	}
	return full
}

// CanEdit reports whether the user may take or release locks: it must be a
// stored, active account.
func (u *User) CanEdit() bool {
	return u != nil && u.ID != 0 && u.IsActive
}

// EditorEntry is one element of an entity's editor history, newest first.
type EditorEntry struct {
	UserID   int64     `json:"user_id"`
	Username string    `json:"username"`
	At       time.Time `json:"at"`
}

// Timestamps are the bookkeeping fields shared by every edited entity.
type Timestamps struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	UpdatedBy *int64
	Editors   []EditorEntry
}

// ExportState tracks the single-flight export guard and its last window.
type ExportState struct {
	ExportEnabled     bool
	ExportRunning     bool
	ExportStartedAt   *time.Time
	ExportCompletedAt *time.Time
}

// Project groups fonts published to one git repository.
type Project struct {
	ID         int64
	Name       string
	Slug       string
	RepoURL    string
	RepoBranch string
	ExportState
	Timestamps
}

// Font is one .rcjk font source inside a project.
type Font struct {
	ID          int64
	ProjectID   int64
	Name        string
	Slug        string
	FontLib     string
	Features    string
	Designspace string
	Available   bool
	ExportState
	Timestamps
}

// GlyphsComposition holds the free-form composition document of a font.
type GlyphsComposition struct {
	ID     int64
	FontID int64
	Data   string
	Timestamps
}

// Glif is an atomic element, deep component, or character glyph.
type Glif struct {
	ID     int64
	Kind   glif.Kind
	FontID int64
	Data   string
	glif.Fields
	glif.StatusState

	IsLocked        bool
	LockedBy        *int64
	LockedAt        *time.Time
	LayersUpdatedAt *time.Time
	Deleted         bool
	Timestamps

	// prev is the parsed data as last loaded or saved; nil for new records.
	prev *glif.Data
}

// NewGlif returns an unsaved glif of kind in fontID carrying data.
func NewGlif(kind glif.Kind, fontID int64, data string) *Glif {
	return &Glif{Kind: kind, FontID: fontID, Data: data}
}

// IsLockedBy reports whether user currently holds the lock on g.
func (g *Glif) IsLockedBy(user *User) bool {
	return g != nil && user != nil && g.IsLocked && g.LockedBy != nil && *g.LockedBy == user.ID
}

// Layer is a named variant of an atomic element or character glyph.
type Layer struct {
	ID        int64
	Kind      glif.Kind
	GlifID    int64
	GroupName string
	Data      string
	glif.Fields
	CreatedAt time.Time
	UpdatedAt time.Time
	UpdatedBy *int64
}

// NewLayer returns an unsaved layer of kind under the parent glif.
func NewLayer(kind glif.Kind, glifID int64, groupName, data string) *Layer {
	return &Layer{Kind: kind, GlifID: glifID, GroupName: groupName, Data: data}
}

// DeletedGlif is a tombstone describing a removed glif or layer file.
type DeletedGlif struct {
	ID        int64
	GlifType  glif.Kind
	GlifID    int64
	FontID    int64
	Name      string
	GroupName string
	Filename  string
	Filepath  string // relative to the font directory
	DeletedAt time.Time
	DeletedBy *int64
}

// ImportStatus is the lifecycle state of a FontImport job.
type ImportStatus string

const (
	ImportWaiting   ImportStatus = "waiting"
	ImportLoading   ImportStatus = "loading"
	ImportCompleted ImportStatus = "completed"
	ImportError     ImportStatus = "error"
)

// FontImport is an archive upload job for one font.
type FontImport struct {
	ID          int64
	FontID      int64
	ArchivePath string
	Status      ImportStatus
	Logs        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	UpdatedBy   *int64
}
