package testsupport

import (
	"context"
	"testing"

	"rcjk/internal/config"
	"rcjk/internal/glif"
	"rcjk/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config, opts ...store.Option) *store.Store {
	t.Helper()

	st, err := store.Open(cfg, opts...)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

// Fixture is a user, project, and font ready for glif tests.
type Fixture struct {
	User    *store.User
	Project *store.Project
	Font    *store.Font
}

// MustSeed creates an active user, a project, and a font.
func MustSeed(t testing.TB, st *store.Store) Fixture {
	t.Helper()
	ctx := context.Background()

	user := MustUser(t, st, "alice")
	project := MustProject(t, st, "Test Project", "https://example.invalid/test-project.git", user)
	font, err := st.CreateFont(ctx, project.ID, "Hanzi Sans", user)
	if err != nil {
		t.Fatalf("create font: %v", err)
	}
	return Fixture{User: user, Project: project, Font: font}
}

// MustProject creates a project pointing at repoURL on the default branch.
func MustProject(t testing.TB, st *store.Store, name, repoURL string, user *store.User) *store.Project {
	t.Helper()
	project, err := st.CreateProject(context.Background(), name, repoURL, "", user)
	if err != nil {
		t.Fatalf("create project %s: %v", name, err)
	}
	return project
}

// MustUser creates an active user with a display name.
func MustUser(t testing.TB, st *store.Store, username string) *store.User {
	t.Helper()
	user, err := st.CreateUser(context.Background(), username, username, "Tester", username+"@example.com")
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

// MustSaveGlif creates a glif of kind in fontID from g.
func MustSaveGlif(t testing.TB, st *store.Store, kind glif.Kind, fontID int64, g Glif, user *store.User) *store.Glif {
	t.Helper()
	record := store.NewGlif(kind, fontID, GlifXML(g))
	if err := st.SaveGlif(context.Background(), record, user); err != nil {
		t.Fatalf("save %s %s: %v", kind, g.Name, err)
	}
	return record
}
