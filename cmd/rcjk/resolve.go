package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"rcjk/internal/glif"
	"rcjk/internal/store"
)

// resolveProject accepts a numeric id or a slug.
func resolveProject(ctx context.Context, st *store.Store, ref string) (*store.Project, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return st.GetProject(ctx, id)
	}
	return st.GetProjectBySlug(ctx, ref)
}

func parseID(value, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, value)
	}
	return id, nil
}

// parseGlifKind accepts the glif kinds only, not layer kinds.
func parseGlifKind(value string) (glif.Kind, error) {
	kind, err := glif.ParseKind(value)
	if err != nil {
		return "", err
	}
	if kind.IsLayer() {
		return "", fmt.Errorf("%q is a layer kind; use the layer command", value)
	}
	return kind, nil
}

// readSource reads a document from path, or stdin when path is "-".
func readSource(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func displayTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
