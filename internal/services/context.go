package services

import "context"

type contextKey string

const (
	runIDKey   contextKey = "run_id"
	projectKey contextKey = "project"
	fontKey    contextKey = "font"
)

// WithRunID annotates context with an export or import run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithProject annotates context with the project slug.
func WithProject(ctx context.Context, slug string) context.Context {
	if slug == "" {
		return ctx
	}
	return context.WithValue(ctx, projectKey, slug)
}

// ProjectFromContext returns the project slug if present.
func ProjectFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(projectKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithFont annotates context with the font name.
func WithFont(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, fontKey, name)
}

// FontFromContext returns the font name if present.
func FontFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(fontKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
