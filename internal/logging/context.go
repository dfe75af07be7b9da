package logging

import (
	"context"
	"log/slog"

	"rcjk/internal/services"
)

// Standard structured logging keys.
const (
	FieldComponent = "component"
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact  = "impact"
	FieldRunID   = "run_id"
	FieldProject = "project"
	FieldFont    = "font"
	FieldKind    = "kind"
)

// ContextFields extracts run, project, and font attributes from ctx.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if project, ok := services.ProjectFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldProject, project))
	}
	if font, ok := services.FontFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldFont, font))
	}
	return fields
}

// WithContext returns a logger augmented with the fields carried by ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
