package services_test

import (
	"context"
	"testing"

	"rcjk/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-1")
	ctx = services.WithProject(ctx, "hanzi")
	ctx = services.WithFont(ctx, "Sans")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-1" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if slug, ok := services.ProjectFromContext(ctx); !ok || slug != "hanzi" {
		t.Fatalf("unexpected project: %v %v", slug, ok)
	}
	if font, ok := services.FontFromContext(ctx); !ok || font != "Sans" {
		t.Fatalf("unexpected font: %v %v", font, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	if services.WithRunID(ctx, "") != ctx {
		t.Fatal("expected blank run id to return the same context")
	}
	if _, ok := services.FontFromContext(services.WithFont(ctx, "")); ok {
		t.Fatal("expected no font for blank value")
	}
}
