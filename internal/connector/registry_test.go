package connector

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/hejijunhao/candidates/internal/model"
)

type stubSource struct{ base string }

func (s *stubSource) CountHits(context.Context, *zap.Logger, string, bool) (int, error) {
	return 0, nil
}

func (s *stubSource) Records(context.Context, *zap.Logger, string) ([]model.RawRecord, error) {
	return nil, nil
}

func TestRegisterAndOpen(t *testing.T) {
	Register("stub", func(cfg SourceConfig) (Source, error) {
		return &stubSource{base: cfg.BaseURL}, nil
	})

	src, err := Open(SourceConfig{Provider: "stub", BaseURL: "http://example.test"})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if got := src.(*stubSource).base; got != "http://example.test" {
		t.Fatalf("expected base URL to reach constructor, got %q", got)
	}

	found := false
	for _, name := range Providers() {
		if name == "stub" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected 'stub' in Providers(), got %v", Providers())
	}
}

func TestGetUnknownProvider(t *testing.T) {
	if _, err := Get("nope"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if _, err := Open(SourceConfig{Provider: "nope"}); err == nil {
		t.Fatal("expected error from Open for unknown provider")
	}
}
