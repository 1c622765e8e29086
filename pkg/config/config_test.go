package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file must not be an error: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.Limits.MaxContextTokens != 8192 {
		t.Fatalf("got %+v, want defaults", cfg)
	}
	if cfg.Reasoning.Prefix != "<think>" || cfg.Reasoning.Suffix != "</think>" {
		t.Fatalf("default reasoning tags missing: %+v", cfg.Reasoning)
	}
}

func TestLoadOverridesOnlySetFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fable.yaml")
	body := "addr: \":9000\"\nengine:\n  kind: gemini\n  model: gemini-2.0-flash\nlimits:\n  max_response_tokens: 512\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9000" || cfg.Engine.Kind != "gemini" || cfg.Engine.Model != "gemini-2.0-flash" {
		t.Fatalf("got %+v", cfg)
	}
	if cfg.Limits.MaxResponseTokens != 512 {
		t.Fatalf("max_response_tokens = %d, want 512", cfg.Limits.MaxResponseTokens)
	}
	// Fields the file never mentions keep their defaults.
	if cfg.Limits.MaxContextTokens != 8192 || cfg.Limits.LorebookBudget != 1024 {
		t.Fatalf("unset limits must stay at defaults: %+v", cfg.Limits)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("addr: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected a parse error")
	}
}
