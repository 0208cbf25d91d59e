package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultMatchesSpecSets(t *testing.T) {
	r := Default()
	if len(r.Honorifics) != 4 {
		t.Fatalf("expected 4 honorifics, got %d: %v", len(r.Honorifics), r.Honorifics)
	}
	if len(r.VariantSuffixes) != 7 {
		t.Fatalf("expected 7 variant suffixes, got %d: %v", len(r.VariantSuffixes), r.VariantSuffixes)
	}
	if r.MaxCharactersPerScene != 200 {
		t.Fatalf("expected default cap of 200, got %d", r.MaxCharactersPerScene)
	}
}

func TestLoadOverlaysOntoDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := "scene_markers:\n  - \"INT.\"\n  - \"EXT.\"\n  - \"PROLOGUE\"\nmax_characters_per_scene: 50\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.SceneMarkers) != 3 {
		t.Fatalf("expected overridden scene markers, got %v", r.SceneMarkers)
	}
	if r.MaxCharactersPerScene != 50 {
		t.Fatalf("expected overridden cap, got %d", r.MaxCharactersPerScene)
	}
	// Fields absent from the file fall back to the default.
	if len(r.Honorifics) != 4 {
		t.Fatalf("expected default honorifics to survive overlay, got %v", r.Honorifics)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
