package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.View.TileCacheBytes != DefaultTileCacheBytes {
		t.Errorf("expected default tile cache bytes, got %d", cfg.View.TileCacheBytes)
	}
	if cfg.View.ZoomLevel != DefaultZoomLevel {
		t.Errorf("expected default zoom level, got %d", cfg.View.ZoomLevel)
	}
	if cfg.Search.MaxResults != DefaultMaxSearchResults {
		t.Errorf("expected default max results, got %d", cfg.Search.MaxResults)
	}
}

func TestLoadReadsHexbaitKDL(t *testing.T) {
	dir := t.TempDir()
	content := `
view {
    zoom_level 3
    tile_cache_bytes "128MB"
}
search {
    last_pattern "MZ"
    case_insensitive true
}
grammar {
    default_path "grammars/pe.hb"
}
`
	if err := os.WriteFile(filepath.Join(dir, ".hexbait.kdl"), []byte(content), 0644); err != nil {
		t.Fatalf("write .hexbait.kdl: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.View.ZoomLevel != 3 {
		t.Errorf("expected zoom level 3, got %d", cfg.View.ZoomLevel)
	}
	if cfg.View.TileCacheBytes != 128*1024*1024 {
		t.Errorf("expected 128MB tile cache, got %d", cfg.View.TileCacheBytes)
	}
	if cfg.Search.LastPattern != "MZ" {
		t.Errorf("expected last pattern MZ, got %q", cfg.Search.LastPattern)
	}
	if !cfg.Search.CaseInsensitive {
		t.Errorf("expected case insensitive search")
	}
	want := filepath.Clean(filepath.Join(dir, "grammars/pe.hb"))
	if cfg.Grammar.DefaultPath != want {
		t.Errorf("expected grammar path %q, got %q", want, cfg.Grammar.DefaultPath)
	}
}

func TestLoadRejectsMalformedKDL(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".hexbait.kdl"), []byte("view { zoom_level"), 0644); err != nil {
		t.Fatalf("write .hexbait.kdl: %v", err)
	}

	if _, err := Load(dir); err == nil {
		t.Fatalf("expected error for malformed .hexbait.kdl")
	}
}
