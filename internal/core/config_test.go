package core

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigManager_DefaultConfig(t *testing.T) {
	dir := t.TempDir()
	cm := NewConfigManagerWithDir(dir)

	cfg, err := cm.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Settings.Registry != "" || cfg.Settings.Catalog != "" || cfg.Settings.NoColor {
		t.Errorf("default settings not empty: %+v", cfg.Settings)
	}
}

func TestConfigManager_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	cm := NewConfigManagerWithDir(dir)

	cfg := &Config{}
	cfg.Settings.Registry = "~/custom-registry.json"
	cfg.Settings.Catalog = "/etc/capstan/catalog.yaml"
	cfg.Settings.NoColor = true

	if err := cm.Save(cfg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := cm.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.Settings.Registry != "~/custom-registry.json" {
		t.Errorf("registry = %q", loaded.Settings.Registry)
	}
	if loaded.Settings.Catalog != "/etc/capstan/catalog.yaml" {
		t.Errorf("catalog = %q", loaded.Settings.Catalog)
	}
	if !loaded.Settings.NoColor {
		t.Errorf("noColor lost on roundtrip")
	}
}

func TestConfigManager_SaveCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", ".capstan")
	cm := NewConfigManagerWithDir(dir)

	if err := cm.Save(&Config{}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if _, err := os.Stat(cm.ConfigPath()); err != nil {
		t.Errorf("config file missing: %v", err)
	}
}

func TestConfigManager_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	cm := NewConfigManagerWithDir(dir)

	if err := os.WriteFile(cm.ConfigPath(), []byte("{ bad"), 0o644); err != nil {
		t.Fatalf("seeding: %v", err)
	}
	if _, err := cm.Load(); err == nil {
		t.Errorf("Load() accepted corrupt config")
	}
}

func TestConfigManager_Paths(t *testing.T) {
	dir := t.TempDir()
	cm := NewConfigManagerWithDir(dir)

	if got := cm.ConfigDir(); got != dir {
		t.Errorf("ConfigDir() = %q, want %q", got, dir)
	}
	if got := cm.EnvFilePath(); got != filepath.Join(dir, ".env.capstan") {
		t.Errorf("EnvFilePath() = %q", got)
	}
}

func TestConfigManager_CatalogOverlayPath(t *testing.T) {
	dir := t.TempDir()
	cm := NewConfigManagerWithDir(dir)

	if got := cm.CatalogOverlayPath(&Config{}); got != filepath.Join(dir, "catalog.yaml") {
		t.Errorf("default overlay path = %q", got)
	}

	cfg := &Config{}
	cfg.Settings.Catalog = "/srv/shared/catalog.yaml"
	if got := cm.CatalogOverlayPath(cfg); got != "/srv/shared/catalog.yaml" {
		t.Errorf("override overlay path = %q", got)
	}
}
