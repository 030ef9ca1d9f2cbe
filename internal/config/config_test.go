package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := Config{
		StorageDir:    filepath.Join(dir, "watchlists"),
		SpreadsheetID: "1AbCdEf",
		SheetName:     "Leads",
		Language:      "tr",
		Version:       "1.0",
	}

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	// InitTime must be stamped on first save
	if cfg.InitTime == 0 {
		t.Error("expected InitTime to be set on first save")
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	if loaded.StorageDir != cfg.StorageDir {
		t.Errorf("StorageDir = %q, want %q", loaded.StorageDir, cfg.StorageDir)
	}
	if loaded.SpreadsheetID != "1AbCdEf" {
		t.Errorf("SpreadsheetID = %q, want %q", loaded.SpreadsheetID, "1AbCdEf")
	}
	if loaded.InitTime != cfg.InitTime {
		t.Errorf("InitTime = %d, want %d", loaded.InitTime, cfg.InitTime)
	}
}

func TestSaveUsesRestrictivePermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := DefaultConfig()
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file permissions = %o, want 600", perm)
	}
}

func TestLoadFromAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := "storage_dir: /tmp/w\nversion: \"1.0\"\ninit_time: 1\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.SheetName != "Leads" {
		t.Errorf("SheetName default = %q, want Leads", cfg.SheetName)
	}
	if cfg.Language != "tr" {
		t.Errorf("Language default = %q, want tr", cfg.Language)
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	if _, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
