package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := &Config{
		APIBaseURL:          "http://localhost:8000/api",
		DefaultProfile:      "work",
		PollIntervalSeconds: 5,
	}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DefaultProfile != "work" {
		t.Errorf("DefaultProfile = %q, want %q", loaded.DefaultProfile, "work")
	}
	if loaded.APIBaseURL != "http://localhost:8000/api" {
		t.Errorf("APIBaseURL = %q", loaded.APIBaseURL)
	}
	if loaded.PollInterval() != 5*time.Second {
		t.Errorf("PollInterval() = %v, want 5s", loaded.PollInterval())
	}
}

func TestPollIntervalDefault(t *testing.T) {
	cfg := &Config{}
	if cfg.PollInterval() != 3*time.Second {
		t.Errorf("PollInterval() = %v, want 3s default", cfg.PollInterval())
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := Save(path, &Config{DefaultProfile: "main"}); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}
