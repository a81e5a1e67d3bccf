package settings

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSettings_SetGet(t *testing.T) {
	s := &Settings{}

	if err := s.Set("rules_file", "/etc/netprof/grouping_rules.csv"); err != nil {
		t.Fatalf("Set(rules_file) failed: %v", err)
	}
	if s.RulesFile != "/etc/netprof/grouping_rules.csv" {
		t.Errorf("Set(rules_file) stored %q", s.RulesFile)
	}

	if err := s.Set("redis_addr", "127.0.0.1:6379"); err != nil {
		t.Fatalf("Set(redis_addr) failed: %v", err)
	}
	if got, ok := s.Get("redis_addr"); !ok || got != "127.0.0.1:6379" {
		t.Errorf("Get(redis_addr) = %q, %v", got, ok)
	}

	if err := s.Set("rules_file", ""); err != nil {
		t.Fatalf("Set(rules_file, \"\") failed: %v", err)
	}
	if s.RulesFile != "" {
		t.Errorf("empty value should clear rules_file, got %q", s.RulesFile)
	}
}

func TestSettings_SetUnknown(t *testing.T) {
	s := &Settings{}
	if err := s.Set("spec_dir", "/x"); err == nil {
		t.Error("Set() with unknown key should error")
	}
	if _, ok := s.Get("spec_dir"); ok {
		t.Error("Get() with unknown key should report false")
	}
}

func TestSettings_Keys(t *testing.T) {
	want := []string{"metrics_file", "profile_file", "redis_addr", "rules_file"}
	if got := (&Settings{}).Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
}

func TestSettings_Clear(t *testing.T) {
	s := &Settings{
		RulesFile:   "rules.csv",
		MetricsFile: "metrics.txt",
		ProfileFile: "profile.yaml",
		RedisAddr:   "localhost:6379",
	}

	s.Clear()

	if *s != (Settings{}) {
		t.Error("Clear() should reset all fields to empty")
	}
}

func TestSettings_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	original := &Settings{
		RulesFile:   "/etc/netprof/grouping_rules.csv",
		MetricsFile: "/etc/netprof/metrics.txt",
		ProfileFile: "/etc/netprof/profile.yaml",
		RedisAddr:   "10.0.0.5:6379",
	}

	if err := original.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() failed: %v", err)
	}
	if *loaded != *original {
		t.Errorf("round trip mismatch: got %+v, want %+v", *loaded, *original)
	}
}

func TestSettings_LoadNonExistent(t *testing.T) {
	// Load from non-existent path should return empty settings
	s, err := LoadFrom("/nonexistent/path/settings.json")
	if err != nil {
		t.Fatalf("LoadFrom() non-existent should not error: %v", err)
	}
	if s == nil {
		t.Fatal("LoadFrom() should return non-nil Settings")
	}
	if *s != (Settings{}) {
		t.Error("LoadFrom() non-existent should return empty settings")
	}
}

func TestSettings_LoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("invalid json {"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom() with invalid JSON should error")
	}
}

func TestSettings_SaveCreatesDirectory(t *testing.T) {
	// Path with non-existent directory
	path := filepath.Join(t.TempDir(), "subdir", "nested", "settings.json")

	s := &Settings{RulesFile: "rules.csv"}
	if err := s.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() should create directories: %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("SaveTo() should have created the file")
	}
}

func TestLoadSave_DefaultPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	s, err := Load()
	if err != nil {
		t.Fatalf("Load() with non-existent file should not error: %v", err)
	}
	if s.MetricsFile != "" {
		t.Error("Load() with non-existent file should return empty settings")
	}

	s.MetricsFile = "/data/metrics.txt"
	if err := s.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	expectedPath := filepath.Join(os.Getenv("HOME"), ".netprof", "settings.json")
	if _, err := os.Stat(expectedPath); os.IsNotExist(err) {
		t.Fatalf("Save() did not create file at %s", expectedPath)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() after Save() failed: %v", err)
	}
	if loaded.MetricsFile != "/data/metrics.txt" {
		t.Errorf("After Save(), MetricsFile = %q, want %q", loaded.MetricsFile, "/data/metrics.txt")
	}
}

func TestDefaultSettingsPath_NoHome(t *testing.T) {
	t.Setenv("HOME", "")

	path := DefaultSettingsPath()
	if path != "netprof_settings.json" {
		t.Errorf("DefaultSettingsPath() with no HOME = %q, want %q", path, "netprof_settings.json")
	}
}

func TestLoadFrom_ReadError(t *testing.T) {
	// A directory where the file should be causes an "is a directory" error
	dirAsFile := filepath.Join(t.TempDir(), "settings.json")
	if err := os.Mkdir(dirAsFile, 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	if _, err := LoadFrom(dirAsFile); err == nil {
		t.Error("LoadFrom() should error when path is a directory")
	}
}

func TestSaveTo_MkdirError(t *testing.T) {
	tmpDir := t.TempDir()

	// A file where we want a directory to be makes MkdirAll fail
	blockingFile := filepath.Join(tmpDir, "blocker")
	if err := os.WriteFile(blockingFile, []byte("blocking"), 0644); err != nil {
		t.Fatalf("Failed to create blocking file: %v", err)
	}

	path := filepath.Join(blockingFile, "subdir", "settings.json")
	s := &Settings{RulesFile: "rules.csv"}

	if err := s.SaveTo(path); err == nil {
		t.Error("SaveTo() should fail when directory creation fails")
	}
}
