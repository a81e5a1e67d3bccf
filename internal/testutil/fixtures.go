// Package testutil provides test helpers: counter tree fixtures, and Redis
// access for integration tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// TelemetryDir returns the telemetry directory of interface dir name under
// root, e.g. root/cxi0/device/telemetry.
func TelemetryDir(root, name string) string {
	return filepath.Join(root, name, "device", "telemetry")
}

// WriteCounters creates dir and writes one file per counter.
func WriteCounters(t testing.TB, dir string, counters map[string]string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating %s: %v", dir, err)
	}
	for name, content := range counters {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("writing counter %s: %v", name, err)
		}
	}
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}
