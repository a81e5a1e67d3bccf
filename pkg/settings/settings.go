// Package settings manages persistent user settings for the netprof CLI.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Settings holds persistent user preferences
type Settings struct {
	// RulesFile is the classification rules CSV used when --rules is not given
	RulesFile string `json:"rules_file,omitempty"`

	// MetricsFile is the metric catalog used when --metrics is not given
	MetricsFile string `json:"metrics_file,omitempty"`

	// ProfileFile is the deployment profile used when --profile is not given
	ProfileFile string `json:"profile_file,omitempty"`

	// RedisAddr is the snapshot store used when --redis is not given
	RedisAddr string `json:"redis_addr,omitempty"`
}

// DefaultSettingsPath returns the default path for the settings file
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "netprof_settings.json"
	}
	return filepath.Join(home, ".netprof", "settings.json")
}

// Load reads settings from the default location
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from a specific path
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty settings if file doesn't exist
			return s, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing settings %s: %w", path, err)
	}

	return s, nil
}

// Save writes settings to the default location
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to a specific path
func (s *Settings) SaveTo(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// fields maps settings keys, as named in the JSON file, to their storage.
func (s *Settings) fields() map[string]*string {
	return map[string]*string{
		"rules_file":   &s.RulesFile,
		"metrics_file": &s.MetricsFile,
		"profile_file": &s.ProfileFile,
		"redis_addr":   &s.RedisAddr,
	}
}

// Keys returns the settable keys in sorted order.
func (s *Settings) Keys() []string {
	var keys []string
	for k := range s.fields() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set assigns value to key. An empty value clears the key.
func (s *Settings) Set(key, value string) error {
	field, ok := s.fields()[key]
	if !ok {
		return fmt.Errorf("unknown setting %q (valid: %v)", key, s.Keys())
	}
	*field = value
	return nil
}

// Get returns the value of key.
func (s *Settings) Get(key string) (string, bool) {
	field, ok := s.fields()[key]
	if !ok {
		return "", false
	}
	return *field, true
}

// Clear resets all settings to defaults
func (s *Settings) Clear() {
	*s = Settings{}
}
