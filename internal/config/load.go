package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// FileName is the config file searched for when no path is given.
	FileName = "kerf.yaml"
	// EnvPath names a config file, below the -config flag in priority.
	EnvPath = "KERF_CONFIG"
)

// Load builds the run configuration: defaults, then the resolved file, then
// flags. The result is validated.
func Load() (*Config, error) {
	path, err := resolvePath()
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if path != "" {
		if err := decodeFile(cfg, path); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		if path != "" {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads one file over the defaults, without flags, and validates it.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := decodeFile(cfg, path); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// resolvePath picks the config file. A path named by the flag or by
// KERF_CONFIG must exist; otherwise the first SearchPaths entry present is
// used, and none at all means defaults only.
func resolvePath() (string, error) {
	for _, explicit := range []string{ConfigPath(), os.Getenv(EnvPath)} {
		if explicit == "" {
			continue
		}
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config %s: %w", explicit, err)
		}
		return explicit, nil
	}
	for _, path := range SearchPaths() {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}

// SearchPaths lists where kerf.yaml is looked for, working directory first.
func SearchPaths() []string {
	paths := []string{FileName}
	if dir := ConfigDir(); dir != "" {
		paths = append(paths, filepath.Join(dir, FileName))
	}
	return paths
}

// ConfigDir returns the per-user kerf directory, or "" when the platform
// has none.
func ConfigDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "kerf")
}

// decodeFile merges the YAML file at path into cfg. Unknown keys are
// rejected so a misspelled tolerance does not silently keep its default.
// An empty file changes nothing.
func decodeFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
