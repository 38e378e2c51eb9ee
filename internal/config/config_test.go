package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Engine.Workers != 0 {
		t.Errorf("expected workers 0 (one per CPU), got %d", cfg.Engine.Workers)
	}
	if cfg.Engine.Partitions != 4 {
		t.Errorf("expected 4 partitions, got %d", cfg.Engine.Partitions)
	}
	if cfg.Engine.CutDistance != 0.01 {
		t.Errorf("expected cut distance 0.01, got %f", cfg.Engine.CutDistance)
	}
	if cfg.Engine.AdjustFraction != 0.2 {
		t.Errorf("expected adjust fraction 0.2, got %f", cfg.Engine.AdjustFraction)
	}
	if cfg.Mesh.Submeshes > cfg.Mesh.NX {
		t.Errorf("default submeshes %d exceed nx %d", cfg.Mesh.Submeshes, cfg.Mesh.NX)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), FileName)

	yamlContent := `
engine:
  workers: 6
  partitions: 2
  cut_distance: 0.02
  parallel_tolerance: 0.05

mesh:
  nx: 4
  ny: 2
  nz: 3
  size: 0.5
  submeshes: 1

blade:
  frames: 10
  step: 0.1
  normal: [0, 1, 0]

logging:
  level: "debug"
  log_file: "kerf.log"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := decodeFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Engine.Workers != 6 || cfg.Engine.Partitions != 2 {
		t.Errorf("engine not loaded: %+v", cfg.Engine)
	}
	if cfg.Engine.CutDistance != 0.02 {
		t.Errorf("expected cut distance 0.02, got %f", cfg.Engine.CutDistance)
	}
	// Keys missing from the file keep their defaults.
	if cfg.Engine.AdjustFraction != 0.2 {
		t.Errorf("expected default adjust fraction, got %f", cfg.Engine.AdjustFraction)
	}
	if cfg.Mesh.NX != 4 || cfg.Mesh.NY != 2 || cfg.Mesh.NZ != 3 || cfg.Mesh.Size != 0.5 {
		t.Errorf("mesh not loaded: %+v", cfg.Mesh)
	}
	if cfg.Blade.Normal != [3]float32{0, 1, 0} {
		t.Errorf("expected normal [0 1 0], got %v", cfg.Blade.Normal)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.LogFile != "kerf.log" {
		t.Errorf("logging not loaded: %+v", cfg.Logging)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")

	invalidYAML := `
engine:
  workers: not a number
  invalid syntax here
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := decodeFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := decodeFile(cfg, "/nonexistent/path/kerf.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	dir := ConfigDir()
	if dir == "" {
		t.Skip("no user config directory on this platform")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
	if filepath.Base(dir) != "kerf" {
		t.Errorf("expected a kerf directory, got %s", dir)
	}
}

func TestResolvePath(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	t.Setenv(EnvPath, "")

	if path, err := resolvePath(); err != nil || path != "" {
		t.Errorf("expected no path when no config exists, got %q, %v", path, err)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, FileName), []byte("mesh:\n  nx: 2\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path, err := resolvePath(); err != nil || path != FileName {
		t.Errorf("expected %s in current directory, got %q, %v", FileName, path, err)
	}

	envPath := filepath.Join(tmpDir, "other.yaml")
	if err := os.WriteFile(envPath, nil, 0644); err != nil {
		t.Fatalf("failed to create env config: %v", err)
	}
	t.Setenv(EnvPath, envPath)
	if path, err := resolvePath(); err != nil || path != envPath {
		t.Errorf("expected %s from %s, got %q, %v", envPath, EnvPath, path, err)
	}

	// The flag outranks the environment.
	*flagConfig = filepath.Join(tmpDir, FileName)
	defer func() { *flagConfig = "" }()
	if path, err := resolvePath(); err != nil || path != *flagConfig {
		t.Errorf("expected flag path, got %q, %v", path, err)
	}

	// A named file that does not exist is an error, not a silent default.
	*flagConfig = filepath.Join(tmpDir, "missing.yaml")
	if _, err := resolvePath(); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist for missing flag path, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
		return path
	}

	t.Run("empty file keeps defaults", func(t *testing.T) {
		cfg, err := LoadFile(write("empty.yaml", ""))
		if err != nil {
			t.Fatalf("failed to load empty file: %v", err)
		}
		if *cfg != *Default() {
			t.Errorf("expected defaults, got %+v", cfg)
		}
	})

	t.Run("values override defaults", func(t *testing.T) {
		cfg, err := LoadFile(write("ok.yaml", "engine:\n  partitions: 6\n"))
		if err != nil {
			t.Fatalf("failed to load: %v", err)
		}
		if cfg.Engine.Partitions != 6 {
			t.Errorf("expected 6 partitions, got %d", cfg.Engine.Partitions)
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		path := write("typo.yaml", "engine:\n  cut_distanse: 0.1\n")
		_, err := LoadFile(path)
		if err == nil {
			t.Fatal("expected error for misspelled key, got nil")
		}
		if !strings.Contains(err.Error(), path) {
			t.Errorf("error does not name the file: %v", err)
		}
	})

	t.Run("invalid value", func(t *testing.T) {
		path := write("bad.yaml", "engine:\n  adjust_fraction: 1.5\n")
		_, err := LoadFile(path)
		if !errors.Is(err, ErrInvalid) {
			t.Fatalf("expected ErrInvalid, got %v", err)
		}
		if !strings.Contains(err.Error(), path) {
			t.Errorf("error does not name the file: %v", err)
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative workers", func(c *Config) { c.Engine.Workers = -1 }},
		{"no partitions", func(c *Config) { c.Engine.Partitions = 0 }},
		{"cut distance too large", func(c *Config) { c.Engine.CutDistance = 0.5 }},
		{"adjust fraction zero", func(c *Config) { c.Engine.AdjustFraction = 0 }},
		{"parallel tolerance one", func(c *Config) { c.Engine.ParallelTolerance = 1 }},
		{"empty mesh", func(c *Config) { c.Mesh.NY = 0 }},
		{"zero size", func(c *Config) { c.Mesh.Size = 0 }},
		{"more submeshes than columns", func(c *Config) { c.Mesh.Submeshes = c.Mesh.NX + 1 }},
		{"zero step", func(c *Config) { c.Blade.Step = 0 }},
		{"zero normal", func(c *Config) { c.Blade.Normal = [3]float32{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "workers flag",
			setup: func() { *flagWorkers = 3 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Engine.Workers != 3 {
					t.Errorf("expected 3 workers, got %d", cfg.Engine.Workers)
				}
			},
			teardown: func() { *flagWorkers = 0 },
		},
		{
			name: "frames and partitions flags",
			setup: func() {
				*flagFrames = 5
				*flagPartitions = 7
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Blade.Frames != 5 {
					t.Errorf("expected 5 frames, got %d", cfg.Blade.Frames)
				}
				if cfg.Engine.Partitions != 7 {
					t.Errorf("expected 7 partitions, got %d", cfg.Engine.Partitions)
				}
			},
			teardown: func() {
				*flagFrames = 0
				*flagPartitions = 0
			},
		},
		{
			name:  "zero flags keep config",
			setup: func() {},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Engine.Partitions != 4 || cfg.Blade.Frames != 60 {
					t.Errorf("defaults changed: %+v %+v", cfg.Engine, cfg.Blade)
				}
			},
			teardown: func() {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), FileName)

	yamlContent := `
engine:
  workers: 2
  partitions: 3
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv(EnvPath, "")
	*flagConfig = configPath
	*flagWorkers = 8
	defer func() {
		*flagConfig = ""
		*flagWorkers = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Engine.Workers != 8 {
		t.Errorf("expected 8 workers from flag, got %d", cfg.Engine.Workers)
	}
	if cfg.Engine.Partitions != 3 {
		t.Errorf("expected 3 partitions from file, got %d", cfg.Engine.Partitions)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(configPath, []byte("mesh:\n  size: -1\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv(EnvPath, "")
	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	_, err := Load()
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), configPath) {
		t.Errorf("error does not name the file: %v", err)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	cfg := Default()
	cfg.Engine.Workers = 5
	cfg.Blade.Normal = [3]float32{0, 0, 1}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	loaded := Default()
	if err := decodeFile(loaded, path); err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	if loaded.Engine.Workers != 5 || loaded.Blade.Normal != cfg.Blade.Normal {
		t.Errorf("saved config not reloaded: %+v", loaded)
	}
}
