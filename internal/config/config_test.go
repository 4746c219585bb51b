package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Test export defaults
	if !cfg.Export.NamePrefix {
		t.Error("expected name_prefix to be true by default")
	}
	if cfg.Export.Tangents {
		t.Error("expected tangents to be false by default")
	}
	if cfg.Export.IncludeEmpties {
		t.Error("expected include_empties to be false by default")
	}

	// Test build defaults
	if cfg.Build.AssetsDir != "assets" {
		t.Errorf("expected assets dir 'assets', got %s", cfg.Build.AssetsDir)
	}
	if cfg.Build.OutputDir != "bin" {
		t.Errorf("expected output dir 'bin', got %s", cfg.Build.OutputDir)
	}
	if cfg.Build.Jobs < 1 {
		t.Errorf("expected at least one job, got %d", cfg.Build.Jobs)
	}
	if len(cfg.Build.ScenePatterns) == 0 {
		t.Error("expected default scene patterns")
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)

	yamlContent := `
export:
  name_prefix: false
  tangents: true
  include_empties: true

build:
  assets_dir: "content"
  output_dir: "out"
  jobs: 3
  scene_patterns: ["levels/**.glb"]
  external:
    "**.blend": "blender -b {input} --python export.py -- {output}"

logging:
  level: "debug"
  log_file: "assetc.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Load config
	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Verify values were loaded
	if cfg.Export.NamePrefix {
		t.Error("expected name_prefix to be false")
	}
	if !cfg.Export.Tangents {
		t.Error("expected tangents to be true")
	}
	if !cfg.Export.IncludeEmpties {
		t.Error("expected include_empties to be true")
	}

	if cfg.Build.AssetsDir != "content" {
		t.Errorf("expected assets dir 'content', got %s", cfg.Build.AssetsDir)
	}
	if cfg.Build.OutputDir != "out" {
		t.Errorf("expected output dir 'out', got %s", cfg.Build.OutputDir)
	}
	if cfg.Build.Jobs != 3 {
		t.Errorf("expected 3 jobs, got %d", cfg.Build.Jobs)
	}
	if len(cfg.Build.ScenePatterns) != 1 || cfg.Build.ScenePatterns[0] != "levels/**.glb" {
		t.Errorf("unexpected scene patterns %v", cfg.Build.ScenePatterns)
	}
	if got := cfg.Build.External["**.blend"]; got != "blender -b {input} --python export.py -- {output}" {
		t.Errorf("unexpected external command %q", got)
	}
	// Unset keys keep their defaults.
	if cfg.Build.CacheFile != ".assetc-cache.yaml" {
		t.Errorf("expected default cache file, got %s", cfg.Build.CacheFile)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "assetc.log" {
		t.Errorf("expected log file 'assetc.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	// Create temporary config file with invalid YAML
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
build:
  jobs: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Try to load - should error
	cfg := Default()
	err := loadFromFile(cfg, configPath)
	if err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/assetc.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero jobs", func(c *Config) { c.Build.Jobs = 0 }, true},
		{"negative jobs", func(c *Config) { c.Build.Jobs = -3 }, true},
		{"empty level means info", func(c *Config) { c.Logging.Level = "" }, false},
		{"empty assets dir", func(c *Config) { c.Build.AssetsDir = "" }, true},
		{"empty output dir", func(c *Config) { c.Build.OutputDir = "" }, true},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			jobs := cfg.Build.Jobs
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if cfg.Build.Jobs != jobs {
				t.Errorf("Validate() changed jobs from %d to %d", jobs, cfg.Build.Jobs)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	// Just verify it returns a non-empty path
	// Actual path depends on OS
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}

	// Verify path is absolute
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	// No config file exists - should return empty
	path := findConfigFile()
	if path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	// Create assetc.yaml in current directory
	if err := os.WriteFile(FileName, []byte("build:\n  jobs: 2\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	// Should find it now
	path = findConfigFile()
	if path == "" {
		t.Error("expected to find assetc.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name: "debug flag",
			setup: func() {
				*flagDebug = true
			},
			verify: func(cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() {
				*flagDebug = false
			},
		},
		{
			name: "directory flags",
			setup: func() {
				*flagAssets = "src"
				*flagOutput = "dist"
			},
			verify: func(cfg *Config) {
				if cfg.Build.AssetsDir != "src" {
					t.Errorf("expected assets dir 'src', got %s", cfg.Build.AssetsDir)
				}
				if cfg.Build.OutputDir != "dist" {
					t.Errorf("expected output dir 'dist', got %s", cfg.Build.OutputDir)
				}
			},
			teardown: func() {
				*flagAssets = ""
				*flagOutput = ""
			},
		},
		{
			name: "jobs flag",
			setup: func() {
				*flagJobs = 7
			},
			verify: func(cfg *Config) {
				if cfg.Build.Jobs != 7 {
					t.Errorf("expected 7 jobs, got %d", cfg.Build.Jobs)
				}
			},
			teardown: func() {
				*flagJobs = 0
			},
		},
		{
			name: "export flags",
			setup: func() {
				*flagNoPrefix = true
				*flagTangents = true
			},
			verify: func(cfg *Config) {
				if cfg.Export.NamePrefix {
					t.Error("expected name_prefix to be false with no-prefix flag")
				}
				if !cfg.Export.Tangents {
					t.Error("expected tangents to be true with tangents flag")
				}
			},
			teardown: func() {
				*flagNoPrefix = false
				*flagTangents = false
			},
		},
		{
			name: "log file flag",
			setup: func() {
				*flagLogFile = "build.log"
			},
			verify: func(cfg *Config) {
				if cfg.Logging.LogFile != "build.log" {
					t.Errorf("expected log file 'build.log', got %s", cfg.Logging.LogFile)
				}
			},
			teardown: func() {
				*flagLogFile = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(cfg)
		})
	}
}

func TestApplyFlags_ZeroJobs(t *testing.T) {
	cfg := Default()
	cfg.Build.Jobs = 0
	applyFlags(cfg)
	if cfg.Build.Jobs != runtime.NumCPU() {
		t.Errorf("expected %d jobs, got %d", runtime.NumCPU(), cfg.Build.Jobs)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	cfg := Default()
	cfg.Build.Jobs = 5
	cfg.Build.External = map[string]string{"**.blend": "blender {input}"}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload saved config: %v", err)
	}
	if loaded.Build.Jobs != 5 {
		t.Errorf("expected 5 jobs after reload, got %d", loaded.Build.Jobs)
	}
	if loaded.Build.External["**.blend"] != "blender {input}" {
		t.Errorf("external command not preserved: %v", loaded.Build.External)
	}
}
