// Package config handles asset pipeline configuration loading and management.
package config

import "runtime"

// Config holds all pipeline settings.
type Config struct {
	Export  ExportConfig  `yaml:"export"`
	Build   BuildConfig   `yaml:"build"`
	Logging LoggingConfig `yaml:"logging"`
}

// ExportConfig holds scene export settings.
type ExportConfig struct {
	NamePrefix     bool `yaml:"name_prefix"`     // Prefix names with the source file name
	Tangents       bool `yaml:"tangents"`        // Emit tangent space when present
	IncludeEmpties bool `yaml:"include_empties"` // Emit curve and empty objects
}

// BuildConfig holds asset build settings.
type BuildConfig struct {
	AssetsDir     string            `yaml:"assets_dir"`
	OutputDir     string            `yaml:"output_dir"`
	CacheFile     string            `yaml:"cache_file"`
	ScenePatterns []string          `yaml:"scene_patterns"` // Globs of files exported to .dat
	Ignore        []string          `yaml:"ignore"`         // Globs of files skipped entirely
	Jobs          int               `yaml:"jobs"`
	External      map[string]string `yaml:"external"` // Glob -> exporter command line
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			NamePrefix:     true,
			Tangents:       false,
			IncludeEmpties: false,
		},
		Build: BuildConfig{
			AssetsDir:     "assets",
			OutputDir:     "bin",
			CacheFile:     ".assetc-cache.yaml",
			ScenePatterns: []string{"**.gltf", "**.glb", "**.obj"},
			Ignore:        []string{"**.blend1", ".*", "**/.*"},
			Jobs:          runtime.NumCPU(),
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
