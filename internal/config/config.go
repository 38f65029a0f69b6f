// Package config loads tool configuration from an optional .cykgen.yaml
// file. File values override the built-in defaults; command-line flags
// override both.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks when no explicit path is given.
const DefaultPath = ".cykgen.yaml"

// Config holds all cykgen configuration.
type Config struct {
	Generator GeneratorConfig `yaml:"generator"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// GeneratorConfig carries the default generation options.
type GeneratorConfig struct {
	// TileSize is the tile edge length for the parallel schedule.
	TileSize int `yaml:"tile_size"`
	// Checkpoint enables resumable traversal state by default.
	Checkpoint bool `yaml:"checkpoint"`
	// Outside selects the dual traversal by default.
	Outside bool `yaml:"outside"`
}

// OutputConfig controls where generated code goes.
type OutputConfig struct {
	// Path is the output file; empty means stdout.
	Path string `yaml:"path"`
}

// LoggingConfig controls diagnostic verbosity.
type LoggingConfig struct {
	Verbose bool `yaml:"verbose"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Generator: GeneratorConfig{TileSize: 32},
	}
}

// Load reads path over the defaults. A missing file at the default path is
// not an error; a missing explicitly-requested file is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.Generator.TileSize <= 0 {
		return nil, fmt.Errorf("config %s: generator.tile_size must be positive, got %d",
			path, cfg.Generator.TileSize)
	}
	return cfg, nil
}
