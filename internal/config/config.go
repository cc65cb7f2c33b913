// Package config loads optional per-repo analysis settings from
// mycelium.yml/mycelium.yaml, overridden by CLI flags at the call site.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectConfig holds project-level analysis settings loaded from
// mycelium.yml. Every field mirrors a CLI flag (spec.md §6); CLI flags
// always take precedence over a value set here.
type ProjectConfig struct {
	Output           string   `yaml:"output,omitempty"`
	Languages        []string `yaml:"languages,omitempty"`
	Exclude          []string `yaml:"exclude,omitempty"`
	Resolution       float64  `yaml:"resolution,omitempty"`
	MaxProcesses     int      `yaml:"maxProcesses,omitempty"`
	MaxDepth         int      `yaml:"maxDepth,omitempty"`
	MaxBranching     int      `yaml:"maxBranching,omitempty"`
	MinSteps         int      `yaml:"minSteps,omitempty"`
	MaxFileSize      int64    `yaml:"maxFileSize,omitempty"`
	MaxCommunitySize int      `yaml:"maxCommunitySize,omitempty"`
	Verbose          bool     `yaml:"verbose,omitempty"`
	Quiet            bool     `yaml:"quiet,omitempty"`
	GraphBackend     string   `yaml:"graphBackend,omitempty"`
}

// Load attempts to read mycelium.yml or mycelium.yaml from dir. Returns a
// zero-value config (not an error) if no config file exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"mycelium.yml", "mycelium.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}
