// Package config handles objtool configuration loading and management.
package config

import "github.com/Faultbox/objmesh/pkg/formats"

// Config holds all tool settings.
type Config struct {
	Parser  ParserConfig  `yaml:"parser"`
	Loader  LoaderConfig  `yaml:"loader"`
	Logging LoggingConfig `yaml:"logging"`
}

// ParserConfig sizes the vertex deduplication table.
type ParserConfig struct {
	Buckets     int `yaml:"buckets"`      // Fixed hash bucket count
	MaxVertices int `yaml:"max_vertices"` // Distinct vertex ceiling per mesh
}

// Options converts the parser settings to parse options.
func (p ParserConfig) Options() formats.OBJOptions {
	return formats.OBJOptions{
		Buckets:     p.Buckets,
		MaxVertices: p.MaxVertices,
	}
}

// LoaderConfig holds mesh lookup and batch loading settings.
type LoaderConfig struct {
	SearchPaths []string `yaml:"search_paths"` // Directories searched for relative names
	Workers     int      `yaml:"workers"`      // Parallel parses in a batch
	Cache       bool     `yaml:"cache"`        // Keep parsed meshes in memory
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Parser: ParserConfig{
			Buckets:     formats.DefaultOBJBuckets,
			MaxVertices: formats.DefaultOBJMaxVertices,
		},
		Loader: LoaderConfig{
			SearchPaths: []string{"."},
			Workers:     4,
			Cache:       true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
