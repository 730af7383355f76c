// Package config handles run configuration loading for the sfs tool.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the tool configuration.
type Config struct {
	Create CreateConfig `yaml:"create"`
	Output OutputConfig `yaml:"output"`
	Server ServerConfig `yaml:"server"`
	Cache  CacheConfig  `yaml:"cache"`
	Render RenderConfig `yaml:"render"`
}

// CreateConfig contains spectrum creation settings.
type CreateConfig struct {
	SamplesFile string `yaml:"samples_file"`
	ProjectTo   []int  `yaml:"project_to"`
	Strict      bool   `yaml:"strict"`
}

// OutputConfig contains serialization settings.
type OutputConfig struct {
	Format    string `yaml:"format"`
	Precision int    `yaml:"precision"`
	Gzip      bool   `yaml:"gzip"`
}

// ServerConfig contains HTTP server settings for serve mode.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// CacheConfig contains caching settings for serve mode.
type CacheConfig struct {
	HeatmapSizeMB     int `yaml:"heatmap_size_mb"`
	HeatmapTTLMinutes int `yaml:"heatmap_ttl_minutes"`
	ResponseEntries   int `yaml:"response_entries"`
}

// RenderConfig contains heatmap rendering settings.
type RenderConfig struct {
	CellSize        int    `yaml:"cell_size"`
	DefaultColormap string `yaml:"default_colormap"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Return default config if file doesn't exist
		return DefaultConfig(), nil
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Apply defaults for missing values
	applyDefaults(&cfg)

	return &cfg, nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Format:    "text",
			Precision: 6,
		},
		Server: ServerConfig{
			Port:        8080,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Cache: CacheConfig{
			HeatmapSizeMB:     64,
			HeatmapTTLMinutes: 10,
			ResponseEntries:   128,
		},
		Render: RenderConfig{
			CellSize:        32,
			DefaultColormap: "viridis",
		},
	}
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Output.Format == "" {
		cfg.Output.Format = defaults.Output.Format
	}
	if cfg.Output.Precision == 0 {
		cfg.Output.Precision = defaults.Output.Precision
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = defaults.Server.CORSOrigins
	}
	if cfg.Cache.HeatmapSizeMB == 0 {
		cfg.Cache.HeatmapSizeMB = defaults.Cache.HeatmapSizeMB
	}
	if cfg.Cache.HeatmapTTLMinutes == 0 {
		cfg.Cache.HeatmapTTLMinutes = defaults.Cache.HeatmapTTLMinutes
	}
	if cfg.Cache.ResponseEntries == 0 {
		cfg.Cache.ResponseEntries = defaults.Cache.ResponseEntries
	}
	if cfg.Render.CellSize == 0 {
		cfg.Render.CellSize = defaults.Render.CellSize
	}
	if cfg.Render.DefaultColormap == "" {
		cfg.Render.DefaultColormap = defaults.Render.DefaultColormap
	}
}
