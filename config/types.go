package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Calls   ListConfig    `mapstructure:"calls"`
	Tasks   ListConfig    `mapstructure:"tasks"`
	Filter  FilterConfig  `mapstructure:"filter"`
	Logging LoggingConfig `mapstructure:"logging"`
	Output  OutputConfig  `mapstructure:"output"`
	Update  UpdateConfig  `mapstructure:"update"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ListConfig holds defaults for a list endpoint
type ListConfig struct {
	DefaultSort string `mapstructure:"default_sort"`
}

// FilterConfig contains named filter expressions. Preset names are
// lowercased when loaded.
type FilterConfig struct {
	Presets map[string]string `mapstructure:"presets"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

// OutputConfig controls how results are printed
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// UpdateConfig points the self-updater at a release repository
type UpdateConfig struct {
	Repository string `mapstructure:"repository"`
}

// MetricsConfig controls request metrics export
type MetricsConfig struct {
	// Textfile is written in Prometheus text format after each API command
	Textfile string `mapstructure:"textfile"`
}
