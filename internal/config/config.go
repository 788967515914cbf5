package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Dataset DatasetConfig `yaml:"dataset"`
	Feature FeatureConfig `yaml:"feature"`
	Bench   BenchConfig   `yaml:"bench"`
	LSH     LSHConfig     `yaml:"lsh"`
	Log     LogConfig     `yaml:"log"`
}

// DatasetConfig holds dataset-loading configuration
type DatasetConfig struct {
	Dir        string   `yaml:"dir"`
	Extensions []string `yaml:"extensions"`
	CacheDir   string   `yaml:"cache_dir"` // Empty disables the feature cache
	Workers    int      `yaml:"workers"`   // 0 uses one worker per CPU
}

// FeatureConfig holds feature-extraction configuration
type FeatureConfig struct {
	Bins int `yaml:"bins"` // Histogram bins per color channel
}

// BenchConfig holds benchmark-run configuration
type BenchConfig struct {
	Queries []string `yaml:"queries"` // Query image file names, resolved against the dataset
	Indexes []string `yaml:"indexes"` // Structures to benchmark
	TopK    int      `yaml:"top_k"`
	Trials  int      `yaml:"trials"` // Timed search repetitions per structure
	Seed    int64    `yaml:"seed"`   // LSH projection seed; 0 samples a fresh one
	Output  string   `yaml:"output"` // Report file path; empty prints to stdout only
	Format  string   `yaml:"format"` // text or json
}

// LSHConfig holds LSH index construction parameters
type LSHConfig struct {
	Hashes int     `yaml:"hashes"`
	Width  float32 `yaml:"width"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn or error
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Dir:        "./data",
			Extensions: []string{".jpg", ".jpeg", ".png"},
		},
		Feature: FeatureConfig{
			Bins: 8,
		},
		Bench: BenchConfig{
			Queries: []string{"50.jpg", "150.jpg", "250.jpg", "450.jpg", "650.jpg", "950.jpg"},
			Indexes: []string{"flat", "kdtree", "lsh"},
			TopK:    10,
			Trials:  5,
			Format:  "text",
		},
		LSH: LSHConfig{
			Hashes: 16,
			Width:  0.5,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads the configuration from a file
func LoadConfig(path string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// Resolve absolute path
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	// Check if the file exists
	_, err = os.Stat(absPath)
	if os.IsNotExist(err) {
		return config, nil // Return default config if file doesn't exist
	}

	// Read the file
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to a file
func SaveConfig(config *Config, path string) error {
	// Convert config to YAML
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
