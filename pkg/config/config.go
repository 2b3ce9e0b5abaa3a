// Package config provides configuration loading for kite tools
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/eljefe6a/kite/pkg/logger"
)

// DatasetConfig describes one dataset a tool operates on.
type DatasetConfig struct {
	// Name identifies the dataset
	Name string `yaml:"name" json:"name"`
	// SchemaPath points at the entity schema JSON file
	SchemaPath string `yaml:"schema_path" json:"schema_path"`
	// Specific selects the fixed-layout entity representation; the Go
	// type must be registered under the schema's record name.
	Specific bool `yaml:"specific" json:"specific"`
}

// ToolConfig is the top-level configuration for the kite CLI.
type ToolConfig struct {
	Logging  logger.Config   `yaml:"logging" json:"logging"`
	Datasets []DatasetConfig `yaml:"datasets" json:"datasets"`
}

// DefaultToolConfig returns a usable configuration with JSON logging at
// info level and no datasets.
func DefaultToolConfig() *ToolConfig {
	return &ToolConfig{
		Logging: logger.Config{
			Level:    "info",
			Encoding: "json",
		},
	}
}

// Load loads a configuration from a YAML file. ${VAR} references are
// replaced with environment variable values before parsing.
func Load(filePath string, config interface{}) error {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: path is caller-controlled
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	content := os.Expand(string(data), func(name string) string {
		return os.Getenv(name)
	})

	if err := yaml.Unmarshal([]byte(content), config); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// Save saves a configuration to a YAML file
func Save(filePath string, config interface{}) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil { //nolint:gosec
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
