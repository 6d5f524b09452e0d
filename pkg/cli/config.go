/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config carries optional flag defaults from a YAML file. Explicitly set
// flags and environment variables always win over config values.
type Config struct {
	PeriodMs    int64  `yaml:"periodMs"`
	Count       uint64 `yaml:"count"`
	Output      string `yaml:"output"`
	MetricsAddr string `yaml:"metricsAddr"`
	LogLevel    string `yaml:"logLevel"`
}

// loadConfig reads the config file at path. An empty path yields an
// empty config; a missing or malformed file is an error (a user-named
// config must not be silently ignored).
func loadConfig(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &cfg, nil
}

// applyTo installs config values as flag values for flags the user did
// not set on the command line or environment.
func (c *Config) applyTo(cmd *cli.Command) {
	if c.PeriodMs > 0 && !cmd.IsSet("period") {
		_ = cmd.Set("period", fmt.Sprintf("%d", c.PeriodMs))
	}
	if c.Count > 0 && !cmd.IsSet("count") {
		_ = cmd.Set("count", fmt.Sprintf("%d", c.Count))
	}
	if c.Output != "" && !cmd.IsSet("output") {
		_ = cmd.Set("output", c.Output)
	}
	if c.MetricsAddr != "" && !cmd.IsSet("metrics-addr") {
		_ = cmd.Set("metrics-addr", c.MetricsAddr)
	}
	if c.LogLevel != "" && !cmd.IsSet("log-level") {
		_ = cmd.Set("log-level", c.LogLevel)
	}
}
